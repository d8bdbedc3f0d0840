package yield

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		stems Value
		class Class
	}{
		{Some(10), Total},
		{Some(-1), Total},
		{Some(0.5), Total},
		{Some(0), Dimension},
		{Value{}, Dimension},
	}
	for _, c := range cases {
		if got := Classify(RawRecord{StemCount: c.stems}); got != c.class {
			t.Errorf("Classify(%v) = %v, want %v", c.stems, got, c.class)
		}
	}
}

func TestPartitionTotal(t *testing.T) {
	n := NewNormalizer()
	var recs []Record
	for i, stems := range []Value{Some(1), {}, Some(0), Some(7), {}, Some(2)} {
		rec, _ := n.Normalize(RawRecord{Row: i, OrderLabel: "12345 - 45x120", StemCount: stems})
		recs = append(recs, rec)
	}

	totals, dims := Partition(recs)
	if len(totals)+len(dims) != len(recs) {
		t.Fatalf("partition lost records: %d + %d != %d", len(totals), len(dims), len(recs))
	}

	seen := make(map[int]int)
	for _, r := range totals {
		if r.Class != Total {
			t.Errorf("row %d in totals has class %v", r.Row, r.Class)
		}
		seen[r.Row]++
	}
	for _, r := range dims {
		if r.Class != Dimension {
			t.Errorf("row %d in dims has class %v", r.Row, r.Class)
		}
		seen[r.Row]++
	}
	for i := range recs {
		if seen[i] != 1 {
			t.Errorf("row %d seen %d times", i, seen[i])
		}
	}
	if len(totals) != 3 {
		t.Errorf("expected 3 totals, got %d", len(totals))
	}
}

func TestMismatch(t *testing.T) {
	var m *MismatchError

	total := Record{RawRecord: RawRecord{Dimension: "45x120"}, Class: Total}
	if err := mismatch(total); !errors.As(err, &m) || m.Class != Total {
		t.Errorf("expected mismatch for total row with dimension, got %v", err)
	}

	dim := Record{Class: Dimension}
	if err := mismatch(dim); !errors.As(err, &m) || m.Class != Dimension || !m.Excluded {
		t.Errorf("expected mismatch for dimension row without label, got %v", err)
	}

	if err := mismatch(Record{RawRecord: RawRecord{Dimension: "45x120"}, Class: Dimension}); err != nil {
		t.Errorf("unexpected mismatch %v", err)
	}
}
