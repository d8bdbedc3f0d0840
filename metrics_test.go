package yield

import (
	"errors"
	"math"
	"testing"
)

func TestRatios(t *testing.T) {
	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"waste", GrossWastePct(3, 22), 300.0 / 22},
		{"waste zero gross", GrossWastePct(3, 0), 0},
		{"waste negative gross", GrossWastePct(3, -1), 0},
		{"gross yield", GrossYieldPct(22, 110), 20},
		{"gross yield zero input", GrossYieldPct(22, 0), 0},
		{"net yield", NetYieldPct(17, 110), 1700.0 / 110},
		{"net yield zero input", NetYieldPct(17, 0), 0},
		{"feed rate", FeedRate(110, 150), 44},
		{"feed rate zero runtime", FeedRate(110, 0), 0},
	}
	for _, c := range cases {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestStrengthClass(t *testing.T) {
	cases := []struct {
		d     float64
		class string
	}{
		{0, "0"},
		{99.999, "0"},
		{100, "1a"},
		{149.999, "1a"},
		{150, "1b"},
		{199.999, "1b"},
		{200, "2a"},
		{250, "2b"},
		{300, "3a"},
		{350, "3b"},
		{399.999, "3b"},
		{400, "unknown"},
		{10000, "unknown"},
	}
	for _, c := range cases {
		if got := StrengthClass(c.d); got != c.class {
			t.Errorf("StrengthClass(%v) = %q, want %q", c.d, got, c.class)
		}
	}
}

func TestDiameter(t *testing.T) {
	d, err := Diameter(110, 5.5, 22)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Sqrt(110/(math.Pi*5.5*22)) * 20000
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("got %v, want %v", d, want)
	}

	for _, c := range [][3]float64{{110, 0, 22}, {110, 5.5, 0}, {0, 0, 0}} {
		if _, err := Diameter(c[0], c[1], c[2]); !errors.Is(err, errZeroDenominator) {
			t.Errorf("Diameter(%v): expected zero denominator, got %v", c, err)
		}
	}

	if _, err := Diameter(-110, 5.5, 22); err == nil {
		t.Error("negative volume ratio should fail")
	}
}
