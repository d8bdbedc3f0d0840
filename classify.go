package yield

type Class int

const (
	Total Class = iota
	Dimension
)

func (c Class) String() string {
	switch c {
	case Total:
		return "total"
	case Dimension:
		return "dimension"
	default:
		return "unknown"
	}
}

// Classify uses the stem count as sentinel: only order total rows count
// stems. An empty stem count classifies as a dimension row.
func Classify(rec RawRecord) Class {
	if v, ok := rec.StemCount.Get(); ok && v != 0 {
		return Total
	}
	return Dimension
}

// Partition splits records into totals and dimension rows. Every record
// lands in exactly one of the two.
func Partition(recs []Record) (totals, dims []Record) {
	for _, rec := range recs {
		switch rec.Class {
		case Total:
			totals = append(totals, rec)
		default:
			dims = append(dims, rec)
		}
	}
	return totals, dims
}

// mismatch reports a record whose dimension label contradicts its class.
func mismatch(rec Record) *MismatchError {
	switch {
	case rec.Class == Total && rec.Dimension != "":
		return &MismatchError{File: rec.File, Row: rec.Row, Class: Total, Dimension: rec.Dimension}
	case rec.Class == Dimension && rec.Dimension == "":
		return &MismatchError{File: rec.File, Row: rec.Row, Class: Dimension, Excluded: true}
	}
	return nil
}
