package yield // import "kastelo.dev/yield"

// OrderKey is the five digit production order code that leads every order label.
type OrderKey string

// Value is a numeric cell that may be absent. Absent values never take part in sums.
type Value struct {
	v  float64
	ok bool
}

func Some(v float64) Value {
	return Value{v: v, ok: true}
}

func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

func (v Value) Present() bool {
	return v.ok
}

// Quality counters, in output column order.
const (
	CE = iota
	SF
	SI
	IND
	NSI
	QV
	numQuality
)

type Quality [numQuality]float64

// RawRecord is one row of a daily report as read from the source file.
type RawRecord struct {
	File string
	Row  int

	OrderLabel     string
	StemCount      Value
	InputVolume    Value
	AvgStemCount   Value
	Parts          Value
	Diameter       Value // as reported; recomputed from the aggregates
	RuntimeMinutes Value
	Dimension      string
	GrossVolume    Value
	NetVolume      Value
	WasteVolume    Value
	Quality        [numQuality]Value
}

// Record is a RawRecord after normalization and classification.
type Record struct {
	RawRecord
	Key   OrderKey
	Label string
	Class Class
}
