package yield

import (
	"math/big"
	"sort"
)

// sum accumulates exactly, so that totals do not depend on the order in
// which files and rows are visited.
type sum struct {
	r big.Rat
}

func (s *sum) add(v float64) {
	var x big.Rat
	if x.SetFloat64(v) == nil {
		return
	}
	s.r.Add(&s.r, &x)
}

func (s *sum) value() float64 {
	f, _ := s.r.Float64()
	return f
}

func (s *sum) mean(n int) float64 {
	if n == 0 {
		return 0
	}
	var q big.Rat
	q.Quo(&s.r, big.NewRat(int64(n), 1))
	f, _ := q.Float64()
	return f
}

// OrderTotals is the month's aggregate of an order's total rows.
type OrderTotals struct {
	Key   OrderKey
	Label string
	Rows  int

	StemCount      float64
	InputVolume    float64
	AvgStemCount   float64 // unweighted mean of the daily values
	Parts          float64
	RuntimeMinutes float64

	Diameter      float64
	DiameterErr   error
	StrengthClass string
	FeedRate      float64
}

// DimensionBucket is the month's aggregate of one dimension of an order.
type DimensionBucket struct {
	Key       OrderKey
	Dimension string
	Rows      int

	Parts       float64
	GrossVolume float64
	NetVolume   float64
	WasteVolume float64
	Quality     Quality

	GrossWastePct float64
	GrossYieldPct float64
	NetYieldPct   float64
}

func (b *DimensionBucket) derive(inputVolume float64) {
	b.GrossWastePct = GrossWastePct(b.WasteVolume, b.GrossVolume)
	b.GrossYieldPct = GrossYieldPct(b.GrossVolume, inputVolume)
	b.NetYieldPct = NetYieldPct(b.NetVolume, inputVolume)
}

type Aggregates struct {
	orders  map[OrderKey]*OrderTotals
	buckets map[OrderKey][]*DimensionBucket
	orphans []*DimensionBucket
}

// Orders returns the order totals sorted by order key.
func (a *Aggregates) Orders() []*OrderTotals {
	res := make([]*OrderTotals, 0, len(a.orders))
	for _, o := range a.orders {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Key < res[j].Key
	})
	return res
}

func (a *Aggregates) Order(key OrderKey) (*OrderTotals, bool) {
	o, ok := a.orders[key]
	return o, ok
}

// Buckets returns the dimension buckets of an order sorted by dimension.
func (a *Aggregates) Buckets(key OrderKey) []*DimensionBucket {
	return a.buckets[key]
}

// Orphans returns dimension buckets whose order has no total rows.
func (a *Aggregates) Orphans() []*DimensionBucket {
	return a.orphans
}

type orderAcc struct {
	label                        string
	rows                         int
	stems, input, parts, runtime sum
	avgStems                     sum
	avgN                         int
}

type bucketKey struct {
	order OrderKey
	dim   string
}

type bucketAcc struct {
	rows                     int
	parts, gross, net, waste sum
	quality                  [numQuality]sum
}

// Aggregate groups normalized records by order and by (order, dimension)
// and derives the order and bucket metrics. The returned warnings cover
// absent values that were left out of sums and integrity problems.
func Aggregate(recs []Record) (*Aggregates, []error) {
	var warnings []error
	add := func(acc *sum, v Value, rec Record, c column) {
		if f, ok := v.Get(); ok {
			acc.add(f)
			return
		}
		warnings = append(warnings, &MissingValueError{File: rec.File, Row: rec.Row, Column: columnNames[c][0]})
	}

	orders := make(map[OrderKey]*orderAcc)
	buckets := make(map[bucketKey]*bucketAcc)

	totals, dims := Partition(recs)

	for _, rec := range totals {
		acc, ok := orders[rec.Key]
		if !ok {
			acc = &orderAcc{label: rec.Label}
			orders[rec.Key] = acc
		}
		if rec.Label != "" && (acc.label == "" || rec.Label < acc.label) {
			acc.label = rec.Label
		}
		acc.rows++
		add(&acc.stems, rec.StemCount, rec, colStems)
		add(&acc.input, rec.InputVolume, rec, colInput)
		add(&acc.parts, rec.Parts, rec, colParts)
		add(&acc.runtime, rec.RuntimeMinutes, rec, colRuntime)
		if v, ok := rec.AvgStemCount.Get(); ok {
			acc.avgStems.add(v)
			acc.avgN++
		} else {
			warnings = append(warnings, &MissingValueError{File: rec.File, Row: rec.Row, Column: columnNames[colAvgStems][0]})
		}
	}

	for _, rec := range dims {
		k := bucketKey{rec.Key, rec.Dimension}
		acc, ok := buckets[k]
		if !ok {
			acc = &bucketAcc{}
			buckets[k] = acc
		}
		acc.rows++
		add(&acc.parts, rec.Parts, rec, colParts)
		add(&acc.gross, rec.GrossVolume, rec, colGross)
		add(&acc.net, rec.NetVolume, rec, colNet)
		add(&acc.waste, rec.WasteVolume, rec, colWaste)
		for q := range acc.quality {
			add(&acc.quality[q], rec.Quality[q], rec, colCE+column(q))
		}
	}

	res := &Aggregates{
		orders:  make(map[OrderKey]*OrderTotals, len(orders)),
		buckets: make(map[OrderKey][]*DimensionBucket),
	}

	for key, acc := range orders {
		o := &OrderTotals{
			Key:            key,
			Label:          acc.label,
			Rows:           acc.rows,
			StemCount:      acc.stems.value(),
			InputVolume:    acc.input.value(),
			AvgStemCount:   acc.avgStems.mean(acc.avgN),
			Parts:          acc.parts.value(),
			RuntimeMinutes: acc.runtime.value(),
		}
		o.Diameter, o.DiameterErr = Diameter(o.InputVolume, o.AvgStemCount, o.StemCount)
		if o.DiameterErr == nil {
			o.StrengthClass = StrengthClass(o.Diameter)
		} else {
			o.Diameter = 0
		}
		o.FeedRate = FeedRate(o.InputVolume, o.RuntimeMinutes)
		res.orders[key] = o
	}

	for k, acc := range buckets {
		b := &DimensionBucket{
			Key:         k.order,
			Dimension:   k.dim,
			Rows:        acc.rows,
			Parts:       acc.parts.value(),
			GrossVolume: acc.gross.value(),
			NetVolume:   acc.net.value(),
			WasteVolume: acc.waste.value(),
		}
		for q := range acc.quality {
			b.Quality[q] = acc.quality[q].value()
		}
		parent, ok := res.orders[k.order]
		if !ok {
			res.orphans = append(res.orphans, b)
			continue
		}
		b.derive(parent.InputVolume)
		res.buckets[k.order] = append(res.buckets[k.order], b)
	}

	for _, bs := range res.buckets {
		sort.Slice(bs, func(i, j int) bool {
			return bs[i].Dimension < bs[j].Dimension
		})
	}
	sort.Slice(res.orphans, func(i, j int) bool {
		if res.orphans[i].Key != res.orphans[j].Key {
			return res.orphans[i].Key < res.orphans[j].Key
		}
		return res.orphans[i].Dimension < res.orphans[j].Dimension
	})

	for _, o := range res.Orders() {
		if o.DiameterErr != nil {
			warnings = append(warnings, &IntegrityError{Order: o.Key, Reason: "diameter: " + o.DiameterErr.Error()})
		}
	}
	for _, b := range res.orphans {
		warnings = append(warnings, &IntegrityError{Order: b.Key, Dimension: b.Dimension, Reason: "no order totals for dimension rows"})
	}

	return res, warnings
}
