package yield

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Columns is the fixed output schema.
var Columns = []string{
	"Order", "Dimension",
	"StemCount", "InputVolume", "AvgStemCount", "TotalParts",
	"Diameter", "StrengthClass", "RuntimeMinutes", "FeedRate",
	"GrossVolume", "GrossWastePct", "NetVolume",
	"GrossYieldPct", "NetYieldPct",
	"CE", "SF", "SI", "IND", "NSI", "QV", "WasteVolume",
}

type RowKind int

const (
	TotalRow RowKind = iota
	DimensionRow
)

func (k RowKind) String() string {
	if k == TotalRow {
		return "total"
	}
	return "dimension"
}

// Row is one line of the canonical layout. Fields that do not apply to the
// row kind are zero. HasDiameter is false when the order's diameter could
// not be computed; the diameter cell is then left empty.
type Row struct {
	Kind     RowKind
	OrderKey OrderKey

	Order          string
	Dimension      string
	StemCount      float64
	InputVolume    float64
	AvgStemCount   float64
	TotalParts     float64
	Diameter       float64
	HasDiameter    bool
	StrengthClass  string
	RuntimeMinutes float64
	FeedRate       float64
	GrossVolume    float64
	GrossWastePct  float64
	NetVolume      float64
	GrossYieldPct  float64
	NetYieldPct    float64
	Quality        Quality
	WasteVolume    float64
}

// Values returns the row's cells in Columns order. An unset diameter is nil.
func (r Row) Values() []any {
	var diameter any
	if r.Kind == DimensionRow || r.HasDiameter {
		diameter = r.Diameter
	}
	return []any{
		r.Order, r.Dimension,
		r.StemCount, r.InputVolume, r.AvgStemCount, r.TotalParts,
		diameter, r.StrengthClass, r.RuntimeMinutes, r.FeedRate,
		r.GrossVolume, r.GrossWastePct, r.NetVolume,
		r.GrossYieldPct, r.NetYieldPct,
		r.Quality[CE], r.Quality[SF], r.Quality[SI], r.Quality[IND], r.Quality[NSI], r.Quality[QV],
		r.WasteVolume,
	}
}

func (r *Row) numbers() []*float64 {
	return []*float64{
		&r.StemCount, &r.InputVolume, &r.AvgStemCount, &r.TotalParts,
		&r.Diameter, &r.RuntimeMinutes, &r.FeedRate,
		&r.GrossVolume, &r.GrossWastePct, &r.NetVolume,
		&r.GrossYieldPct, &r.NetYieldPct,
		&r.Quality[CE], &r.Quality[SF], &r.Quality[SI], &r.Quality[IND], &r.Quality[NSI], &r.Quality[QV],
		&r.WasteVolume,
	}
}

var errInvalidRow = errors.New("invalid row")

func (r Row) validate() error {
	switch r.Kind {
	case TotalRow:
		if r.Dimension != "" {
			return fmt.Errorf("%w: total row for %s has dimension %q", errInvalidRow, r.OrderKey, r.Dimension)
		}
		if r.GrossVolume != 0 || r.NetVolume != 0 || r.WasteVolume != 0 || r.Quality != (Quality{}) {
			return fmt.Errorf("%w: total row for %s carries dimension values", errInvalidRow, r.OrderKey)
		}
	case DimensionRow:
		if r.Dimension == "" {
			return fmt.Errorf("%w: dimension row for %s without dimension", errInvalidRow, r.OrderKey)
		}
		if r.StrengthClass != "" || r.StemCount != 0 || r.InputVolume != 0 || r.RuntimeMinutes != 0 {
			return fmt.Errorf("%w: dimension row for %s carries order values", errInvalidRow, r.OrderKey)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", errInvalidRow, r.Kind)
	}
	for _, v := range r.numbers() {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("%w: non-finite value in row for %s", errInvalidRow, r.OrderKey)
		}
	}
	return nil
}

func totalRow(o *OrderTotals) (Row, error) {
	r := Row{
		Kind:           TotalRow,
		OrderKey:       o.Key,
		Order:          o.Label,
		StemCount:      o.StemCount,
		InputVolume:    o.InputVolume,
		AvgStemCount:   o.AvgStemCount,
		TotalParts:     o.Parts,
		Diameter:       o.Diameter,
		HasDiameter:    o.DiameterErr == nil,
		StrengthClass:  o.StrengthClass,
		RuntimeMinutes: o.RuntimeMinutes,
		FeedRate:       o.FeedRate,
	}
	return r, r.validate()
}

func dimensionRow(o *OrderTotals, b *DimensionBucket) (Row, error) {
	r := Row{
		Kind:          DimensionRow,
		OrderKey:      o.Key,
		Order:         o.Label,
		Dimension:     b.Dimension,
		TotalParts:    b.Parts,
		GrossVolume:   b.GrossVolume,
		GrossWastePct: b.GrossWastePct,
		NetVolume:     b.NetVolume,
		GrossYieldPct: b.GrossYieldPct,
		NetYieldPct:   b.NetYieldPct,
		Quality:       b.Quality,
		WasteVolume:   b.WasteVolume,
	}
	return r, r.validate()
}

// A DimensionStrategy decides which dimension rows follow an order's total
// row, and in which order.
type DimensionStrategy interface {
	Dimensions(o *OrderTotals, observed []*DimensionBucket) ([]*DimensionBucket, []error)
}

// Observed emits the observed buckets sorted by dimension label.
type Observed struct{}

func (Observed) Dimensions(_ *OrderTotals, observed []*DimensionBucket) ([]*DimensionBucket, []error) {
	res := append([]*DimensionBucket(nil), observed...)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Dimension < res[j].Dimension
	})
	return res, nil
}

// ReferenceDimension is one entry of a reference table of expected
// dimensions.
type ReferenceDimension struct {
	SortIndex  int
	Dim1, Dim2 string
}

func (d ReferenceDimension) Key() string {
	return DimensionKey(d.Dim1 + "x" + d.Dim2)
}

// ReferenceJoin emits every reference dimension for every order, in sort
// index order, zero-filled where nothing was observed. Observed dimensions
// outside the reference are reported and left out.
type ReferenceJoin struct {
	Reference []ReferenceDimension
}

func (j ReferenceJoin) Dimensions(o *OrderTotals, observed []*DimensionBucket) ([]*DimensionBucket, []error) {
	ref := append([]ReferenceDimension(nil), j.Reference...)
	sort.SliceStable(ref, func(a, b int) bool {
		return ref[a].SortIndex < ref[b].SortIndex
	})

	byKey := make(map[string][]*DimensionBucket)
	for _, b := range observed {
		k := DimensionKey(b.Dimension)
		byKey[k] = append(byKey[k], b)
	}

	var warnings []error
	known := make(map[string]bool, len(ref))
	res := make([]*DimensionBucket, 0, len(ref))
	for _, d := range ref {
		k := d.Key()
		if known[k] {
			continue
		}
		known[k] = true
		res = append(res, mergeBuckets(o, k, byKey[k]))
	}

	for _, b := range observed {
		if !known[DimensionKey(b.Dimension)] {
			warnings = append(warnings, &UnreferencedDimensionError{Order: o.Key, Dimension: b.Dimension})
		}
	}
	return res, warnings
}

func mergeBuckets(o *OrderTotals, dim string, bs []*DimensionBucket) *DimensionBucket {
	m := &DimensionBucket{Key: o.Key, Dimension: dim}
	for _, b := range bs {
		m.Rows += b.Rows
		m.Parts += b.Parts
		m.GrossVolume += b.GrossVolume
		m.NetVolume += b.NetVolume
		m.WasteVolume += b.WasteVolume
		for q := range m.Quality {
			m.Quality[q] += b.Quality[q]
		}
	}
	m.derive(o.InputVolume)
	return m
}

// Reconstruct lays the aggregates out as total row plus dimension rows per
// order, orders ascending, and rounds every number once to three decimals.
// A nil strategy means Observed.
func Reconstruct(a *Aggregates, strategy DimensionStrategy) ([]Row, []error) {
	if strategy == nil {
		strategy = Observed{}
	}

	var rows []Row
	var warnings []error
	for _, o := range a.Orders() {
		r, err := totalRow(o)
		if err != nil {
			warnings = append(warnings, &IntegrityError{Order: o.Key, Reason: err.Error()})
			continue
		}
		rows = append(rows, r)

		dims, errs := strategy.Dimensions(o, a.Buckets(o.Key))
		warnings = append(warnings, errs...)
		for _, b := range dims {
			r, err := dimensionRow(o, b)
			if err != nil {
				warnings = append(warnings, &IntegrityError{Order: o.Key, Dimension: b.Dimension, Reason: err.Error()})
				continue
			}
			rows = append(rows, r)
		}
	}

	roundRows(rows)
	return rows, warnings
}

func round3(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

func roundRows(rows []Row) {
	for i := range rows {
		for _, v := range rows[i].numbers() {
			*v = round3(*v)
		}
	}
}
