package yield

import (
	"errors"
	"fmt"
)

// ErrNoData is returned by Run when not a single source could be ingested.
var ErrNoData = errors.New("no usable data")

var errZeroDenominator = errors.New("zero denominator")

// IngestionError wraps anything that made a source file unusable.
type IngestionError struct {
	File string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.File, e.Column)
}

type ConversionError struct {
	File   string
	Row    int
	Column string
	Value  string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s row %d: column %q: %q is not a number", e.File, e.Row, e.Column, e.Value)
}

type UnidentifiedOrderError struct {
	File  string
	Row   int
	Label string
}

func (e *UnidentifiedOrderError) Error() string {
	return fmt.Sprintf("%s row %d: no order number in %q", e.File, e.Row, e.Label)
}

// IntegrityError flags an order whose aggregates do not add up: a dimension
// bucket without totals, or a diameter that cannot be computed.
type IntegrityError struct {
	Order     OrderKey
	Dimension string
	Reason    string
}

func (e *IntegrityError) Error() string {
	if e.Dimension != "" {
		return fmt.Sprintf("order %s dimension %s: %s", e.Order, e.Dimension, e.Reason)
	}
	return fmt.Sprintf("order %s: %s", e.Order, e.Reason)
}

type MissingValueError struct {
	File   string
	Row    int
	Column string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s row %d: column %q is empty, excluded from sums", e.File, e.Row, e.Column)
}

// MismatchError reports a row where the stem count and the dimension label
// disagree about the row kind. The stem count wins; a dimension row without
// a label has no bucket to join and is excluded.
type MismatchError struct {
	File      string
	Row       int
	Class     Class
	Dimension string
	Excluded  bool
}

func (e *MismatchError) Error() string {
	if e.Class == Total {
		return fmt.Sprintf("%s row %d: total row carries dimension %q", e.File, e.Row, e.Dimension)
	}
	return fmt.Sprintf("%s row %d: dimension row without dimension label, excluded", e.File, e.Row)
}

type UnreferencedDimensionError struct {
	Order     OrderKey
	Dimension string
}

func (e *UnreferencedDimensionError) Error() string {
	return fmt.Sprintf("order %s: dimension %q is not in the reference set", e.Order, e.Dimension)
}

// WarningKind names the kind of a warning for summaries and traces.
func WarningKind(err error) string {
	var (
		ingestion *IngestionError
		schema    *SchemaError
		conv      *ConversionError
		unident   *UnidentifiedOrderError
		integrity *IntegrityError
		missing   *MissingValueError
		mismatch  *MismatchError
		unref     *UnreferencedDimensionError
	)
	switch {
	case errors.As(err, &schema):
		return "schema"
	case errors.As(err, &conv):
		return "conversion"
	case errors.As(err, &ingestion):
		return "ingestion"
	case errors.As(err, &unident):
		return "unidentified_order"
	case errors.As(err, &integrity):
		return "integrity"
	case errors.As(err, &missing):
		return "missing_value"
	case errors.As(err, &mismatch):
		return "classification_mismatch"
	case errors.As(err, &unref):
		return "unreferenced_dimension"
	default:
		return "other"
	}
}
