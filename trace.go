package yield

import (
	"go.uber.org/zap"
)

type Stage string

const (
	StageIngest    Stage = "ingest"
	StageNormalize Stage = "normalize"
	StageClassify  Stage = "classify"
	StageAggregate Stage = "aggregate"
	StageLayout    Stage = "layout"
)

// Event is one step or finding of a run.
type Event struct {
	Stage   Stage
	Kind    string
	File    string
	Row     int
	Order   OrderKey
	Message string
}

// Trace collects the events of one run in order. It only observes; nothing
// in the pipeline reads it back.
type Trace struct {
	log    *zap.Logger
	events []Event
}

func newTrace(log *zap.Logger) *Trace {
	return &Trace{log: log}
}

func (t *Trace) record(ev Event) {
	t.events = append(t.events, ev)
	if t.log != nil {
		t.log.Debug(ev.Message,
			zap.String("stage", string(ev.Stage)),
			zap.String("kind", ev.Kind),
			zap.String("file", ev.File),
			zap.Int("row", ev.Row),
			zap.String("order", string(ev.Order)),
		)
	}
}

func (t *Trace) warn(stage Stage, err error) {
	ev := Event{Stage: stage, Kind: WarningKind(err), Message: err.Error()}
	switch e := err.(type) {
	case *IngestionError:
		ev.File = e.File
	case *UnidentifiedOrderError:
		ev.File, ev.Row = e.File, e.Row
	case *MissingValueError:
		ev.File, ev.Row = e.File, e.Row
	case *MismatchError:
		ev.File, ev.Row = e.File, e.Row
	case *IntegrityError:
		ev.Order = e.Order
	case *UnreferencedDimensionError:
		ev.Order = e.Order
	}
	t.record(ev)
}

func (t *Trace) Events() []Event {
	return append([]Event(nil), t.events...)
}

// Filter returns the events matching all non-zero fields of q.
func (t *Trace) Filter(q Event) []Event {
	var res []Event
	for _, ev := range t.events {
		switch {
		case q.Stage != "" && ev.Stage != q.Stage:
		case q.Kind != "" && ev.Kind != q.Kind:
		case q.File != "" && ev.File != q.File:
		case q.Row != 0 && ev.Row != q.Row:
		case q.Order != "" && ev.Order != q.Order:
		default:
			res = append(res, ev)
		}
	}
	return res
}

// Count returns the number of events per kind.
func (t *Trace) Count() map[string]int {
	res := make(map[string]int)
	for _, ev := range t.events {
		res[ev.Kind]++
	}
	return res
}
