package yield

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// A TableReader turns the content of one source file into a Table.
type TableReader func(name string, r io.Reader) (*Table, error)

// Source is one daily report. Open is called once; the reader is closed
// before the next source is opened.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func FileSource(path string) Source {
	return Source{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

type Options struct {
	// Readers by lower case file extension, e.g. ".xlsx". Nil means CSV only.
	Readers    map[string]TableReader
	Normalizer *Normalizer
	Strategy   DimensionStrategy
	Logger     *zap.Logger
}

type FileReport struct {
	Name    string
	Records int
	Err     error
}

type Result struct {
	RunID      string
	Rows       []Row
	Files      []FileReport
	Warnings   []error
	Aggregates *Aggregates
	Summary    Summary
	Trace      *Trace
}

// Err joins all warnings of the run, or returns nil when there were none.
func (r *Result) Err() error {
	return errors.Join(r.Warnings...)
}

// Run reconciles the daily reports into the monthly table. A source that
// cannot be read is reported in Files and Warnings and skipped. Run fails
// with ErrNoData only when nothing usable is left.
func Run(sources []Source, opts Options) (*Result, error) {
	readers := opts.Readers
	norm := opts.Normalizer
	if norm == nil {
		norm = NewNormalizer()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	res := &Result{RunID: uuid.NewString()}
	log = log.With(zap.String("run", res.RunID))
	res.Trace = newTrace(log)

	warn := func(stage Stage, err error) {
		res.Warnings = append(res.Warnings, err)
		res.Trace.warn(stage, err)
	}

	var raws []RawRecord
	var ingested []string
	var failures []error
	for _, src := range sources {
		recs, err := ingest(src, readers)
		res.Files = append(res.Files, FileReport{Name: src.Name, Records: len(recs), Err: err})
		if err != nil {
			ierr := &IngestionError{File: src.Name, Err: err}
			failures = append(failures, ierr)
			warn(StageIngest, ierr)
			log.Warn("Skipping file", zap.String("file", src.Name), zap.Error(err))
			continue
		}
		res.Trace.record(Event{Stage: StageIngest, Kind: "file", File: src.Name, Message: fmt.Sprintf("read %d records", len(recs))})
		ingested = append(ingested, src.Name)
		raws = append(raws, recs...)
	}
	if len(ingested) == 0 {
		if len(failures) == 0 {
			return res, ErrNoData
		}
		return res, fmt.Errorf("%w: %w", ErrNoData, errors.Join(failures...))
	}

	recs := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, ok := norm.Normalize(raw)
		if !ok {
			warn(StageNormalize, &UnidentifiedOrderError{File: raw.File, Row: raw.Row, Label: raw.OrderLabel})
			continue
		}
		if err := mismatch(rec); err != nil {
			warn(StageClassify, err)
			if err.Excluded {
				continue
			}
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return res, fmt.Errorf("%w: no record carries an order number", ErrNoData)
	}

	totals, dims := Partition(recs)
	res.Trace.record(Event{Stage: StageClassify, Kind: "partition", Message: fmt.Sprintf("%d total rows, %d dimension rows", len(totals), len(dims))})

	aggs, warnings := Aggregate(recs)
	for _, w := range warnings {
		warn(StageAggregate, w)
	}
	res.Aggregates = aggs

	rows, warnings := Reconstruct(aggs, opts.Strategy)
	for _, w := range warnings {
		warn(StageLayout, w)
	}
	res.Rows = rows
	res.Summary = Summarize(ingested, rows, res.Warnings)

	log.Info("Reconciled",
		zap.Int("files", len(ingested)),
		zap.Int("failed", len(failures)),
		zap.Int("orders", res.Summary.Orders),
		zap.Int("rows", len(rows)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

func ingest(src Source, readers map[string]TableReader) ([]RawRecord, error) {
	t, err := readTable(src, readers)
	if err != nil {
		return nil, err
	}
	return Parse(src.Name, t)
}

func readTable(src Source, readers map[string]TableReader) (*Table, error) {
	if readers == nil {
		readers = map[string]TableReader{".csv": CSVReader(CSVOptions{})}
	}
	ext := strings.ToLower(filepath.Ext(src.Name))
	read, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return read(src.Name, rc)
}
