package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"kastelo.dev/yield"
	"kastelo.dev/yield/config"
	"kastelo.dev/yield/excel"
	"kastelo.dev/yield/server"
	"kastelo.dev/yield/sink"
)

func main() {
	app := kingpin.New("yield-report", "Monthly yield analysis of sawmill daily reports")
	cfgFile := app.Flag("config", "Configuration file (TOML or YAML)").Envar("YIELD_CONFIG").String()
	refFile := app.Flag("reference", "Reference table of expected dimensions").String()
	verbose := app.Flag("verbose", "Log debug output").Short('v').Bool()

	cmdReport := app.Command("report", "Write the monthly analysis workbook")
	reportFiles := cmdReport.Arg("files", "Daily reports (xlsx or csv)").Required().ExistingFiles()
	reportOut := cmdReport.Flag("output", "Output file; derived from the report dates when empty").Short('o').String()

	cmdCSV := app.Command("csv", "Write the monthly table as CSV to stdout")
	csvFiles := cmdCSV.Arg("files", "Daily reports (xlsx or csv)").Required().ExistingFiles()

	cmdVerify := app.Command("verify", "Compare the monthly table against a baseline CSV")
	verifyBaseline := cmdVerify.Flag("baseline", "Baseline CSV").Required().ExistingFile()
	verifyFiles := cmdVerify.Arg("files", "Daily reports (xlsx or csv)").Required().ExistingFiles()

	cmdExport := app.Command("export", "Store the monthly table in the database")
	exportFiles := cmdExport.Arg("files", "Daily reports (xlsx or csv)").Required().ExistingFiles()

	cmdServe := app.Command("serve", "Serve reconciliation over HTTP")
	serveAddr := cmdServe.Flag("addr", "Listen address").String()
	serveStore := cmdServe.Flag("store", "Store every run in the database").Bool()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Loading configuration:", err)
		os.Exit(2)
	}
	if *refFile != "" {
		cfg.Reference.File = *refFile
	}

	log, err := newLogger(cfg.Log.Mode, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Creating logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	t := &tool{cfg: cfg, log: log}
	switch cmd {
	case cmdReport.FullCommand():
		err = t.report(*reportFiles, *reportOut)
	case cmdCSV.FullCommand():
		err = t.csv(*csvFiles)
	case cmdVerify.FullCommand():
		err = t.verify(*verifyFiles, *verifyBaseline)
	case cmdExport.FullCommand():
		err = t.export(*exportFiles)
	case cmdServe.FullCommand():
		err = t.serve(*serveAddr, *serveStore)
	}

	var diff *diffError
	switch {
	case errors.As(err, &diff):
		fmt.Print(diff.patch)
		os.Exit(1)
	case err != nil:
		log.Fatal("Failed", zap.String("command", cmd), zap.Error(err))
	}
}

func newLogger(mode string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if mode == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

type tool struct {
	cfg *config.Config
	log *zap.Logger
}

func (t *tool) readers() map[string]yield.TableReader {
	return excel.Readers(t.cfg.Input.Sheet, t.cfg.CSV())
}

func (t *tool) options() (yield.Options, error) {
	opts := yield.Options{
		Readers:    t.readers(),
		Normalizer: yield.NewNormalizer(t.cfg.Input.Boilerplate...),
		Logger:     t.log,
	}
	ref, err := t.reference()
	if err != nil {
		return opts, err
	}
	if len(ref) > 0 {
		opts.Strategy = yield.ReferenceJoin{Reference: ref}
	}
	return opts, nil
}

func (t *tool) reference() ([]yield.ReferenceDimension, error) {
	if t.cfg.Reference.File == "" {
		return nil, nil
	}
	ref, err := yield.LoadReference(yield.FileSource(t.cfg.Reference.File), t.readers())
	if err != nil {
		return nil, err
	}
	t.log.Info("Loaded reference dimensions", zap.String("file", t.cfg.Reference.File), zap.Int("dimensions", len(ref)))
	return ref, nil
}

func (t *tool) run(files []string) (*yield.Result, error) {
	opts, err := t.options()
	if err != nil {
		return nil, err
	}
	sources := make([]yield.Source, len(files))
	for i, f := range files {
		sources[i] = yield.FileSource(f)
	}
	res, err := yield.Run(sources, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		t.log.Warn("Reconciliation warning", zap.String("kind", yield.WarningKind(w)), zap.Error(w))
	}
	return res, nil
}

func (t *tool) report(files []string, out string) error {
	res, err := t.run(files)
	if err != nil {
		return err
	}
	bs, err := excel.ResultXLSX(res, t.cfg.Output.Sheet)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	if out == "" {
		out = t.cfg.OutputPath(res.Summary.FileName())
	}
	if err := os.WriteFile(out, bs, 0o644); err != nil {
		return err
	}
	t.log.Info("Wrote workbook",
		zap.String("file", out),
		zap.String("period", res.Summary.Range()),
		zap.String("input", yield.Volume(res.Summary.TotalInputVolume)),
	)
	return nil
}

func (t *tool) csv(files []string) error {
	res, err := t.run(files)
	if err != nil {
		return err
	}
	return yield.WriteCSV(os.Stdout, res.Rows)
}

func (t *tool) export(files []string) error {
	res, err := t.run(files)
	if err != nil {
		return err
	}
	db, err := sink.Open(t.cfg.Database.Driver, t.cfg.Database.DSN, t.cfg.Database.Table, t.log)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Write(context.Background(), res.RunID, res.Rows)
}

func (t *tool) serve(addr string, store bool) error {
	if addr == "" {
		addr = t.cfg.Server.Addr
	}
	ref, err := t.reference()
	if err != nil {
		return err
	}

	opts := server.Options{
		Readers:    t.readers(),
		Normalizer: yield.NewNormalizer(t.cfg.Input.Boilerplate...),
		Reference:  ref,
		Sheet:      t.cfg.Output.Sheet,
		MaxUpload:  t.cfg.Server.MaxUpload << 20,
		Logger:     t.log,
	}
	if store {
		db, err := sink.Open(t.cfg.Database.Driver, t.cfg.Database.DSN, t.cfg.Database.Table, t.log)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Sink = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return server.New(opts).ListenAndServe(ctx, addr)
}

func (t *tool) verify(files []string, baseline string) error {
	res, err := t.run(files)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := yield.WriteCSV(&buf, res.Rows); err != nil {
		return err
	}
	want, err := os.ReadFile(baseline)
	if err != nil {
		return err
	}
	return compare(baseline, want, buf.Bytes())
}
