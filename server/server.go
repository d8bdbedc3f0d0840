// Package server exposes reconciliation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"kastelo.dev/yield"
	"kastelo.dev/yield/excel"
)

// A Sink stores the rows of a run, e.g. *sink.SQL.
type Sink interface {
	Write(ctx context.Context, runID string, rows []yield.Row) error
}

type Options struct {
	Readers    map[string]yield.TableReader
	Normalizer *yield.Normalizer
	// Reference applies to every request that does not upload its own.
	Reference []yield.ReferenceDimension
	Sheet     string
	// MaxUpload bounds the size of a request body in bytes.
	MaxUpload int64
	Sink      Sink
	Logger    *zap.Logger
}

type Server struct {
	opts   Options
	log    *zap.Logger
	router *gin.Engine
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 32 << 20
	}

	s := &Server{
		opts:   opts,
		log:    opts.Logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.accessLog)
	s.router.MaxMultipartMemory = opts.MaxUpload

	s.router.GET("/healthz", s.health)
	api := s.router.Group("/api/v1")
	{
		api.POST("/reconcile", s.reconcile)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Info("Listening", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) accessLog(c *gin.Context) {
	t0 := time.Now()
	c.Next()
	s.log.Info("Request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("duration", time.Since(t0)),
	)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) reconcile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUpload)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	sources := make([]yield.Source, 0, len(files))
	for _, fh := range files {
		src, err := upload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sources = append(sources, src)
	}

	reference := s.opts.Reference
	if refs := form.File["reference"]; len(refs) > 0 {
		src, err := upload(refs[0])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		reference, err = yield.LoadReference(src, s.opts.Readers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference: " + err.Error()})
			return
		}
	}

	opts := yield.Options{
		Readers:    s.opts.Readers,
		Normalizer: s.opts.Normalizer,
		Logger:     s.log,
	}
	if len(reference) > 0 {
		opts.Strategy = yield.ReferenceJoin{Reference: reference}
	}

	res, err := yield.Run(sources, opts)
	if errors.Is(err, yield.ErrNoData) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "files": fileReports(res.Files)})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.opts.Sink != nil {
		if err := s.opts.Sink.Write(c.Request.Context(), res.RunID, res.Rows); err != nil {
			s.log.Error("Storing rows", zap.String("run", res.RunID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store: " + err.Error()})
			return
		}
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, newResponse(res))
		return
	}

	data, err := excel.ResultXLSX(res, s.opts.Sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", res.Summary.FileName()))
	c.Header("X-Run-Id", res.RunID)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func upload(fh *multipart.FileHeader) (yield.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return yield.Source{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return yield.Source{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return yield.BytesSource(fh.Filename, data), nil
}
