// Package services owns uploaded dataset sessions: decoding, analysis,
// result caching and retention.
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"insight-dashboard/internal/analysis"
	"insight-dashboard/internal/errors"
	"insight-dashboard/internal/ingest"
	"insight-dashboard/internal/models"
	"insight-dashboard/internal/observability"
)

const (
	cacheVersion  = "v1"
	sweepInterval = time.Minute
)

type Options struct {
	MaxRows    int
	SampleSize int
	// CacheDir holds gob-encoded analysis results keyed by content digest.
	// Empty disables the disk cache.
	CacheDir string
	// Retention is how long a session is kept after upload. Zero keeps
	// sessions forever and starts no janitor.
	Retention time.Duration
	Logger    *slog.Logger
}

type Session struct {
	ID         string                `json:"id"`
	FileName   string                `json:"fileName"`
	Headers    []string              `json:"headers"`
	RowCount   int                   `json:"rowCount"`
	Digest     string                `json:"digest"`
	UploadedAt time.Time             `json:"uploadedAt"`
	Analysis   models.AnalysisResult `json:"analysis"`

	dataset *models.Dataset
}

// Dataset returns the decoded rows the session was analysed from.
func (s *Session) Dataset() *models.Dataset {
	return s.dataset
}

type Stats struct {
	Sessions  int       `json:"sessions"`
	Uploads   int64     `json:"uploads"`
	CacheHits int64     `json:"cache_hits"`
	LatestID  string    `json:"latest_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

type Analytics struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	latest   string

	opts      Options
	logger    *slog.Logger
	startedAt time.Time

	uploads   atomic.Int64
	cacheHits atomic.Int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewAnalytics(opts Options) *Analytics {
	if opts.MaxRows <= 0 {
		opts.MaxRows = ingest.DefaultMaxRows
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = analysis.DefaultSampleSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analytics{
		sessions:  make(map[string]*Session),
		opts:      opts,
		logger:    logger,
		startedAt: time.Now().UTC(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if opts.Retention > 0 {
		go a.janitor()
	} else {
		close(a.done)
	}

	return a
}

// Upload decodes and analyses an uploaded file and stores it as a new
// session, which also becomes the latest one.
func (a *Analytics) Upload(ctx context.Context, filename string, r io.Reader) (*Session, error) {
	ctx, span := observability.StartSpan(ctx, "upload")
	span.SetTag("file", filename)
	logger := observability.LoggerFrom(ctx, a.logger)

	session, err := a.upload(ctx, filename, r)
	span.End(logger, err)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.sessions[session.ID] = session
	a.latest = session.ID
	a.mu.Unlock()
	a.uploads.Add(1)

	logger.Info("dataset uploaded",
		"id", session.ID,
		"file", session.FileName,
		"rows", session.RowCount,
		"columns", len(session.Headers),
		"kpis", len(session.Analysis.KPIs),
		"charts", len(session.Analysis.Charts),
	)

	return session, nil
}

func (a *Analytics) upload(ctx context.Context, filename string, r io.Reader) (*Session, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.BadRequestWrap(err, "Failed to read uploaded file.")
	}

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	ds, err := ingest.Decode(ctx, filename, bytes.NewReader(content), ingest.Limits{MaxRows: a.opts.MaxRows})
	if err != nil {
		return nil, err
	}

	result, err := a.analyzeCached(ctx, digest, ds)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:         uuid.NewString(),
		FileName:   ds.FileName,
		Headers:    ds.Headers,
		RowCount:   ds.RowCount,
		Digest:     digest,
		UploadedAt: time.Now().UTC(),
		Analysis:   result,
		dataset:    ds,
	}, nil
}

// LoadFile uploads a file from disk, as done for the startup preload.
func (a *Analytics) LoadFile(ctx context.Context, path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return a.Upload(ctx, filepath.Base(path), f)
}

func (a *Analytics) analyzeCached(ctx context.Context, digest string, ds *models.Dataset) (models.AnalysisResult, error) {
	if cached, err := a.loadFromCache(digest); err == nil {
		a.cacheHits.Add(1)
		a.logger.Debug("analysis loaded from cache", "digest", digest)
		return cached, nil
	}

	result, err := a.Analyze(ctx, ds)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if err := a.saveToCache(digest, result); err != nil {
		a.logger.Warn("failed to save cache", "error", err)
	}
	return result, nil
}

// Analyze classifies the dataset once and then builds KPIs and charts
// concurrently. Both syntheses only read the dataset.
func (a *Analytics) Analyze(ctx context.Context, ds *models.Dataset) (models.AnalysisResult, error) {
	ctx, span := observability.StartSpan(ctx, "analyze")
	span.SetTag("rows", strconv.Itoa(ds.RowCount))
	logger := observability.LoggerFrom(ctx, a.logger)

	result, err := a.analyze(ctx, ds)
	span.End(logger, err)
	return result, err
}

func (a *Analytics) analyze(ctx context.Context, ds *models.Dataset) (models.AnalysisResult, error) {
	if len(ds.Rows) == 0 {
		return models.EmptyResult(), nil
	}

	cols := analysis.Classify(ds.Headers, ds.Rows, analysis.WithSampleSize(a.opts.SampleSize))

	var (
		kpis   []models.KPI
		charts []models.ChartConfig
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis = analysis.SynthesizeKPIs(*ds, cols)
		return ctx.Err()
	})
	g.Go(func() error {
		charts = analysis.SynthesizeCharts(*ds, cols)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return models.AnalysisResult{}, err
	}

	return models.AnalysisResult{KPIs: kpis, Charts: charts, Columns: cols}, nil
}

func (a *Analytics) Get(id string) (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	session, ok := a.sessions[id]
	if !ok {
		return nil, errors.NotFound("Dataset not found or expired.")
	}
	return session, nil
}

// Latest returns the most recently uploaded session still retained.
func (a *Analytics) Latest() (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	session, ok := a.sessions[a.latest]
	if !ok {
		return nil, errors.NotFound("No dataset has been uploaded yet.")
	}
	return session, nil
}

func (a *Analytics) Summary(id string) (models.DatasetSummary, error) {
	session, err := a.Get(id)
	if err != nil {
		return models.DatasetSummary{}, err
	}
	return analysis.Summarize(*session.dataset, session.Analysis.Columns), nil
}

func (a *Analytics) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		Sessions:  len(a.sessions),
		Uploads:   a.uploads.Load(),
		CacheHits: a.cacheHits.Load(),
		StartedAt: a.startedAt,
	}
	if _, ok := a.sessions[a.latest]; ok {
		stats.LatestID = a.latest
	}
	return stats
}

// Close stops the retention janitor. It is safe to call more than once.
func (a *Analytics) Close() error {
	a.closeOnce.Do(func() {
		close(a.stop)
	})
	<-a.done
	return nil
}

func (a *Analytics) janitor() {
	defer close(a.done)

	ticker := time.NewTicker(min(a.opts.Retention, sweepInterval))
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case now := <-ticker.C:
			if n := a.sweep(now); n > 0 {
				a.logger.Info("expired datasets removed", "count", n)
			}
		}
	}
}

// sweep drops sessions uploaded more than Retention before now.
func (a *Analytics) sweep(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for id, session := range a.sessions {
		if now.Sub(session.UploadedAt) > a.opts.Retention {
			delete(a.sessions, id)
			removed++
		}
	}
	return removed
}

// Cache management. The sample size is part of the key because it changes
// classification.
func (a *Analytics) cacheFilename(digest string) string {
	name := fmt.Sprintf("%s_%s_s%d.gob", digest, cacheVersion, a.opts.SampleSize)
	return filepath.Join(a.opts.CacheDir, name)
}

func (a *Analytics) saveToCache(digest string, result models.AnalysisResult) error {
	if a.opts.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.opts.CacheDir, 0755); err != nil {
		return err
	}

	// Concurrent uploads of the same file may race here, so write aside and rename.
	file, err := os.CreateTemp(a.opts.CacheDir, "result-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(file.Name())

	if err := gob.NewEncoder(file).Encode(result); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(file.Name(), a.cacheFilename(digest))
}

func (a *Analytics) loadFromCache(digest string) (models.AnalysisResult, error) {
	if a.opts.CacheDir == "" {
		return models.AnalysisResult{}, os.ErrNotExist
	}

	file, err := os.Open(a.cacheFilename(digest))
	if err != nil {
		return models.AnalysisResult{}, err
	}
	defer file.Close()

	var result models.AnalysisResult
	if err := gob.NewDecoder(file).Decode(&result); err != nil {
		return models.AnalysisResult{}, err
	}
	return withEmptySlices(result), nil
}

// withEmptySlices restores the empty slices gob decodes as nil, so cached
// results encode to JSON exactly like fresh ones.
func withEmptySlices(r models.AnalysisResult) models.AnalysisResult {
	if r.KPIs == nil {
		r.KPIs = []models.KPI{}
	}
	if r.Charts == nil {
		r.Charts = []models.ChartConfig{}
	}
	if r.Columns.Numeric == nil {
		r.Columns.Numeric = []string{}
	}
	if r.Columns.Categorical == nil {
		r.Columns.Categorical = []string{}
	}
	if r.Columns.Date == nil {
		r.Columns.Date = []string{}
	}
	for i := range r.Charts {
		if r.Charts[i].Series == nil {
			r.Charts[i].Series = []models.SeriesPoint{}
		}
	}
	return r
}
