// Package pipeline composes decoding, caching, preprocessing, guarded
// recognition, and field extraction into the single Process operation
// the HTTP API exposes.
package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/telemetry-ocr/internal/cache"
	"github.com/ironsheep/telemetry-ocr/internal/extract"
	"github.com/ironsheep/telemetry-ocr/internal/imaging"
	"github.com/ironsheep/telemetry-ocr/internal/monitor"
	"github.com/ironsheep/telemetry-ocr/internal/ocr"
	"github.com/ironsheep/telemetry-ocr/internal/resilience"
)

// Result is the outcome of one extraction run. Fields holds every
// configured output key; keys with no recoverable value are nil.
type Result struct {
	Fields       map[string]*string `json:"fields"`
	RawFragments []string           `json:"raw_fragments"`
	Engine       string             `json:"engine"`
	ElapsedMs    float64            `json:"elapsed_ms"`
	CacheHit     bool               `json:"cache_hit"`
}

// Processor runs extraction requests end to end. Safe for concurrent
// use; the field mapping can be swapped at runtime via SetMapping.
type Processor struct {
	rec       ocr.Recognizer
	extractor *extract.Extractor
	breaker   *resilience.Breaker
	policy    resilience.Policy
	pool      *resilience.Pool
	mon       *monitor.Monitor
	results   *cache.Cache // nil disables caching
	maxDim    int
	log       *slog.Logger

	mu      sync.RWMutex
	mapping extract.Mapping
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache enables result caching. A nil cache leaves caching off.
func WithCache(c *cache.Cache) Option {
	return func(p *Processor) { p.results = c }
}

// WithBreaker sets the circuit breaker guarding the recognition engine.
func WithBreaker(b *resilience.Breaker) Option {
	return func(p *Processor) { p.breaker = b }
}

// WithRetryPolicy sets the retry policy for failed recognitions.
func WithRetryPolicy(pol resilience.Policy) Option {
	return func(p *Processor) { p.policy = pol }
}

// WithPool sets the worker pool bounding concurrent recognitions.
func WithPool(pool *resilience.Pool) Option {
	return func(p *Processor) { p.pool = pool }
}

// WithMonitor sets the performance monitor recording recognition calls.
func WithMonitor(m *monitor.Monitor) Option {
	return func(p *Processor) { p.mon = m }
}

// WithMaxImageSize caps the longest frame edge before recognition.
func WithMaxImageSize(px int) Option {
	return func(p *Processor) { p.maxDim = px }
}

// WithLogger sets the processor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.log = logger }
}

// New creates a processor around a recognizer, extractor, and field
// mapping. Without options the processor runs uncached with a default
// breaker, retry policy, pool, and monitor.
func New(rec ocr.Recognizer, ex *extract.Extractor, mapping extract.Mapping, opts ...Option) *Processor {
	p := &Processor{
		rec:       rec,
		extractor: ex,
		mapping:   mapping,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	if p.breaker == nil {
		p.breaker = resilience.NewBreaker("ocr")
	}
	if p.pool == nil {
		p.pool = resilience.NewPool(2, 30*time.Second)
	}
	if p.mon == nil {
		p.mon = monitor.New(100)
	}
	return p
}

// Mapping returns a copy of the current field mapping.
func (p *Processor) Mapping() extract.Mapping {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fields := make([]extract.Field, len(p.mapping.Fields))
	copy(fields, p.mapping.Fields)
	return extract.Mapping{Fields: fields}
}

// SetMapping replaces the field mapping for subsequent requests.
// In-flight requests keep the mapping they started with.
func (p *Processor) SetMapping(m extract.Mapping) {
	p.mu.Lock()
	p.mapping = m
	p.mu.Unlock()
}

// Process extracts configured fields from a frame. The region, when
// non-empty, restricts recognition to that part of the frame and caches
// its results independently from other regions of the same frame.
//
// Recognition failures surface as errors; fields that merely could not
// be matched in recognized text come back as nil values, not errors.
func (p *Processor) Process(ctx context.Context, img image.Image, region imaging.Region) (*Result, error) {
	start := time.Now()
	mapping := p.Mapping()

	var key string
	if p.results != nil {
		regionKey := ""
		if !region.Empty() {
			regionKey = region.Key()
		}
		key = cache.Key(imaging.Hash(img), regionKey)
		if payload, ok := p.results.Get(key); ok {
			var r Result
			if err := json.Unmarshal(payload, &r); err == nil {
				r.CacheHit = true
				r.ElapsedMs = elapsedMs(start)
				p.log.Debug("served from cache", "key", key)
				return &r, nil
			}
			// An unreadable payload is treated as a miss.
			p.log.Warn("discarding unreadable cache payload", "key", key)
		}
	}

	work := img
	if !region.Empty() {
		cropped, err := imaging.CropRegion(img, region)
		if err != nil {
			return nil, err
		}
		work = cropped
	}
	work = imaging.Preprocess(work, p.maxDim)

	frags, err := p.recognize(ctx, work)
	if err != nil {
		return nil, err
	}

	raw := make([]string, len(frags))
	for i, f := range frags {
		raw[i] = f.Text
	}
	result := &Result{
		Fields:       p.extractor.ExtractAll(frags, mapping),
		RawFragments: raw,
		Engine:       p.rec.Name(),
		ElapsedMs:    elapsedMs(start),
	}

	if p.results != nil {
		if payload, err := json.Marshal(result); err == nil {
			p.results.Set(key, payload)
		}
	}
	return result, nil
}

// recognize runs the guarded recognition call: retry around breaker
// around the pooled, deadline-bound engine call.
func (p *Processor) recognize(ctx context.Context, img image.Image) ([]ocr.Fragment, error) {
	var frags []ocr.Fragment
	ocrStart := time.Now()
	err := resilience.Do(ctx, p.policy, p.log, "recognize", func(ctx context.Context) error {
		if !p.breaker.Allow() {
			return &resilience.CircuitOpenError{Name: "ocr"}
		}
		var attempt []ocr.Fragment
		runErr := p.pool.Run(ctx, "recognize", func(ctx context.Context) error {
			f, err := p.rec.Recognize(ctx, img)
			if err != nil {
				return err
			}
			attempt = f
			return nil
		})
		if runErr != nil {
			p.breaker.RecordFailure()
			return runErr
		}
		p.breaker.RecordSuccess()
		frags = attempt
		return nil
	})
	p.mon.Record(time.Since(ocrStart), err == nil)
	return frags, err
}

// Stats aggregates the state of the processor's moving parts for the
// diagnostics endpoint.
type Stats struct {
	OCR     monitor.Stats `json:"ocr"`
	Cache   *cache.Stats  `json:"cache,omitempty"`
	Breaker BreakerStats  `json:"breaker"`
}

// BreakerStats reports circuit breaker state.
type BreakerStats struct {
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// Stats snapshots recognition performance, cache effectiveness, and
// breaker state.
func (p *Processor) Stats() Stats {
	s := Stats{
		OCR: p.mon.Stats(),
		Breaker: BreakerStats{
			State:    p.breaker.State().String(),
			Failures: p.breaker.Failures(),
		},
	}
	if p.results != nil {
		cs := p.results.Stats()
		s.Cache = &cs
	}
	return s
}

// Health reports the monitor's verdict over recent recognition calls.
func (p *Processor) Health() monitor.Health {
	return p.mon.Health()
}

// ClearCache drops all cached results. A no-op when caching is off.
func (p *Processor) ClearCache() error {
	if p.results == nil {
		return nil
	}
	return p.results.Clear()
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
