package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, c *models.Candle) error
}

// RealtimePipeline is a middleware between the kline stream and the backend.
// It validates, drops out-of-order buckets, optionally transforms, and
// buffers when downstream is unavailable. Keeping buckets monotonic here is
// what lets the candle store promise strictly increasing series downstream.
type RealtimePipeline struct {
	proc       Proc
	metrics    domrepo.Metrics
	bufSize    int
	bufCh      chan *models.Candle
	stopCh     chan struct{}
	started    bool
	mu         sync.Mutex
	lastBucket map[string]time.Time // per-symbol last accepted candle bucket
	// simple format transform hook (optional)
	transform func(*models.Candle) *models.Candle
	// metrics
	bufDepthGauge func(int)
	staleWarn     func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify candle format.
func WithTransform(fn func(*models.Candle) *models.Candle) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:       proc,
		metrics:    metrics,
		bufSize:    1000, // default buffer
		bufCh:      make(chan *models.Candle, 1000),
		stopCh:     make(chan struct{}),
		lastBucket: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Candle, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.staleWarn = func(sym string) { p.metrics.RecordError("pipeline_stale_" + sym) }
	return p
}

// Start launches background flushing of buffered candles.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case c := <-p.bufCh:
				if c == nil {
					continue
				}
				if err := p.proc.Process(ctx, c); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- c:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, guards bucket order, and forwards the candle to
// downstream, buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, c *models.Candle) error {
	start := time.Now()
	if err := validateCandle(c); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		c = p.transform(c)
		if err := validateCandle(c); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.accept(c.Symbol, c.Bucket) {
		// stale or duplicate bucket; record and drop silently
		p.metrics.RecordError("pipeline_stale")
		if p.staleWarn != nil {
			p.staleWarn(c.Symbol)
		}
		return nil
	}

	if err := p.proc.Process(ctx, c); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- c:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateCandle(c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle nil")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if c.Bucket.IsZero() {
		return fmt.Errorf("bucket invalid")
	}
	if c.High < c.Low {
		return fmt.Errorf("high below low")
	}
	if c.Open < 0 || c.Close < 0 || c.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

// accept enforces strictly increasing buckets per symbol. Exchange
// websockets resend the same closed kline and replay on reconnect; only the
// first copy of each bucket goes downstream.
func (p *RealtimePipeline) accept(symbol string, bucket time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastBucket[symbol]
	if !last.IsZero() && !bucket.After(last) {
		return false
	}
	p.lastBucket[symbol] = bucket
	return true
}
