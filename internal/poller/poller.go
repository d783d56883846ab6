// Package poller reads a fixed set of PLC variables on an interval and publishes changed values.
package poller

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
)

// Reader abstracts the variable read the poller needs.
type Reader interface {
	ReadVariable(ctx context.Context, v sscp.Variable) (any, error)
}

// Sink receives the samples whose value changed.
type Sink interface {
	Publish(ctx context.Context, s Sample) error
}

// Item is a named variable polled every cycle.
type Item struct {
	Name     string
	Variable sscp.Variable
}

// Sample is the last known state of an item.
type Sample struct {
	Name     string
	Variable sscp.Variable
	// Value is the last successfully read value, nil if no read succeeded yet.
	Value any
	// At is the time Value was read.
	At time.Time
	// Err is the error of the latest read, nil if it succeeded.
	Err error
	// Changed reports whether the latest read changed Value.
	Changed bool
}

// Config is the runtime configuration of a poller.
type Config struct {
	Interval time.Duration
	Items    []Item
}

// Poller is a clock-driven reader. Each cycle reads every item once, in order.
type Poller struct {
	cfg    Config
	reader Reader
	sinks  []Sink
	logger logger.Logger
	values *xsync.MapOf[string, Sample]
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader, l logger.Logger, sinks ...Sink) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Items) == 0 {
		return nil, errors.New("poller: at least one item required")
	}
	if reader == nil {
		return nil, errors.New("poller: reader is nil")
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &Poller{
		cfg:    cfg,
		reader: reader,
		sinks:  sinks,
		logger: l.With("component", "poller"),
		values: xsync.NewMapOf[string, Sample](),
	}, nil
}

// PollOnce performs exactly one poll cycle and returns the samples of every item.
//
// A failed read keeps the previous value of the item and records the error. Changed samples
// are published to every sink.
func (p *Poller) PollOnce(ctx context.Context) []Sample {
	samples := make([]Sample, 0, len(p.cfg.Items))

	for _, item := range p.cfg.Items {
		if ctx.Err() != nil {
			break
		}

		sample := p.poll(ctx, item)
		samples = append(samples, sample)

		if sample.Changed {
			p.publish(ctx, sample)
		}
	}

	return samples
}

// Run polls immediately, then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		p.PollOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Last returns the last known sample of the item name.
func (p *Poller) Last(name string) (Sample, bool) {
	return p.values.Load(name)
}

// Snapshot returns the last known samples sorted by name.
func (p *Poller) Snapshot() []Sample {
	samples := make([]Sample, 0, p.values.Size())
	p.values.Range(func(_ string, s Sample) bool {
		samples = append(samples, s)
		return true
	})

	slices.SortFunc(samples, func(a, b Sample) int {
		return strings.Compare(a.Name, b.Name)
	})

	return samples
}

func (p *Poller) poll(ctx context.Context, item Item) Sample {
	val, err := p.reader.ReadVariable(ctx, item.Variable)

	sample, _ := p.values.Compute(item.Name, func(prev Sample, loaded bool) (Sample, bool) {
		if err != nil {
			prev.Name = item.Name
			prev.Variable = item.Variable
			prev.Err = err
			prev.Changed = false

			return prev, false
		}

		return Sample{
			Name:     item.Name,
			Variable: item.Variable,
			Value:    val,
			At:       time.Now(),
			Changed:  !loaded || !sameValue(prev.Value, val),
		}, false
	})

	if err != nil {
		p.logger.Warn("failed to read variable, keep previous value",
			"name", item.Name,
			"variable", item.Variable,
			"error", err,
		)
	}

	return sample
}

// sameValue compares decoded values. A NaN equals another NaN of the same width,
// otherwise a NaN variable would be reported as changed on every cycle.
func sameValue(a, b any) bool {
	switch av := a.(type) {
	case float32:
		if bv, ok := b.(float32); ok && math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
			return true
		}
	case float64:
		if bv, ok := b.(float64); ok && math.IsNaN(av) && math.IsNaN(bv) {
			return true
		}
	}

	return a == b
}

func (p *Poller) publish(ctx context.Context, s Sample) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			p.logger.Warn("failed to publish sample", "name", s.Name, "error", err)
		}
	}
}
