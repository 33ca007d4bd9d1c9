package score

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/phroun/score")

// Oracle renders a one-measure chunk and reports its size. The same chunk
// and stacking options must always produce the same measurement.
type Oracle interface {
	Measure(ctx context.Context, req MeasureRequest) (Measurement, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req MeasureRequest) (Measurement, error)

func (f OracleFunc) Measure(ctx context.Context, req MeasureRequest) (Measurement, error) {
	return f(ctx, req)
}

// Run lays s out with one measurement in flight at a time. Each request
// stacks from the offsets merged so far in the current row.
func Run(ctx context.Context, s *System, oracle Oracle, opts LayoutOptions) (v Visual, err error) {
	l := NewLayout(s, opts)
	ctx, span := startPass(ctx, "sequential", l)
	started := time.Now()
	defer func() { endPass(span, opts.Metrics, "sequential", started, err) }()

	req, more := l.Start()
	for more {
		if err := ctx.Err(); err != nil {
			return Visual{}, err
		}
		m, err := oracle.Measure(ctx, req)
		if err != nil {
			return Visual{}, fmt.Errorf("measure %d: %w", req.Ordinal, err)
		}
		if req, more, err = l.Receive(m); err != nil {
			return Visual{}, err
		}
	}
	v, _ = l.Visual()
	return v, nil
}

// RunConcurrent measures every chunk in parallel, at most workers at a time,
// stacking each from offset zero with the uniform stave gap. Results are
// then fed to the packer in measure order, so the packing is identical to a
// sequential pass over the same measurements.
func RunConcurrent(ctx context.Context, s *System, oracle Oracle, opts LayoutOptions, workers int) (v Visual, err error) {
	l := NewLayout(s, opts)
	ctx, span := startPass(ctx, "concurrent", l)
	started := time.Now()
	defer func() { endPass(span, opts.Metrics, "concurrent", started, err) }()

	requests := make([]MeasureRequest, l.MeasureCount())
	for i := range requests {
		requests[i] = MeasureRequest{
			Ordinal: i,
			Chunk:   l.src.MeasureSlice(i),
			Stack:   StackOptions{Gap: l.opts.StaveGap},
		}
	}

	if err := ctx.Err(); err != nil {
		return Visual{}, err
	}
	results := make([]Measurement, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range requests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := oracle.Measure(gctx, req)
			if err != nil {
				return fmt.Errorf("measure %d: %w", i, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Visual{}, err
	}

	_, more := l.Start()
	for i := 0; more; i++ {
		if _, more, err = l.Receive(results[i]); err != nil {
			return Visual{}, err
		}
	}
	v, _ = l.Visual()
	return v, nil
}

func startPass(ctx context.Context, driver string, l *Layout) (context.Context, trace.Span) {
	return tracer.Start(ctx, "score.layout",
		trace.WithAttributes(
			attribute.String("score.layout.driver", driver),
			attribute.String("score.root", l.src.ID),
			attribute.Int("score.measures", l.count),
			attribute.Int("score.staves", l.staves),
		))
}

func endPass(span trace.Span, m *Metrics, driver string, started time.Time, err error) {
	endSpan(span, err)
	m.pass(driver, started, err)
}
