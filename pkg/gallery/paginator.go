package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Sink materializes a batch of images. The aggregator never renders anything itself.
type Sink interface {
	Render(ctx context.Context, images []ImageResult) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, images []ImageResult) error

func (f SinkFunc) Render(ctx context.Context, images []ImageResult) error {
	return f(ctx, images)
}

// WriterSink writes one URL per line.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Render(_ context.Context, images []ImageResult) error {
	for _, img := range images {
		if _, err := fmt.Fprintln(s.w, img); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
	}
	return nil
}

// Paginator turns "load more" triggers into aggregator fetches and hands
// non-empty batches to a sink.
type Paginator struct {
	aggregator *Aggregator
	count      int
	logger     *zerolog.Logger
}

func NewPaginator(aggregator *Aggregator, count int, logger *zerolog.Logger) *Paginator {
	return &Paginator{
		aggregator: aggregator,
		count:      count,
		logger:     logger,
	}
}

func (p *Paginator) PageSize() int {
	return p.count
}

// LoadMore fetches the next batch and renders it.
// A trigger that arrives while a fetch is in flight is dropped with ErrFetchInProgress.
// Empty batches are returned but not rendered.
func (p *Paginator) LoadMore(ctx context.Context, sink Sink) (*Batch, error) {
	return p.LoadCount(ctx, p.count, sink)
}

// LoadCount is LoadMore with an explicit batch size.
func (p *Paginator) LoadCount(ctx context.Context, count int, sink Sink) (*Batch, error) {
	batch, err := p.aggregator.Fetch(ctx, Request{Count: count})
	if err != nil {
		if errors.Is(err, ErrFetchInProgress) {
			p.logger.Debug().Msg("Dropped load trigger, fetch in progress")
		}
		return nil, err
	}

	if len(batch.Images) == 0 {
		p.logger.Info().
			Int("page", batch.Page).
			Msg("Gallery exhausted")
		return batch, nil
	}

	if err := sink.Render(ctx, batch.Images); err != nil {
		return batch, fmt.Errorf("render batch: %w", err)
	}

	return batch, nil
}
