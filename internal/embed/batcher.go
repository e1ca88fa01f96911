package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"docqa/internal/retry"
)

const (
	DefaultBatchSize   = 20
	DefaultConcurrency = 5
)

// Service is one upstream embedding call: texts in, vectors out, same order.
type Service interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Batcher fans texts out to the embedding service in fixed-size batches under
// a bounded worker pool. The pool cap is the system's rate/memory limit
// against the upstream service; each batch call is retried once on transient
// failure before the error fails the whole operation.
type Batcher struct {
	svc     Service
	size    int
	workers int
	policy  retry.Policy
}

func NewBatcher(svc Service, batchSize, concurrency int) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Batcher{
		svc:     svc,
		size:    batchSize,
		workers: concurrency,
		policy:  retry.Policy{Attempts: 2, Backoff: 500 * time.Millisecond},
	}
}

// EmbedBatch embeds all texts and returns vectors in input order. It issues
// ceil(len(texts)/batchSize) upstream calls with at most the configured
// number in flight. The first batch to exhaust its retry budget fails the
// call; a shape or dimension error is not retried at all.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for start := 0; start < len(texts); start += b.size {
		end := start + b.size
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			var vecs [][]float32
			err := b.policy.Do(ctx, func(ctx context.Context) error {
				v, err := b.svc.Embed(ctx, texts[start:end])
				if err != nil {
					if errors.Is(err, ErrBadShape) || errors.Is(err, ErrDimension) {
						return retry.Permanent(err)
					}
					return err
				}
				vecs = v
				return nil
			})
			if err != nil {
				return fmt.Errorf("embed batch %d..%d: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed batch %d..%d: %w: got %d vectors", start, end, ErrBadShape, len(vecs))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedOne is the single-text path used at query time.
func (b *Batcher) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
