package som

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// NotifyAll runs notify(item) for every item concurrently, bounded by maxConcurrency, and
// waits for all of them to finish. It is used by session.SessionObjectManager to fan out
// transactional notifications (spec §4.2 post-success cleanup, §5 "transactional
// notification fan-out to every live in-memory item") instead of confirming cached items
// one at a time.
//
// Every item is given the chance to be notified even if an earlier one fails; the first
// error encountered (if any) is returned once all notifications have completed.
func NotifyAll[T any](ctx context.Context, maxConcurrency int, items []T, notify func(ctx context.Context, item T) error) error {
	if len(items) == 0 {
		return nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxConcurrency)

	var mu sync.Mutex
	var firstErr error
	for _, item := range items {
		item := item
		sem <- struct{}{}
		eg.Go(func() error {
			defer func() { <-sem }()
			if err := notify(egCtx, item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	eg.Wait()
	return firstErr
}
