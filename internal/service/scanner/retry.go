package scanner

import (
	"context"
	"time"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// fetchWithRetry runs fetch up to cfg.MaxRetries+1 times. Each attempt reads
// the same offset, so a retried batch cannot emit an id twice.
func fetchWithRetry(ctx context.Context, log pkg.Logger, cfg config.RetryConfig, kind model.StrategyKind, offset int, fetch func(ctx context.Context) ([]int64, error)) ([]int64, error) {
	base := cfg.Backoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.NewExponential(base))

	var ids []int64
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		got, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			log.Warn("Batch fetch failed", "strategy", kind, "offset", offset, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		ids = got
		return nil
	})
	if err != nil {
		return nil, &model.BatchError{Strategy: kind, Offset: offset, Err: err}
	}
	return ids, nil
}
