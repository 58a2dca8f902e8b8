package scanner

import (
	"context"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
)

// directStrategy re-runs the filtered query with a moving OFFSET. It relies
// on the store returning the same order for an unchanged predicate.
type directStrategy struct {
	store     contracts.ContentStore
	log       pkg.Logger
	retry     config.RetryConfig
	window    model.DateWindow
	batchSize int
	offset    int
}

var _ contracts.Strategy = (*directStrategy)(nil)

func newDirectStrategy(store contracts.ContentStore, log pkg.Logger, retry config.RetryConfig, window model.DateWindow, batchSize int) *directStrategy {
	return &directStrategy{
		store:     store,
		log:       log,
		retry:     retry,
		window:    window,
		batchSize: batchSize,
	}
}

func (d *directStrategy) Kind() model.StrategyKind {
	return model.StrategyDirect
}

// NextBatch shrinks the window to want so a limit is never over-fetched.
func (d *directStrategy) NextBatch(ctx context.Context, want int) ([]int64, bool, error) {
	size := d.batchSize
	if want > 0 && want < size {
		size = want
	}
	ids, err := fetchWithRetry(ctx, d.log, d.retry, model.StrategyDirect, d.offset, func(ctx context.Context) ([]int64, error) {
		return d.store.FetchMatches(ctx, d.window, d.offset, size)
	})
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, true, nil
	}
	d.offset += len(ids)
	return ids, false, nil
}

func (d *directStrategy) TotalKnown() (int, bool) {
	return 0, false
}

func (d *directStrategy) Close(context.Context) error {
	return nil
}
