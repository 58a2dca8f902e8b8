package scanner

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
)

// stagedStrategy materializes every matching id into a temporary relation and
// pages through it. The total is known before the first batch.
type stagedStrategy struct {
	store     contracts.ContentStore
	log       pkg.Logger
	retry     config.RetryConfig
	name      string
	batchSize int
	offset    int
	total     int
	dropped   bool
}

var _ contracts.Strategy = (*stagedStrategy)(nil)

func newStagedStrategy(ctx context.Context, store contracts.ContentStore, log pkg.Logger, retry config.RetryConfig, name string, window model.DateWindow, batchSize int) (*stagedStrategy, error) {
	st := &stagedStrategy{
		store:     store,
		log:       log,
		retry:     retry,
		name:      name,
		batchSize: batchSize,
	}

	if err := store.CreateStaging(ctx, name); err != nil {
		return nil, err
	}
	if err := st.populate(ctx, window); err != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if derr := st.Close(cctx); derr != nil {
			log.Error("Failed to drop staging table after error", "table", name, "err", derr)
		}
		return nil, err
	}
	return st, nil
}

func (st *stagedStrategy) populate(ctx context.Context, window model.DateWindow) error {
	if err := st.store.StageMatches(ctx, st.name, window); err != nil {
		return err
	}
	total, err := st.store.CountStaged(ctx, st.name)
	if err != nil {
		return err
	}
	st.total = total
	st.log.Debug("Staged matching posts", "table", st.name, "total", total)
	return nil
}

func (st *stagedStrategy) Kind() model.StrategyKind {
	return model.StrategyStaged
}

// NextBatch always reads a full batch; the scanner truncates to its limit.
func (st *stagedStrategy) NextBatch(ctx context.Context, _ int) ([]int64, bool, error) {
	if st.dropped {
		return nil, true, fmt.Errorf("staging table %s already dropped", st.name)
	}
	ids, err := fetchWithRetry(ctx, st.log, st.retry, model.StrategyStaged, st.offset, func(ctx context.Context) ([]int64, error) {
		return st.store.FetchStaged(ctx, st.name, st.offset, st.batchSize)
	})
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, true, nil
	}
	st.offset += len(ids)
	return ids, false, nil
}

func (st *stagedStrategy) TotalKnown() (int, bool) {
	return st.total, true
}

func (st *stagedStrategy) Close(ctx context.Context) error {
	if st.dropped {
		return nil
	}
	if err := st.store.DropStaging(ctx, st.name); err != nil {
		return err
	}
	st.dropped = true
	return nil
}
