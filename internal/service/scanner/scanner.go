package scanner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/google/uuid"
)

const (
	stagingInfix   = "tmp_anchor_search_"
	cleanupTimeout = 10 * time.Second
)

type Options struct {
	// TablePrefix is prepended to staging relation names.
	TablePrefix string
	Retry       config.RetryConfig
}

type Scanner struct {
	store    contracts.ContentStore
	log      pkg.Logger
	progress contracts.ProgressReporter
	opts     Options
	now      func() time.Time
	newName  func() string
}

func NewScanner(store contracts.ContentStore, log pkg.Logger, progress contracts.ProgressReporter, opts Options) *Scanner {
	s := &Scanner{
		store:    store,
		log:      log,
		progress: progress,
		opts:     opts,
		now:      time.Now,
	}
	s.newName = func() string {
		return s.opts.TablePrefix + stagingInfix + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return s
}

// Capabilities probes the store once by creating and dropping a throwaway
// temporary relation.
func (s *Scanner) Capabilities(ctx context.Context, probeName string) model.StoreCapabilities {
	err := s.store.ProbeStaging(ctx, probeName)
	if err != nil {
		if !errors.Is(err, model.ErrStagingUnsupported) {
			s.log.Debug("Staging probe returned unexpected error", "err", err)
		}
		return model.StoreCapabilities{}
	}
	return model.StoreCapabilities{TemporaryRelations: true}
}

// Scan validates criteria, picks a strategy from the probed capabilities and
// drains it batch by batch. Zero matches is a valid, empty result.
func (s *Scanner) Scan(ctx context.Context, criteria model.SearchCriteria) (model.ScanResult, error) {
	if err := criteria.Validate(); err != nil {
		return model.ScanResult{}, err
	}
	window, _ := criteria.Window()

	name := s.newName()
	caps := s.Capabilities(ctx, name+"_probe")

	start := s.now()
	strategy, err := s.selectStrategy(ctx, caps, name, window, criteria.BatchSize)
	if err != nil {
		return model.ScanResult{}, err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := strategy.Close(cctx); err != nil {
			s.log.Error("Failed to clean up scan strategy", "strategy", strategy.Kind(), "err", err)
		}
	}()

	ids, err := s.drain(ctx, strategy, criteria)
	if err != nil {
		return model.ScanResult{}, err
	}

	total, known := strategy.TotalKnown()
	if !known {
		total = len(ids)
	}

	return model.ScanResult{
		IDs:        ids,
		TotalFound: total,
		Strategy:   strategy.Kind(),
		Window:     window,
		Elapsed:    s.now().Sub(start),
	}, nil
}

func (s *Scanner) selectStrategy(ctx context.Context, caps model.StoreCapabilities, name string, window model.DateWindow, batchSize int) (contracts.Strategy, error) {
	if caps.TemporaryRelations {
		s.log.Debug("Using staged strategy", "staging_table", name)
		return newStagedStrategy(ctx, s.store, s.log, s.opts.Retry, name, window, batchSize)
	}
	s.log.Info("Temporary tables unavailable, paging posts directly")
	return newDirectStrategy(s.store, s.log, s.opts.Retry, window, batchSize), nil
}

func (s *Scanner) drain(ctx context.Context, strategy contracts.Strategy, criteria model.SearchCriteria) ([]int64, error) {
	total, known := strategy.TotalKnown()
	if !known {
		total = -1
	}

	ids := make([]int64, 0)
	batch := 0
	for {
		// Between batches is the only point where a scan can be cancelled.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		want := criteria.BatchSize
		if criteria.Limit > 0 {
			want = min(want, criteria.Limit-len(ids))
		}

		got, exhausted, err := strategy.NextBatch(ctx, want)
		if err != nil {
			return nil, err
		}

		if len(got) > 0 {
			batch++
			ids = append(ids, got...)
			if criteria.Limit > 0 && len(ids) > criteria.Limit {
				ids = ids[:criteria.Limit]
			}
			if s.progress != nil {
				s.progress.Report(model.Progress{
					Strategy:  strategy.Kind(),
					Batch:     batch,
					Retrieved: len(ids),
					Total:     total,
				})
			}
		}

		if exhausted || (criteria.Limit > 0 && len(ids) >= criteria.Limit) {
			return ids, nil
		}
	}
}
