package contracts

import (
	"context"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
)

// ContentStore is one session against the posts relation. Temporary
// relations created through it live only as long as the session.
type ContentStore interface {
	ProbeStaging(ctx context.Context, name string) error
	CreateStaging(ctx context.Context, name string) error
	StageMatches(ctx context.Context, name string, window model.DateWindow) error
	CountStaged(ctx context.Context, name string) (int, error)
	FetchStaged(ctx context.Context, name string, offset, limit int) ([]int64, error)
	DropStaging(ctx context.Context, name string) error
	FetchMatches(ctx context.Context, window model.DateWindow, offset, limit int) ([]int64, error)
}

// SessionProvider hands out pinned store sessions.
type SessionProvider interface {
	Session(ctx context.Context) (StoreSession, error)
}

type StoreSession interface {
	ContentStore
	Close() error
}

type Strategy interface {
	Kind() model.StrategyKind
	// NextBatch fetches the next window. want is the number of ids the caller
	// can still accept; exhausted is true once a fetch comes back empty.
	NextBatch(ctx context.Context, want int) (ids []int64, exhausted bool, err error)
	// TotalKnown returns the number of matches when it is known up front.
	TotalKnown() (int, bool)
	Close(ctx context.Context) error
}

type ProgressReporter interface {
	Report(p model.Progress)
}

type ResultReporter interface {
	Write(path string, result model.ScanResult) error
}
