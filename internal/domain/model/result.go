package model

import "time"

type StoreCapabilities struct {
	TemporaryRelations bool
}

type StrategyKind string

const (
	StrategyStaged StrategyKind = "staged"
	StrategyDirect StrategyKind = "direct"
)

// Progress is emitted after every non-empty batch. Total is -1 while the
// strategy does not know it yet.
type Progress struct {
	Strategy  StrategyKind
	Batch     int
	Retrieved int
	Total     int
}

func (p Progress) TotalKnown() bool {
	return p.Total >= 0
}

// Percent is only meaningful when TotalKnown reports true.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Retrieved) / float64(p.Total) * 100
}

type ScanResult struct {
	IDs        []int64
	TotalFound int
	Strategy   StrategyKind
	Window     DateWindow
	Elapsed    time.Duration
}

func (r ScanResult) Empty() bool {
	return len(r.IDs) == 0
}
