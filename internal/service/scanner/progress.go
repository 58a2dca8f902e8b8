package scanner

import (
	"fmt"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/dustin/go-humanize"
)

type LogProgress struct {
	log       pkg.Logger
	blockName string
}

var _ contracts.ProgressReporter = (*LogProgress)(nil)

func NewLogProgress(log pkg.Logger, blockName string) *LogProgress {
	return &LogProgress{log: log, blockName: blockName}
}

func (l *LogProgress) Report(p model.Progress) {
	if p.TotalKnown() {
		l.log.Info(fmt.Sprintf("Processed %s of %s matching posts (%.1f%%)",
			humanize.Comma(int64(p.Retrieved)), humanize.Comma(int64(p.Total)), p.Percent()),
			"batch", p.Batch)
		return
	}
	l.log.Info(fmt.Sprintf("Found %s posts with %s blocks so far...",
		humanize.Comma(int64(p.Retrieved)), l.blockName),
		"batch", p.Batch)
}
