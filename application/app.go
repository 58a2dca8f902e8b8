package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/scanner"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/dustin/go-humanize"
)

// App is built once in main and carries everything a search needs.
type App struct {
	Logger   pkg.Logger
	Store    contracts.SessionProvider
	Reporter contracts.ResultReporter
	Scan     config.ScanConfig
	Prefix   string
	Out      io.Writer
}

func NewApp(logger pkg.Logger, store contracts.SessionProvider, reporter contracts.ResultReporter, cfg config.Config, out io.Writer) *App {
	return &App{
		Logger:   logger,
		Store:    store,
		Reporter: reporter,
		Scan:     cfg.Scan,
		Prefix:   cfg.Database.TablePrefix,
		Out:      out,
	}
}

// Run scans for matching posts, writes one id per line to Out and, when
// reportPath is set, exports the result.
func (a *App) Run(ctx context.Context, criteria model.SearchCriteria, reportPath string) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	a.Logger.Info(fmt.Sprintf("Searching for posts with %s blocks between %s and %s...",
		a.Scan.BlockName, criteria.DateAfter, criteria.DateBefore))

	session, err := a.Store.Session(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.Logger.Warn("Failed to release store session", "err", err)
		}
	}()

	sc := scanner.NewScanner(session, a.Logger.WithPackage("scanner"),
		scanner.NewLogProgress(a.Logger, a.Scan.BlockName),
		scanner.Options{TablePrefix: a.Prefix, Retry: a.Scan.Retry})

	result, err := sc.Scan(ctx, criteria)
	if err != nil {
		return err
	}

	if result.Empty() {
		a.Logger.Info(fmt.Sprintf("No posts containing %s blocks were found in the specified date range.", a.Scan.BlockName))
	} else {
		a.Logger.Info(fmt.Sprintf("Found %s posts containing %s blocks:",
			humanize.Comma(int64(len(result.IDs))), a.Scan.BlockName))
		if err := a.writeIDs(result.IDs); err != nil {
			return fmt.Errorf("write post ids: %w", err)
		}
		a.Logger.Info(fmt.Sprintf("Successfully found %s posts with %s blocks in %.2f seconds.",
			humanize.Comma(int64(len(result.IDs))), a.Scan.BlockName, result.Elapsed.Seconds()),
			"strategy", result.Strategy, "total_found", result.TotalFound)
	}

	if reportPath != "" && a.Reporter != nil {
		if err := a.Reporter.Write(reportPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func (a *App) writeIDs(ids []int64) error {
	w := bufio.NewWriter(a.Out)
	buf := make([]byte, 0, 24)
	for _, id := range ids {
		buf = strconv.AppendInt(buf[:0], id, 10)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}
