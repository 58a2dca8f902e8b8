package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ScrpTrx-Go/GoAnchorScan/application"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/infra/database"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/reporter"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
)

const usage = `usage: anchorscan search [flags]

Lists published posts that embed the configured block, one id per line.
`

type searchFlags struct {
	configPath string
	dateAfter  string
	dateBefore string
	batchSize  int
	limit      int
	retries    int
	report     string
	set        map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "search" {
		fmt.Fprint(stderr, usage)
		return 1
	}

	fl, err := parseSearchFlags(args[1:], stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.LoadConfig(fl.configPath)
	if err != nil {
		log.Printf("error load config: %v", err)
		return 1
	}
	if fl.set["retries"] {
		cfg.Scan.Retry.MaxRetries = uint64(fl.retries)
	}

	zaplogger, err := pkg.NewZapLoggerTo(cfg.Logger, stderr)
	if err != nil {
		log.Printf("error initialize logger: %v", err)
		return 1
	}
	defer zaplogger.Sync()

	criteria := fl.criteria(cfg.Scan, time.Now())
	if err := criteria.Validate(); err != nil {
		zaplogger.Error(err.Error())
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(ctx, zaplogger.WithPackage("database"), cfg.Database, signature.New(cfg.Scan.BlockName))
	if err != nil {
		zaplogger.Error("Failed to open database", "err", err)
		return 1
	}
	defer db.Close()

	app := application.NewApp(zaplogger, db, reporter.NewReporter(zaplogger.WithPackage("reporter"), cfg.Scan.BlockName), cfg, stdout)
	if err := app.Run(ctx, criteria, fl.report); err != nil {
		reportFailure(zaplogger, err)
		return 1
	}
	return 0
}

func parseSearchFlags(args []string, stderr io.Writer) (searchFlags, error) {
	var fl searchFlags
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&fl.configPath, "config", "", "path to a yaml config file")
	fs.StringVar(&fl.dateAfter, "date-after", "", "first publication day, YYYY-MM-DD (default: window_days before today)")
	fs.StringVar(&fl.dateBefore, "date-before", "", "last publication day, YYYY-MM-DD (default: today)")
	fs.IntVar(&fl.batchSize, "batch-size", 0, "ids fetched per query (default: scan.batch_size from config)")
	fs.IntVar(&fl.limit, "limit", 0, "maximum number of ids to return, 0 for no limit")
	fs.IntVar(&fl.retries, "retries", 0, "retries per failed batch (default: scan.retry.max_retries from config)")
	fs.StringVar(&fl.report, "report", "", "also export the result to this .xlsx or .docx file")

	if err := fs.Parse(args); err != nil {
		return searchFlags{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return searchFlags{}, errors.New("unexpected arguments")
	}
	if fl.retries < 0 {
		fmt.Fprintf(stderr, "invalid --retries=%d: must be a non-negative integer\n", fl.retries)
		return searchFlags{}, errors.New("invalid retries")
	}

	fl.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { fl.set[f.Name] = true })
	return fl, nil
}

// criteria fills unset flags from the scan config.
func (fl searchFlags) criteria(cfg config.ScanConfig, now time.Time) model.SearchCriteria {
	c := model.DefaultCriteria(now, cfg.WindowDays, cfg.BatchSize)
	if fl.set["date-after"] {
		c.DateAfter = fl.dateAfter
	}
	if fl.set["date-before"] {
		c.DateBefore = fl.dateBefore
	}
	if fl.set["batch-size"] {
		c.BatchSize = fl.batchSize
	}
	c.Limit = fl.limit
	return c
}

func reportFailure(logger pkg.Logger, err error) {
	var (
		vErr     *model.ValidationError
		storeErr *model.StoreUnavailableError
		batchErr *model.BatchError
	)
	switch {
	case errors.As(err, &vErr):
		logger.Error(vErr.Error())
	case errors.Is(err, context.Canceled):
		logger.Warn("Scan cancelled")
	case errors.As(err, &storeErr):
		logger.Error("Content store unavailable", "op", storeErr.Op, "err", storeErr.Err)
	case errors.As(err, &batchErr):
		logger.Error("Scan aborted on a failed batch", "strategy", batchErr.Strategy, "offset", batchErr.Offset, "err", batchErr.Err)
	default:
		logger.Error("Search failed", "err", err)
	}
}
