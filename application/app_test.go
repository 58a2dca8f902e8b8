package application

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/infra/database"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/reporter"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const block = `<!-- wp:stylized-anchor-link {"postId":7} /-->`

func seedPosts(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wp.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE wp_posts (
		"ID" INTEGER PRIMARY KEY,
		post_type TEXT NOT NULL,
		post_status TEXT NOT NULL,
		post_date TEXT NOT NULL,
		post_content TEXT
	)`)
	require.NoError(t, err)

	rows := []struct {
		id      int64
		date    string
		content string
	}{
		{12, "2024-03-02 09:00:00", block},
		{3, "2024-03-01 00:00:00", block},
		{40, "2024-03-05 18:30:00", "<p>plain</p>"},
		{41, "2024-04-01 00:00:00", block},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO wp_posts VALUES (?, 'post', 'publish', ?, ?)`, r.id, r.date, r.content)
		require.NoError(t, err)
	}
	return path
}

type captureLogger struct {
	infos []string
}

func (c *captureLogger) Debug(string, ...interface{}) {}
func (c *captureLogger) Info(msg string, _ ...interface{}) {
	c.infos = append(c.infos, msg)
}
func (c *captureLogger) Warn(string, ...interface{})   {}
func (c *captureLogger) Error(string, ...interface{})  {}
func (c *captureLogger) WithPackage(string) pkg.Logger { return c }

func newTestApp(t *testing.T, out *bytes.Buffer) *App {
	t.Helper()
	return newLoggedTestApp(t, out, pkg.NewNopLogger())
}

func newLoggedTestApp(t *testing.T, out *bytes.Buffer, log pkg.Logger) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database = config.DatabaseConfig{Driver: config.DriverSQLite, DSN: seedPosts(t), MaxConns: 1, TablePrefix: "wp_"}

	nop := pkg.NewNopLogger()
	db, err := database.Open(context.Background(), nop, cfg.Database, signature.New(cfg.Scan.BlockName))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewApp(log, db, reporter.NewReporter(nop, cfg.Scan.BlockName), cfg, out)
}

func criteria(after, before string) model.SearchCriteria {
	return model.SearchCriteria{DateAfter: after, DateBefore: before, BatchSize: 1}
}

func TestRunStreamsIDs(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)

	require.NoError(t, app.Run(context.Background(), criteria("2024-03-01", "2024-03-31"), ""))
	assert.Equal(t, "3\n12\n", out.String())
}

func TestRunNoMatchesIsNotAnError(t *testing.T) {
	var out bytes.Buffer
	log := &captureLogger{}
	app := newLoggedTestApp(t, &out, log)

	require.NoError(t, app.Run(context.Background(), criteria("2023-01-01", "2023-01-31"), ""))
	assert.Empty(t, out.String())

	require.NotEmpty(t, log.infos)
	assert.Equal(t, "Searching for posts with stylized-anchor-link blocks between 2023-01-01 and 2023-01-31...", log.infos[0])
	assert.Equal(t, "No posts containing stylized-anchor-link blocks were found in the specified date range.", log.infos[len(log.infos)-1])
}

func TestRunLogsBannerAndSummary(t *testing.T) {
	var out bytes.Buffer
	log := &captureLogger{}
	app := newLoggedTestApp(t, &out, log)

	require.NoError(t, app.Run(context.Background(), criteria("2024-03-01", "2024-03-31"), ""))
	assert.Equal(t, "3\n12\n", out.String())

	require.GreaterOrEqual(t, len(log.infos), 3)
	assert.Equal(t, "Searching for posts with stylized-anchor-link blocks between 2024-03-01 and 2024-03-31...", log.infos[0])
	assert.Contains(t, log.infos, "Found 2 posts containing stylized-anchor-link blocks:")
	assert.Regexp(t, `^Successfully found 2 posts with stylized-anchor-link blocks in \d+\.\d{2} seconds\.$`, log.infos[len(log.infos)-1])
}

func TestRunWritesReport(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, app.Run(context.Background(), criteria("2024-03-01", "2024-04-30"), path))
	assert.Equal(t, "3\n12\n41\n", out.String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

type countingProvider struct {
	calls int
}

func (c *countingProvider) Session(context.Context) (contracts.StoreSession, error) {
	c.calls++
	return nil, errors.New("unexpected session")
}

func TestRunValidatesBeforeStoreAccess(t *testing.T) {
	cases := map[string]model.SearchCriteria{
		"bad date":   criteria("2023-02-30", "2023-03-01"),
		"inverted":   criteria("2024-02-01", "2024-01-01"),
		"zero batch": {DateAfter: "2024-01-01", DateBefore: "2024-01-02"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &countingProvider{}
			var out bytes.Buffer
			app := NewApp(pkg.NewNopLogger(), provider, nil, config.DefaultConfig(), &out)

			err := app.Run(context.Background(), c, "")

			var vErr *model.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Zero(t, provider.calls)
			assert.Empty(t, out.String())
		})
	}
}

func TestRunStoreUnavailable(t *testing.T) {
	provider := &unavailableProvider{}
	app := NewApp(pkg.NewNopLogger(), provider, nil, config.DefaultConfig(), &bytes.Buffer{})

	err := app.Run(context.Background(), criteria("2024-01-01", "2024-01-02"), "")

	var sErr *model.StoreUnavailableError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "acquire", sErr.Op)
}

type unavailableProvider struct{}

func (unavailableProvider) Session(context.Context) (contracts.StoreSession, error) {
	return nil, &model.StoreUnavailableError{Op: "acquire", Err: errors.New("connection refused")}
}
