package database

import (
	"strconv"
	"strings"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
	"github.com/jackc/pgx/v5"
)

const (
	colID      = `"ID"`
	colType    = `"post_type"`
	colStatus  = `"post_status"`
	colDate    = `"post_date"`
	colContent = `"post_content"`
	colStaged  = `"post_id"`
)

type dialect struct {
	name string
	bind func(n int) string
	// match renders the content predicate for sig, binding its arguments on q.
	match func(q *query, sig signature.Signature) string
}

var postgresDialect = dialect{
	name: "postgres",
	bind: func(n int) string { return "$" + strconv.Itoa(n) },
	match: func(q *query, sig signature.Signature) string {
		patterns := sig.LikePatterns()
		parts := make([]string, 0, len(patterns))
		for _, p := range patterns {
			parts = append(parts, colContent+` LIKE `+q.arg(p)+` ESCAPE '\'`)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	},
}

// SQLite's LIKE ignores ASCII case, so matching goes through the registered
// block_signature function instead.
var sqliteDialect = dialect{
	name: "sqlite",
	bind: func(int) string { return "?" },
	match: func(q *query, sig signature.Signature) string {
		return sqliteSignatureFunc + "(" + colContent + ", " + q.arg(sig.BlockName) + ") = 1"
	},
}

type query struct {
	d    dialect
	sb   strings.Builder
	args []any
}

func newQuery(d dialect) *query {
	return &query{d: d}
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return q.d.bind(len(q.args))
}

func (q *query) write(parts ...string) *query {
	for _, p := range parts {
		q.sb.WriteString(p)
	}
	return q
}

func (q *query) String() string {
	return q.sb.String()
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// matchSelect writes the SELECT of every post id matching window and sig.
func (q *query) matchSelect(posts string, window model.DateWindow, sig signature.Signature) *query {
	q.write(
		"SELECT ", colID, " FROM ", posts,
		" WHERE ", colType, " = ", q.arg(model.PostType),
		" AND ", colStatus, " = ", q.arg(model.PostStatusPublish),
		" AND ", colDate, " >= ", q.arg(window.StartString()),
		" AND ", colDate, " <= ", q.arg(window.EndString()),
	)
	return q.write(" AND ", q.d.match(q, sig))
}

func (q *query) window(limit, offset int) *query {
	return q.write(" LIMIT ", q.arg(limit), " OFFSET ", q.arg(offset))
}
