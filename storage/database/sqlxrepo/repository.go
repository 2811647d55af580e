// Package sqlxrepo implements the domain repositories with squirrel-built SQL scanned by sqlx.
// Queries use "$n" placeholders, understood by both postgres and sqlite.
package sqlxrepo

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// selectAll scans every row of the query into dest, a pointer to a slice of structs.
func selectAll(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder, dest interface{}) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

// selectOne returns the first row of the query; sql.ErrNoRows when there is none.
func selectOne[T any](ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder) (T, error) {
	var rows []T
	if err := selectAll(ctx, exec, qb.Limit(1), &rows); err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, sql.ErrNoRows
	}
	return rows[0], nil
}

// execute runs an insert, update or delete and returns the number of affected rows.
func execute(ctx context.Context, exec core.DBExecutor, qb sq.Sqlizer) (int, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(cnt), nil
}

func count(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder) (int, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var n int
	if err = exec.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// orderBy applies the orderings on allowed fields only.
func orderBy(qb sq.SelectBuilder, ordering []core.DBOrdering, allowed []string) sq.SelectBuilder {
	for _, ord := range core.CleanOrdering(ordering, allowed) {
		qb = qb.OrderBy(ord.String())
	}
	return qb
}

// trapNoRowsErr maps the "no rows" err to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func likeValue(term string) string {
	return "%" + term + "%"
}
