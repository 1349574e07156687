package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
)

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	errUnsupportedExecutor = errors.New("executor does not support sqlx")
)

// repository holds the pool used when a method is not given a transaction.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// ext returns the sqlx view of the executor; both the pool and its transactions provide one.
func (repo repository) ext(svcExec []core.DBExecutor) (sqlx.ExtContext, error) {
	if x, ok := repo.getExec(svcExec).(sqlx.ExtContext); ok {
		return x, nil
	}
	return nil, errUnsupportedExecutor
}

// trapNoRows maps sql.ErrNoRows to the given not-found error.
func trapNoRows(err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// checkAffected returns notFound when res reports no affected row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
