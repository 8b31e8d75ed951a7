package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

func (cli *Client) exec(ctx context.Context, query rowset.Query) (sql.Result, error) {
	stmt, params, err := rowset.Statement(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query")
	}

	var res sql.Result

	if res, err = cli.pool.ExecContext(ctx, stmt, params...); err != nil {
		return nil, cli.wrapErr(err, "execute query")
	}

	return res, nil
}

func (cli *Client) query(ctx context.Context, query rowset.Query) (*sqlx.Rows, error) {
	stmt, params, err := rowset.Statement(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query data")
	}

	var rows *sqlx.Rows

	rows, err = cli.pool.QueryxContext(ctx, stmt, params...)
	if err != nil {
		return nil, cli.wrapErr(err, "execute query")
	}

	return rows, nil
}
