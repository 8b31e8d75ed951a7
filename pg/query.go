package pg

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

func (cli *Client) exec(ctx context.Context, query rowset.Query) (sql.Result, error) {
	stmt, params, err := rowset.Statement(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query data")
	}

	var tag pgconn.CommandTag

	if tag, err = cli.querier.Exec(ctx, stmt, params...); err != nil {
		return nil, wrapPgErr(err, "execute query")
	}

	return &execResult{tag: tag}, nil
}

func (cli *Client) query(ctx context.Context, query rowset.Query) (pgx.Rows, error) {
	stmt, params, err := rowset.Statement(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare query data")
	}

	var rows pgx.Rows

	rows, err = cli.querier.Query(ctx, stmt, params...)
	if err != nil {
		return nil, wrapPgErr(err, "execute query")
	}

	return rows, nil
}
