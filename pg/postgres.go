package pg

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype/pgxtype"
	"github.com/jackc/pgx/v4/pgxpool"
	"gopkg.in/gomisc/errors.v1"
	"gopkg.in/gomisc/tracing.v1"

	"gopkg.in/gomisc/rowset.v1"
)

// DSN schemes
const (
	DefaultScheme = "postgres"
	LongScheme    = "postgresql"
	ShortScheme   = "pg"
	PsqlScheme    = "psql"
)

var _ rowset.Storage = (*Client)(nil)

type (
	execResult struct {
		tag pgconn.CommandTag
		err error
	}

	// Client - клиент PostgreSQL
	Client struct {
		pool    *pgxpool.Pool
		querier pgxtype.Querier
	}
)

// New открывает пул подключений к PostgreSQL
func New(ctx context.Context, dsn string) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "configure database client")
	}

	poolConfig.ConnConfig.PreferSimpleProtocol = true

	var pool *pgxpool.Pool

	pool, err = pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgresql database")
	}

	return &Client{pool: pool, querier: pool}, nil
}

// NewWithQuerier создает клиента поверх готового подключения, пула или транзакции
func NewWithQuerier(querier pgxtype.Querier) *Client {
	return &Client{querier: querier}
}

// Close реализация io.Closer
func (cli *Client) Close() error {
	if cli.pool != nil {
		cli.pool.Close()
	}

	return nil
}

// Iterate - выполняет запрос и возвращает курсор по его результату
func (cli *Client) Iterate(ctx context.Context, query rowset.Query) (rowset.Cursor, error) {
	span := tracing.SetTrace(ctx)
	defer span.End()

	rows, err := cli.query(span.Context(), query)
	if err != nil {
		span, err = span.WithError(err, "get iterable query result")

		return nil, err
	}

	return NewCursor(rows), nil
}

// Exec Выполняет запрос который ничего не возвращает
func (cli *Client) Exec(ctx context.Context, query rowset.Query) (sql.Result, error) {
	span := tracing.SetTrace(ctx)
	defer span.End()

	msg, err := cli.exec(span.Context(), query)
	if err != nil {
		span, err = span.WithError(err, "execution error")

		return msg, err
	}

	return msg, nil
}

func (res *execResult) LastInsertId() (int64, error) {
	return 0, rowset.ErrUnsupported
}

func (res *execResult) RowsAffected() (int64, error) {
	return res.tag.RowsAffected(), res.err
}

func wrapPgErr(err error, message string) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return errors.Ctx().
			Pos(2).
			Str("code", pgErr.Code).
			Int32("sql-position", pgErr.Position).
			Wrap(err, message)
	}

	return errors.Wrap(err, message)
}
