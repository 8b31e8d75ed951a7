package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"gopkg.in/gomisc/errors.v1"
	"gopkg.in/gomisc/tracing.v1"

	"gopkg.in/gomisc/rowset.v1"
)

var _ rowset.Storage = (*Client)(nil)

type (
	// ErrorWrapper добавляет к ошибке драйвера контекст конкретной СУБД
	ErrorWrapper func(err error, message string) error

	// Client - клиент базы данных поверх database/sql
	Client struct {
		pool    *sqlx.DB
		wrapErr ErrorWrapper
	}

	// Option - опция клиента
	Option func(cli *Client)
)

// WithErrorWrapper задает обработчик ошибок драйвера
func WithErrorWrapper(fn ErrorWrapper) Option {
	return func(cli *Client) {
		cli.wrapErr = fn
	}
}

// Open открывает подключение к базе через драйвер driverName
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*Client, error) {
	span := tracing.SetTrace(ctx)
	defer span.End()

	pool, err := sqlx.Open(driverName, dsn)
	if err != nil {
		span, err = span.WithError(err, "open database")

		return nil, errors.Ctx().Str("driver", driverName).Wrap(err, "connect to database")
	}

	return New(pool, opts...), nil
}

// New конструктор клиента по открытому пулу
func New(pool *sqlx.DB, opts ...Option) *Client {
	cli := &Client{
		pool:    pool,
		wrapErr: wrapErr,
	}

	for _, opt := range opts {
		opt(cli)
	}

	return cli
}

// DB возвращает пул подключений
func (cli *Client) DB() *sqlx.DB {
	return cli.pool
}

// Close реализация io.Closer
func (cli *Client) Close() error {
	if err := cli.pool.Close(); err != nil {
		return errors.Wrap(err, "close database connections")
	}

	return nil
}

// Exec Выполняет запрос который ничего не возвращает
func (cli *Client) Exec(ctx context.Context, query rowset.Query) (sql.Result, error) {
	span := tracing.SetTrace(ctx)
	defer span.End()

	res, err := cli.exec(span.Context(), query)
	if err != nil {
		span, err = span.WithError(err, "execution error")

		return res, err
	}

	return res, nil
}

// Iterate выполняет запрос и возвращает курсор по его результату
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

func wrapErr(err error, message string) error {
	return errors.Wrap(err, message)
}
