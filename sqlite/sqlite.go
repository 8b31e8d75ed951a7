package sqlite

import (
	"context"
	"net/url"
	"strings"

	"gopkg.in/gomisc/errors.v1"
	msqlite "modernc.org/sqlite"

	"gopkg.in/gomisc/rowset.v1/sqldb"
)

// DSN schemes
const (
	DefaultScheme = "sqlite"
	FileScheme    = "file"
)

const driverName = "sqlite"

// New открывает базу SQLite по пути к файлу или ":memory:"
func New(ctx context.Context, dsn string) (*sqldb.Client, error) {
	cli, err := sqldb.Open(ctx, driverName, dsn, sqldb.WithErrorWrapper(wrapSQLiteErr))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	// каждое соединение с базой в памяти видит свою пустую базу
	if isMemory(dsn) {
		cli.DB().SetMaxOpenConns(1)
	}

	return cli, nil
}

// Path переводит URL sqlite:///path/to.db или sqlite::memory: в DSN драйвера
func Path(uri *url.URL) string {
	path := uri.Opaque
	if path == "" {
		path = uri.Host + uri.Path
	}

	if uri.RawQuery != "" {
		path += "?" + uri.RawQuery
	}

	return path
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func wrapSQLiteErr(err error, message string) error {
	var sqliteErr *msqlite.Error

	if errors.As(err, &sqliteErr) {
		return errors.Ctx().
			Pos(2).
			Any("code", sqliteErr.Code()).
			Wrap(err, message)
	}

	return errors.Wrap(err, message)
}
