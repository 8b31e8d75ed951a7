package factory

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
	"gopkg.in/gomisc/rowset.v1/mssql"
	"gopkg.in/gomisc/rowset.v1/mysql"
	"gopkg.in/gomisc/rowset.v1/pg"
	"gopkg.in/gomisc/rowset.v1/sqlite"
	"gopkg.in/gomisc/rowset.v1/xlsx"
)

const (
	errUnsupportedDriver = errors.Const("unsupported database driver")
	errDatabaseName      = errors.Const("database name not found in dsn")
)

var _ rowset.Factory = (*Drivers)(nil)

// Drivers - фабрика клиентов по DSN, клиенты кешируются по строке DSN
type Drivers struct {
	ctx context.Context

	sync.RWMutex
	drivers map[string]rowset.Storage

	open func(dsn string) (rowset.Storage, error)
}

// New конструктор фабрики драйверов баз данных
func New(ctx context.Context) *Drivers {
	f := &Drivers{
		ctx:     ctx,
		drivers: make(map[string]rowset.Storage),
	}

	f.open = f.create

	return f
}

// Storage - возвращает клиента базы данных для dsn
//
// Поддерживаемые схемы: postgres, postgresql, pg, psql, mysql, sqlite, file,
// sqlserver, mssql, xlsx.
func (f *Drivers) Storage(dsn string) (rowset.Storage, error) {
	if driver, ok := f.get(dsn); ok {
		return driver, nil
	}

	// подключение идет без блокировки, чтобы не задерживать чтение кеша
	driver, err := f.open(dsn)
	if err != nil {
		return nil, errors.Ctx().
			Str("dsn", redact(dsn)).
			Wrap(err, "create client connection")
	}

	f.Lock()

	existing, ok := f.drivers[dsn]
	if !ok {
		f.drivers[dsn] = driver
	}

	f.Unlock()

	if ok {
		// клиент уже создан параллельным вызовом, лишний закрываем
		if err = driver.Close(); err != nil {
			return nil, errors.Ctx().
				Str("dsn", redact(dsn)).
				Wrap(err, "close duplicate client")
		}

		return existing, nil
	}

	return driver, nil
}

// Close закрывает все созданные клиенты и возвращает первую ошибку закрытия
func (f *Drivers) Close() error {
	f.Lock()
	defer f.Unlock()

	var closeErr error

	for dsn, driver := range f.drivers {
		if err := driver.Close(); err != nil && closeErr == nil {
			closeErr = errors.Ctx().Str("dsn", redact(dsn)).Wrap(err, "close client")
		}

		delete(f.drivers, dsn)
	}

	return closeErr
}

func (f *Drivers) get(dsn string) (rowset.Storage, bool) {
	f.RLock()

	defer f.RUnlock()

	if driver, ok := f.drivers[dsn]; ok {
		return driver, ok
	}

	return nil, false
}

func (f *Drivers) create(dsn string) (rowset.Storage, error) {
	uri, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse dsn")
	}

	errCtx := errors.Ctx().Str("uri", uri.Redacted())

	switch uri.Scheme {
	case pg.DefaultScheme, pg.LongScheme, pg.PsqlScheme, pg.ShortScheme:
		if databaseName(uri) == "" {
			return nil, errCtx.Just(errDatabaseName)
		}

		uri.Scheme = pg.DefaultScheme

		driver, err := pg.New(f.ctx, uri.String())
		if err != nil {
			return nil, errCtx.Wrap(err, "create postgres connection")
		}

		return driver, nil
	case mysql.DefaultScheme:
		if databaseName(uri) == "" {
			return nil, errCtx.Just(errDatabaseName)
		}

		mysqlDSN, err := mysql.DSN(uri)
		if err != nil {
			return nil, errCtx.Wrap(err, "build mysql dsn")
		}

		driver, err := mysql.New(f.ctx, mysqlDSN)
		if err != nil {
			return nil, errCtx.Wrap(err, "create mysql connection")
		}

		return driver, nil
	case sqlite.DefaultScheme, sqlite.FileScheme:
		driver, err := sqlite.New(f.ctx, sqlite.Path(uri))
		if err != nil {
			return nil, errCtx.Wrap(err, "create sqlite connection")
		}

		return driver, nil
	case mssql.DefaultScheme, mssql.ShortScheme:
		driver, err := mssql.New(f.ctx, mssql.DSN(uri))
		if err != nil {
			return nil, errCtx.Wrap(err, "create sql server connection")
		}

		return driver, nil
	case xlsx.DefaultScheme:
		return xlsx.NewBook(uri.Host + uri.Path), nil
	default:
		return nil, errCtx.Just(errUnsupportedDriver)
	}
}

func databaseName(uri *url.URL) string {
	return strings.Trim(uri.Path, "/")
}

func redact(dsn string) string {
	if uri, err := url.Parse(dsn); err == nil {
		return uri.Redacted()
	}

	return "<invalid dsn>"
}
