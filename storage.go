package rowset

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"gopkg.in/gomisc/errors.v1"
)

type (
	Query interface {
		fmt.Stringer
		// Query - возвращает запрос
		Query() interface{}
		// Params Возвращает параметры запроса
		Params() interface{}
	}

	// Storage интерфейс клиента базы данных
	Storage interface {
		io.Closer
		// Iterate выполняет запрос и возвращает курсор по его результату
		Iterate(ctx context.Context, query Query) (Cursor, error)
		// Exec Выполняет запрос который ничего не возвращает
		Exec(ctx context.Context, query Query) (sql.Result, error)
	}

	// Factory - абстрактная фабрика клиентов
	Factory interface {
		// Storage - возвращает клиента базы данных
		Storage(dsn string) (Storage, error)
	}

	// Decorator оборачивает курсор перед обработкой, например TrimStrings
	Decorator func(c Cursor) Cursor

	sqlQuery struct {
		sql    string
		params []any
	}
)

// NewQuery возвращает SQL запрос с позиционными параметрами
func NewQuery(sql string, params ...any) Query {
	if params == nil {
		params = []any{}
	}

	return &sqlQuery{sql: sql, params: params}
}

func (q *sqlQuery) String() string {
	return q.sql
}

func (q *sqlQuery) Query() interface{} {
	return q.sql
}

func (q *sqlQuery) Params() interface{} {
	return q.params
}

// Statement возвращает текст SQL запроса и его позиционные параметры
func Statement(query Query) (string, []any, error) {
	stmt, ok := query.Query().(string)
	if !ok {
		return "", nil, errors.Ctx().Stringer("query", query).Just(ErrWrongQueryType)
	}

	params, ok := query.Params().([]any)
	if !ok {
		return "", nil, errors.Ctx().Any("params", query.Params()).Just(ErrWrongParameters)
	}

	return stmt, params, nil
}

// Trimmed - Decorator, обрезающий пробелы строковых значений
func Trimmed(c Cursor) Cursor {
	return TrimStrings(c)
}

// Fetch выполняет запрос и преобразует все строки результата обработчиком h
func Fetch[T any](ctx context.Context, st Storage, query Query, h Handler[T], decorators ...Decorator) (out []T, err error) {
	c, err := open(ctx, st, query, decorators)
	if err != nil {
		return nil, err
	}

	defer closeCursor(c, &err)

	return h.All(c)
}

// FetchOne выполняет запрос и преобразует первую строку результата
//
// Если строк нет, возвращает ErrEmptyResult.
func FetchOne[T any](ctx context.Context, st Storage, query Query, h Handler[T], decorators ...Decorator) (out T, err error) {
	c, err := open(ctx, st, query, decorators)
	if err != nil {
		return out, err
	}

	defer closeCursor(c, &err)

	v, ok, err := h.Single(c)
	if err != nil {
		return out, err
	}

	if !ok {
		return out, ErrEmptyResult
	}

	return v, nil
}

// FetchScalar выполняет запрос и возвращает значение колонки col первой строки
func FetchScalar[T any](ctx context.Context, st Storage, query Query, col Column, decorators ...Decorator) (out T, ok bool, err error) {
	c, err := open(ctx, st, query, decorators)
	if err != nil {
		return out, false, err
	}

	defer closeCursor(c, &err)

	return ScalarOf[T](c, col)
}

func open(ctx context.Context, st Storage, query Query, decorators []Decorator) (Cursor, error) {
	c, err := st.Iterate(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, decorate := range decorators {
		c = decorate(c)
	}

	return c, nil
}

// closeCursor возвращает ошибку Close, если других ошибок не было
func closeCursor(c Cursor, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
