package xlsx

import (
	"context"
	"database/sql"

	"gopkg.in/gomisc/errors.v1"
	"gopkg.in/gomisc/tracing.v1"

	"gopkg.in/gomisc/rowset.v1"
)

// DefaultScheme - схема DSN книги: xlsx:///path/to/book.xlsx
const DefaultScheme = "xlsx"

var _ rowset.Storage = (*Book)(nil)

// Book - книга Excel как источник строк; запрос - имя листа
type Book struct {
	path string
}

// NewBook возвращает источник строк по файлу книги path
func NewBook(path string) *Book {
	return &Book{path: path}
}

// Close реализация io.Closer
func (b *Book) Close() error {
	return nil
}

// Iterate открывает книгу и возвращает курсор по листу из запроса
func (b *Book) Iterate(ctx context.Context, query rowset.Query) (rowset.Cursor, error) {
	span := tracing.SetTrace(ctx)
	defer span.End()

	sheet, ok := query.Query().(string)
	if !ok {
		err := errors.Ctx().Stringer("query", query).Just(rowset.ErrWrongQueryType)
		span, err = span.WithError(err, "get sheet name")

		return nil, err
	}

	c, err := Open(b.path, sheet)
	if err != nil {
		span, err = span.WithError(err, "open sheet cursor")

		return nil, err
	}

	return c, nil
}

// Exec не поддерживается: книга доступна только для чтения
func (b *Book) Exec(_ context.Context, query rowset.Query) (sql.Result, error) {
	return nil, errors.Ctx().Stringer("query", query).Just(rowset.ErrUnsupported)
}
