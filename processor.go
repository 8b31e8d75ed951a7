package rowset

import (
	"reflect"
	"sync"
)

type (
	// RowProcessor преобразует текущую строку курсора в массив, map или структуру
	RowProcessor interface {
		// ToArray возвращает значения колонок в порядке их номеров
		ToArray(c Cursor) ([]any, error)
		// ToMap возвращает значения колонок по их именам
		ToMap(c Cursor) (map[string]any, error)
		// ToBean создает экземпляр target и заполняет его колонками строки
		ToBean(c Cursor, target reflect.Type) (any, error)
	}

	// BasicProcessor - стандартная реализация RowProcessor
	BasicProcessor struct {
		beans *BeanProcessor
	}
)

var _ RowProcessor = (*BasicProcessor)(nil)

var (
	defaultProcessor     *BasicProcessor
	defaultProcessorOnce sync.Once
)

// DefaultProcessor возвращает общий BasicProcessor с настройками по умолчанию
func DefaultProcessor() *BasicProcessor {
	defaultProcessorOnce.Do(func() { defaultProcessor = NewProcessor(nil) })

	return defaultProcessor
}

// NewProcessor конструктор BasicProcessor, beans == nil - BeanProcessor по умолчанию
func NewProcessor(beans *BeanProcessor) *BasicProcessor {
	if beans == nil {
		beans = NewBeanProcessor()
	}

	return &BasicProcessor{beans: beans}
}

func (p *BasicProcessor) ToArray(c Cursor) ([]any, error) {
	count, err := c.ColumnCount()
	if err != nil {
		return nil, err
	}

	row := make([]any, count)

	for i := range row {
		if row[i], err = c.Value(Ordinal(i + 1)); err != nil {
			return nil, err
		}
	}

	return row, nil
}

// ToMap возвращает значения колонок по именам в том виде, как их отдает курсор
//
// Если имена колонок совпадают, в map остается значение последней из них.
func (p *BasicProcessor) ToMap(c Cursor) (map[string]any, error) {
	labels, err := Labels(c)
	if err != nil {
		return nil, err
	}

	row := make(map[string]any, len(labels))

	for i, label := range labels {
		v, err := c.Value(Ordinal(i + 1))
		if err != nil {
			return nil, err
		}

		row[label] = v
	}

	return row, nil
}

func (p *BasicProcessor) ToBean(c Cursor, target reflect.Type) (any, error) {
	return p.beans.ToBean(c, target)
}

// Bean заполняет значение типа T (структура или указатель на структуру)
func Bean[T any](p RowProcessor, c Cursor) (T, error) {
	var zero T

	v, err := p.ToBean(c, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}

	return v.(T), nil
}
