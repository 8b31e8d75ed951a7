package rowset

import (
	"strconv"
	"strings"

	"gopkg.in/gomisc/errors.v1"
)

type (
	// Cursor интерфейс курсора по результату запроса
	//
	// Номера колонок начинаются с 1. Курсор принадлежит одному обходу
	// и не безопасен для конкурентного использования.
	Cursor interface {
		// Next - перемещает курсор на следующую строку
		Next() bool
		// Err - возвращает ошибку курсора, если такая имела место
		Err() error
		// Close освобождает ресурсы курсора
		Close() error
		// ColumnCount возвращает количество колонок в строке
		ColumnCount() (int, error)
		// ColumnLabel возвращает имя колонки по ее порядковому номеру
		ColumnLabel(ordinal int) (string, error)
		// Value возвращает значение колонки текущей строки
		Value(col Column) (any, error)
		// String возвращает значение колонки текущей строки как текст, NULL как ""
		String(col Column) (string, error)
	}

	// ColumnTyper - курсор, знающий объявленные типы колонок
	ColumnTyper interface {
		ColumnType(ordinal int) (string, error)
	}

	// Decoder - курсор, умеющий декодировать текущую строку в структуру
	// по правилам драйвера
	Decoder interface {
		Decode(dst any) error
	}

	// Column - селектор колонки текущей строки по номеру или по имени
	Column struct {
		ordinal int
		label   string
		named   bool
	}

	// ColumnInfo описание колонки текущей строки
	ColumnInfo struct {
		Label   string
		Ordinal int
		Type    string
	}
)

// Ordinal - селектор колонки по номеру (с 1)
func Ordinal(i int) Column {
	return Column{ordinal: i}
}

// Label - селектор колонки по имени. Регистр не учитывается,
// при совпадении имен выбирается первая колонка
func Label(name string) Column {
	return Column{label: name, named: true}
}

// IsLabel - true, если колонка выбирается по имени
func (c Column) IsLabel() bool {
	return c.named
}

func (c Column) String() string {
	if c.IsLabel() {
		return strconv.Quote(c.label)
	}

	return "#" + strconv.Itoa(c.ordinal)
}

// Resolve возвращает номер колонки среди labels
func (c Column) Resolve(labels []string) (int, error) {
	if !c.IsLabel() {
		if c.ordinal < 1 || c.ordinal > len(labels) {
			return 0, &ColumnError{Column: c}
		}

		return c.ordinal, nil
	}

	for i, label := range labels {
		if strings.EqualFold(label, c.label) {
			return i + 1, nil
		}
	}

	return 0, &ColumnError{Column: c}
}

// Columns читает описания колонок текущей строки
//
// Если курсор не сообщает типы колонок, Type остается пустым.
func Columns(c Cursor) ([]ColumnInfo, error) {
	count, err := c.ColumnCount()
	if err != nil {
		return nil, err
	}

	typer, _ := c.(ColumnTyper)
	infos := make([]ColumnInfo, count)

	for i := 1; i <= count; i++ {
		label, err := c.ColumnLabel(i)
		if err != nil {
			return nil, err
		}

		infos[i-1] = ColumnInfo{Label: label, Ordinal: i}

		if typer == nil {
			continue
		}

		// обертка курсора без ColumnTyper отвечает ErrUnsupported
		typ, err := typer.ColumnType(i)
		switch {
		case errors.Is(err, ErrUnsupported):
			typer = nil
		case err != nil:
			return nil, err
		default:
			infos[i-1].Type = typ
		}
	}

	return infos, nil
}

// Labels читает имена колонок текущей строки по порядку
func Labels(c Cursor) ([]string, error) {
	count, err := c.ColumnCount()
	if err != nil {
		return nil, err
	}

	labels := make([]string, count)

	for i := range labels {
		if labels[i], err = c.ColumnLabel(i + 1); err != nil {
			return nil, err
		}
	}

	return labels, nil
}
