package rowset

import (
	"strings"
)

// TrimSpace обрезает пробельные символы по краям строковых значений,
// остальные значения возвращает без изменений
func TrimSpace(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}

	return v
}

// TrimStrings оборачивает курсор так, что строковые результаты String и Value
// возвращаются без пробелов по краям
func TrimStrings(c Cursor) *Wrapper {
	return Wrap(c, Intercept(TrimSpace, OpString, OpValue))
}
