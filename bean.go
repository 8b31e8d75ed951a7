package rowset

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// DefaultTag - тег поля структуры с именем колонки
const DefaultTag = "db"

type (
	// BeanProcessor заполняет структуры значениями колонок текущей строки
	//
	// Описания типов строятся один раз и переиспользуются, поэтому процессор
	// безопасен для конкурентного использования с разными курсорами.
	BeanProcessor struct {
		tag         string
		overrides   map[string]string
		descriptors sync.Map // reflect.Type -> *Descriptor
	}

	// BeanOption - опция BeanProcessor
	BeanOption func(p *BeanProcessor)

	// Defaulter - структура с начальными значениями полей
	//
	// SetDefaults вызывается сразу после создания экземпляра, до записи колонок.
	Defaulter interface {
		SetDefaults() error
	}

	// Descriptor - неизменяемая таблица полей структуры по нормализованному имени
	Descriptor struct {
		typ   reflect.Type
		slots map[string]*Slot
	}

	// Slot - поле структуры, доступное для записи
	Slot struct {
		Name  string
		Index []int
		Type  reflect.Type
	}

	// ConstructError - экземпляр целевого типа не может быть создан
	ConstructError struct {
		Type reflect.Type
		Err  error
	}
)

// WithTag задает тег с именами колонок (по умолчанию "db")
func WithTag(tag string) BeanOption {
	return func(p *BeanProcessor) {
		p.tag = tag
	}
}

// WithOverrides задает соответствие имя колонки -> имя поля
func WithOverrides(overrides map[string]string) BeanOption {
	return func(p *BeanProcessor) {
		for column, property := range overrides {
			p.overrides[normalizeName(column)] = normalizeName(property)
		}
	}
}

// NewBeanProcessor конструктор BeanProcessor
func NewBeanProcessor(opts ...BeanOption) *BeanProcessor {
	p := &BeanProcessor{
		tag:       DefaultTag,
		overrides: make(map[string]string),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (e *ConstructError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", ErrConstruct, e.Type, e.Err)
	}

	return fmt.Sprintf("%s %s", ErrConstruct, e.Type)
}

func (e *ConstructError) Is(target error) bool {
	return target == ErrConstruct
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

// Describe возвращает описание полей структуры target (структура или указатель на нее)
func (p *BeanProcessor) Describe(target reflect.Type) (*Descriptor, error) {
	st := target
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}

	if st.Kind() != reflect.Struct {
		return nil, &ConstructError{Type: target}
	}

	if v, ok := p.descriptors.Load(st); ok {
		return v.(*Descriptor), nil
	}

	d := p.buildDescriptor(st)
	v, _ := p.descriptors.LoadOrStore(st, d)

	return v.(*Descriptor), nil
}

// ToBean создает экземпляр target и заполняет его колонками текущей строки
//
// Колонки без подходящего поля пропускаются, поля без колонки сохраняют
// начальные значения. При ошибке частично заполненный экземпляр не возвращается.
func (p *BeanProcessor) ToBean(c Cursor, target reflect.Type) (any, error) {
	desc, err := p.Describe(target)
	if err != nil {
		return nil, err
	}

	rv := reflect.New(desc.typ)

	if d, ok := rv.Interface().(Defaulter); ok {
		if err = d.SetDefaults(); err != nil {
			return nil, &ConstructError{Type: target, Err: err}
		}
	}

	labels, err := Labels(c)
	if err != nil {
		return nil, err
	}

	for i, label := range labels {
		slot, ok := p.lookup(desc, label)
		if !ok {
			continue
		}

		raw, err := c.Value(Ordinal(i + 1))
		if err != nil {
			return nil, err
		}

		if err = assign(fieldByPathAlloc(rv.Elem(), slot.Index), raw); err != nil {
			return nil, &CoercionError{
				Column:   label,
				Property: slot.Name,
				Value:    raw,
				Target:   slot.Type,
				Err:      err,
			}
		}
	}

	if target.Kind() == reflect.Ptr {
		return rv.Interface(), nil
	}

	return rv.Elem().Interface(), nil
}

func (p *BeanProcessor) lookup(desc *Descriptor, label string) (*Slot, bool) {
	key := normalizeName(label)
	if property, ok := p.overrides[key]; ok {
		key = property
	}

	return desc.Lookup(key)
}

// Type возвращает описываемый тип структуры
func (d *Descriptor) Type() reflect.Type {
	return d.typ
}

// Lookup ищет поле по имени колонки или свойства
func (d *Descriptor) Lookup(name string) (*Slot, bool) {
	slot, ok := d.slots[normalizeName(name)]

	return slot, ok
}

// Len возвращает количество заполняемых полей
func (d *Descriptor) Len() int {
	return len(d.slots)
}

func (p *BeanProcessor) buildDescriptor(rt reflect.Type) *Descriptor {
	d := &Descriptor{typ: rt, slots: make(map[string]*Slot)}

	var walk func(t reflect.Type, base []int, forceInline bool)
	walk = func(t reflect.Type, base []int, forceInline bool) {
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}

		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() && !sf.Anonymous {
				continue
			}

			tag := sf.Tag.Get(p.tag)
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}

			path := append(append([]int(nil), base...), i)

			if inline || (sf.Anonymous && (forceInline || tag == "")) {
				if ft := sf.Type; isStruct(ft) && ft != timeType && !implementsScanner(ft) {
					// неэкспортируемый встроенный указатель нельзя создать
					if !sf.IsExported() && ft.Kind() == reflect.Ptr {
						continue
					}

					walk(ft, path, inline)
					continue
				}
			}

			if !sf.IsExported() {
				continue
			}

			if name == "" {
				name = sf.Name
			}

			key := normalizeName(name)
			if _, ok := d.slots[key]; !ok {
				d.slots[key] = &Slot{Name: sf.Name, Index: path, Type: sf.Type}
			}
		}
	}
	walk(rt, nil, false)

	return d
}

// parseTag разбирает теги "-", "col", ",inline", "col,inline", "inline,col"
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}

	for _, part := range strings.Split(tag, ",") {
		switch {
		case part == "inline":
			inline = true
		case part != "" && name == "":
			name = part
		}
	}

	return name, inline, false
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct
}

func implementsScanner(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(scannerType) || t.Implements(scannerType)
}

// fieldByPathAlloc проходит по fpath, создавая nil встроенные указатели
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root

	for n, i := range fpath {
		if n > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(i)
	}

	return v
}

// normalizeName снимает кавычки, приводит к нижнему регистру и убирает
// разделители: "FIRST_NAME", "first-name" и "FirstName" совпадают
func normalizeName(s string) string {
	if l := len(s); l >= 2 {
		switch {
		case s[0] == '"' && s[l-1] == '"',
			s[0] == '`' && s[l-1] == '`',
			s[0] == '[' && s[l-1] == ']':
			s = s[1 : l-1]
		}
	}

	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '_', '-', '.', ' ':
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
