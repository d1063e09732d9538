package model

import (
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FieldChange — одно изменённое поле: {from, to}.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes — набор изменений по именам колонок. Это и diff для аудита,
// и источник значений для UPDATE.
type Changes map[string]FieldChange

// Track добавляет поле, если значение действительно меняется.
func (c Changes) Track(column string, from, to any) {
	from, to = normalize(from), normalize(to)
	if equalValues(from, to) {
		return
	}
	c[column] = FieldChange{From: from, To: to}
}

// Fields — отсортированный список изменённых полей.
func (c Changes) Fields() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values — новые значения для UPDATE.
func (c Changes) Values() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.To
	}
	return out
}

// Empty сообщает, что менять нечего.
func (c Changes) Empty() bool {
	return len(c) == 0
}

// Created строит diff создания: все поля с from = null.
func Created(snapshot map[string]any) Changes {
	c := make(Changes, len(snapshot))
	for k, v := range snapshot {
		c[k] = FieldChange{From: nil, To: normalize(v)}
	}
	return c
}

// Deleted строит diff удаления: все поля с to = null.
func Deleted(snapshot map[string]any) Changes {
	c := make(Changes, len(snapshot))
	for k, v := range snapshot {
		c[k] = FieldChange{From: normalize(v), To: nil}
	}
	return c
}

// normalize разворачивает указатели, чтобы nil-указатель и nil сравнивались одинаково,
// и приводит время к UTC.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case time.Time:
		return t.UTC()
	case *uuid.UUID:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return *t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *bool:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}

func equalValues(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}
