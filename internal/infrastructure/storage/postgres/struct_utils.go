package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// ExtractDBColumns returns the "db" tag of every field of T in declaration
// order, descending into embedded structs. Called once per repository.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

// without returns cols minus the excluded names.
func without(cols []string, excluded ...string) []string {
	return slices.DeleteFunc(slices.Clone(cols), func(c string) bool {
		return slices.Contains(excluded, c)
	})
}

type fieldInfo struct {
	index    int
	column   string
	embedded bool
}

// typeCache holds []fieldInfo per reflect.Type.
var typeCache sync.Map

func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Anonymous {
			fields = append(fields, fieldInfo{index: i, embedded: true})
			continue
		}
		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			fields = append(fields, fieldInfo{index: i, column: tag})
		}
	}
	typeCache.Store(t, fields)
	return fields
}

// StructToMap converts a struct to a column map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, fi := range fields {
		if fi.embedded {
			for k, v := range StructToMap(rv.Field(fi.index).Interface()) {
				res[k] = v
			}
			continue
		}
		res[fi.column] = rv.Field(fi.index).Interface()
	}
	return res
}

// pick returns the entries of data named by cols.
func pick(data map[string]any, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := data[c]; ok {
			out[c] = v
		}
	}
	return out
}
