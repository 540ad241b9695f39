package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// BindQuery creates a query parameter binder function.
//
// Fields are matched by the `query:"name"` tag; `query:"-"` skips a field.
// Supported types are string, []string, bool and the integer kinds. Empty
// parameters leave the field untouched.
//
//	type DeleteRequest struct {
//		ID string `query:"id"`
//	}
func BindQuery() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrInvalidQuery)
		}
		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidQuery)
		}

		values := r.URL.Query()
		rt := rv.Type()
		for i := range rv.NumField() {
			field := rv.Field(i)
			sf := rt.Field(i)
			if !field.CanSet() {
				continue
			}

			name := sf.Tag.Get("query")
			if name == "-" {
				continue
			}
			name, _, _ = strings.Cut(name, ",")
			if name == "" {
				name = strings.ToLower(sf.Name)
			}

			raw, ok := values[name]
			if !ok || len(raw) == 0 {
				continue
			}
			if err := setField(field, raw); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidQuery, name, err)
			}
		}
		return nil
	}
}

func setField(field reflect.Value, raw []string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw[0])
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var out []string
		for _, v := range raw {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		field.Set(reflect.ValueOf(out).Convert(field.Type()))
	case reflect.Bool:
		if raw[0] == "" {
			return nil
		}
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw[0] == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw[0], 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}
