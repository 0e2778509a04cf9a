package internal

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var errBindTarget = errors.New("internal: bind target must be a non-nil pointer to a struct")

// bindValues copies string parameters into the exported fields of the
// struct pointed to by v. The parameter name comes from the form tag, then
// the json tag, then the field name. Absent parameters leave fields as is.
func bindValues(values map[string]any, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errBindTarget
	}
	return bindStruct(values, rv.Elem())
}

func bindStruct(values map[string]any, rv reflect.Value) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			if err := bindStruct(values, fv); err != nil {
				return err
			}
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}
		raw, ok := values[name]
		if !ok {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		if v, ok := f.Tag.Lookup(tag); ok {
			name, _, _ := strings.Cut(v, ",")
			if name != "" {
				return name
			}
		}
	}
	return f.Name
}

func setField(fv reflect.Value, raw any) error {
	if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() != reflect.Uint8 {
		items := asStrings(raw)
		slice := reflect.MakeSlice(fv.Type(), len(items), len(items))
		for i, s := range items {
			if err := setScalar(slice.Index(i), s); err != nil {
				return err
			}
		}
		fv.Set(slice)
		return nil
	}
	items := asStrings(raw)
	if len(items) == 0 {
		return nil
	}
	return setScalar(fv, items[0])
}

func setScalar(fv reflect.Value, s string) error {
	if fv.Kind() == reflect.Pointer {
		if s == "" {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		ptr := reflect.New(fv.Type().Elem())
		if err := setScalar(ptr.Elem(), s); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(s)
	case reflect.Bool:
		if s == "" {
			fv.SetBool(false)
			return nil
		}
		if s == "on" {
			s = "true"
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseUint(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}

func asStrings(raw any) []string {
	switch t := raw.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringify(item))
		}
		return out
	default:
		return []string{stringify(t)}
	}
}
