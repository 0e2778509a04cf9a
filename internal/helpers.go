package internal

import "strconv"

// Scalar is the set of types the typed parameter helpers convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the context value stored under key, or the zero
// value of T.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Param converts a path parameter. Unparseable values yield the zero value.
func Param[T Scalar](c Context, name string) T {
	v, _ := parse[T](c.Param(name))
	return v
}

// ParamOK converts a path parameter and reports whether it parsed.
func ParamOK[T Scalar](c Context, name string) (T, bool) {
	return parse[T](c.Param(name))
}

// Query converts a query parameter. Unparseable values yield the zero value.
func Query[T Scalar](c Context, name string) T {
	v, _ := parse[T](c.Query(name))
	return v
}

// QueryDefault converts a query parameter, falling back to def when the
// parameter is empty or cannot be parsed.
func QueryDefault[T Scalar](c Context, name string, def T) T {
	return orDefault(c.Query(name), def)
}

// InputDefault is QueryDefault over query and body parameters.
func InputDefault[T Scalar](c Context, name string, def T) T {
	return orDefault(c.Input(name), def)
}

func orDefault[T Scalar](raw string, def T) T {
	if raw == "" {
		return def
	}
	if v, ok := parse[T](raw); ok {
		return v
	}
	return def
}

func parse[T Scalar](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	return v.(T), true
}
