package db

import (
	"errors"
	"strconv"
	"strings"
)

// Dialect controls how named parameters are rendered for a driver.
type Dialect int

const (
	// Postgres renders positional $n placeholders.
	Postgres Dialect = iota
	// SQLite renders ? placeholders.
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// resolveDriver maps a configured driver name to a dialect and a
// database/sql driver name.
func resolveDriver(driver string) (Dialect, string, error) {
	switch strings.ToLower(driver) {
	case "pgsql", "pgx":
		return Postgres, "pgx", nil
	case "postgres", "pq":
		return Postgres, "postgres", nil
	case "sqlite", "sqlite3":
		return SQLite, "sqlite", nil
	default:
		return 0, "", errors.Join(ErrUnsupportedDriver, errors.New(driver))
	}
}

// compile rewrites :name placeholders into the dialect's form and returns
// the positional arguments. Quoted strings, quoted identifiers, comments
// and :: casts are left untouched.
func (d Dialect) compile(query string, params map[string]any) (string, []any, error) {
	var (
		sb      strings.Builder
		args    []any
		indexes map[string]int
	)
	if d == Postgres {
		indexes = make(map[string]int)
	}

	sb.Grow(len(query))
	n := len(query)
	for i := 0; i < n; i++ {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"':
			end := skipQuoted(query, i, ch)
			sb.WriteString(query[i:end])
			i = end - 1
		case ch == '-' && i+1 < n && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = n - i
			}
			sb.WriteString(query[i : i+end])
			i += end - 1
		case ch == '/' && i+1 < n && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			stop := n
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			sb.WriteString(query[i:stop])
			i = stop - 1
		case ch == ':' && i+1 < n && query[i+1] == ':':
			sb.WriteString("::")
			i++
		case ch == ':' && i+1 < n && isNameStart(query[i+1]):
			j := i + 1
			for j < n && isNameChar(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, errors.Join(ErrMissingBinding, errors.New(name))
			}
			if d == Postgres {
				idx, seen := indexes[name]
				if !seen {
					args = append(args, value)
					idx = len(args)
					indexes[name] = idx
				}
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(idx))
			} else {
				args = append(args, value)
				sb.WriteByte('?')
			}
			i = j - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), args, nil
}

// skipQuoted returns the index just past the closing quote. Doubled quotes
// inside the literal are treated as escapes.
func skipQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != quote {
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
