// SPDX-License-Identifier: Apache-2.0

package db

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParamStyle identifies one of the placeholder conventions a database
// driver expects, mirroring the DBAPI paramstyle values.
type ParamStyle int

const (
	// ParamStyleQmark uses positional "?" placeholders (SQLite, MySQL, ODBC).
	ParamStyleQmark ParamStyle = iota
	// ParamStyleNumeric uses positional ":1", ":2", ... placeholders.
	ParamStyleNumeric
	// ParamStyleDollar uses positional "$1", "$2", ... placeholders (Postgres).
	ParamStyleDollar
	// ParamStyleFormat uses positional "%s" placeholders.
	ParamStyleFormat
	// ParamStylePyformat uses named "%(name)s" placeholders.
	ParamStylePyformat
	// ParamStyleNamed uses driver-native named placeholders (Oracle).
	ParamStyleNamed
)

// paramPattern matches a ":name" reference that isn't an escape ("\\:name")
// or a type cast ("::int"), terminated by a non-word character or EOS.
var paramPattern = regexp.MustCompile(`(?:[^:\\]|^):(\w+)(\W|$)`)

// Translate rewrites SQL written in the engine's canonical ":name" style
// into the target paramstyle, returning the rewritten SQL and the bind
// arguments in the form the driver expects.
//
// Named-style input with no params is returned unchanged. Positional styles
// (qmark, numeric, format) return a []any of values in statement order;
// pyformat and named styles return sql.NamedArg values, since Go's
// database/sql represents named binds that way regardless of driver.
func Translate(style ParamStyle, sqlText string, params map[string]any) (string, []any, error) {
	if len(params) == 0 {
		return sqlText, nil, nil
	}

	if style == ParamStyleNamed {
		args := make([]any, 0, len(params))
		for name, val := range params {
			args = append(args, sql.Named(name, val))
		}
		return sqlText, args, nil
	}

	var positional []any
	counter := 0
	var rewriteErr error

	out := paramPattern.ReplaceAllStringFunc(sqlText, func(match string) string {
		groups := paramPattern.FindStringSubmatch(match)
		name, trailing := groups[1], groups[2]
		prefix := ""
		if len(match) > 0 && match[0] != ':' {
			prefix = string(match[0])
		}

		val, ok := params[name]
		if !ok {
			rewriteErr = fmt.Errorf("db: no parameter %q supplied for query", name)
			return match
		}

		counter++
		switch style {
		case ParamStyleQmark:
			positional = append(positional, val)
			return prefix + "?" + trailing
		case ParamStyleNumeric:
			positional = append(positional, val)
			return prefix + ":" + strconv.Itoa(counter) + trailing
		case ParamStyleDollar:
			positional = append(positional, val)
			return prefix + "$" + strconv.Itoa(counter) + trailing
		case ParamStyleFormat:
			positional = append(positional, val)
			return prefix + "%s" + trailing
		case ParamStylePyformat:
			return prefix + "%(" + name + ")s" + trailing
		default:
			rewriteErr = fmt.Errorf("db: unsupported paramstyle %d", style)
			return match
		}
	})

	if rewriteErr != nil {
		return "", nil, rewriteErr
	}

	if style == ParamStylePyformat {
		args := make([]any, 0, len(params))
		for name, val := range params {
			args = append(args, sql.Named(name, val))
		}
		return out, args, nil
	}

	return out, positional, nil
}

func (s ParamStyle) String() string {
	switch s {
	case ParamStyleQmark:
		return "qmark"
	case ParamStyleNumeric:
		return "numeric"
	case ParamStyleDollar:
		return "dollar"
	case ParamStyleFormat:
		return "format"
	case ParamStylePyformat:
		return "pyformat"
	case ParamStyleNamed:
		return "named"
	default:
		return strings.ToUpper("unknown")
	}
}
