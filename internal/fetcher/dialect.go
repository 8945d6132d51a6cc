package fetcher

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// dialect captures the differences between the supported databases.
type dialect struct {
	name   string
	driver string
	named  bool
	quote  func(ident string) string
	bind   func(position int, name string) string
}

var (
	postgresDialect = dialect{
		name:   "postgres",
		driver: "pgx",
		quote:  quoteWith(`"`, `"`),
		bind:   func(position int, _ string) string { return "$" + strconv.Itoa(position) },
	}
	mysqlDialect = dialect{
		name:   "mysql",
		driver: "mysql",
		quote:  quoteWith("`", "`"),
		bind:   func(int, string) string { return "?" },
	}
	sqlServerDialect = dialect{
		name:   "sqlserver",
		driver: "sqlserver",
		named:  true,
		quote:  quoteWith("[", "]"),
		bind:   func(_ int, name string) string { return "@" + name },
	}
)

var (
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	paramName     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	paramMarker   = regexp.MustCompile(`@@?[A-Za-z_][A-Za-z0-9_]*`)
	mysqlURLStart = "mysql://"
)

// detectDialect picks the driver from the connection string and returns the
// DSN in the form the driver expects.
func detectDialect(conn string) (dialect, string, error) {
	trimmed := strings.TrimSpace(conn)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgresDialect, trimmed, nil
	case strings.HasPrefix(lower, mysqlURLStart):
		return mysqlDialect, trimmed[len(mysqlURLStart):], nil
	case strings.HasPrefix(lower, "sqlserver://"):
		return sqlServerDialect, trimmed, nil
	case strings.Contains(lower, "@tcp(") || strings.Contains(lower, "@unix("):
		return mysqlDialect, trimmed, nil
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return postgresDialect, trimmed, nil
	case strings.Contains(lower, "server=") || strings.Contains(lower, "data source="):
		return sqlServerDialect, trimmed, nil
	default:
		return dialect{}, "", fmt.Errorf("unrecognized connection string format")
	}
}

// buildStatement turns a view name or statement plus parameters into SQL and
// arguments for d. A bare identifier selects the whole view filtered by one
// equality per parameter; any other text runs as written with @name markers
// bound to parameters.
func buildStatement(d dialect, view string, params map[string]any) (string, []any, error) {
	view = strings.TrimSpace(view)
	if view == "" {
		return "", nil, fmt.Errorf("view name is empty")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !paramName.MatchString(k) {
			return "", nil, fmt.Errorf("invalid parameter name %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stmt := view
	if identPattern.MatchString(view) {
		stmt = "SELECT * FROM " + d.quote(view)
		if len(keys) > 0 {
			filters := make([]string, 0, len(keys))
			for _, k := range keys {
				filters = append(filters, d.quote(k)+" = @"+k)
			}
			stmt += " WHERE " + strings.Join(filters, " AND ")
		}
	}

	if d.named {
		args := make([]any, 0, len(keys))
		for _, k := range keys {
			args = append(args, sql.Named(k, params[k]))
		}
		return stmt, args, nil
	}

	var args []any
	stmt = paramMarker.ReplaceAllStringFunc(stmt, func(marker string) string {
		if strings.HasPrefix(marker, "@@") {
			return marker
		}
		name := marker[1:]
		value, ok := params[name]
		if !ok {
			return marker
		}
		args = append(args, value)
		return d.bind(len(args), name)
	})
	return stmt, args, nil
}

// viewExistsQuery looks the view up in the standard catalog.
func viewExistsQuery(d dialect) string {
	return "SELECT COUNT(*) FROM INFORMATION_SCHEMA.VIEWS WHERE TABLE_NAME = " + d.bind(1, "ViewName")
}

func viewExistsArg(d dialect, table string) any {
	if d.named {
		return sql.Named("ViewName", table)
	}
	return table
}

// tableName strips an optional schema qualifier.
func tableName(view string) string {
	if i := strings.LastIndex(view, "."); i >= 0 {
		return view[i+1:]
	}
	return view
}

func quoteWith(open, close string) func(string) string {
	return func(ident string) string {
		parts := strings.Split(ident, ".")
		for i, p := range parts {
			parts[i] = open + strings.ReplaceAll(p, close, close+close) + close
		}
		return strings.Join(parts, ".")
	}
}
