package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/eduadmin/internal/content"
)

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// scopeArgs returns the leading query arguments of a screen: the academic
// year for year-scoped screens, nothing otherwise.
func scopeArgs(s content.Screen, scope content.Scope) []any {
	if s.YearScoped {
		return []any{scope.AcademicYear}
	}
	return nil
}

func selectQuery(s content.Screen, scope content.Scope) (string, []any) {
	return s.Query, scopeArgs(s, scope)
}

func getQuery(s content.Screen, scope content.Scope, key string) (string, []any) {
	args := scopeArgs(s, scope)
	args = append(args, key)
	return fmt.Sprintf("SELECT * FROM (%s) q WHERE q.%s::text = $%d",
		s.Query, quoteIdentifier(s.KeyField), len(args)), args
}

func countQuery(s content.Screen, scope content.Scope) (string, []any) {
	return fmt.Sprintf("SELECT count(*) FROM (%s) q", s.Query), scopeArgs(s, scope)
}

// sortedFields returns the field names in a stable order so generated SQL
// is deterministic.
func sortedFields(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func insertQuery(s content.Screen, scope content.Scope, fields map[string]any) (string, []any) {
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	if s.YearColumn != "" {
		values[s.YearColumn] = scope.AcademicYear
	}

	names := sortedFields(values)
	cols := make([]string, len(names))
	params := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		cols[i] = quoteIdentifier(n)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = coerceArg(values[n])
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s::text",
		quoteIdentifier(s.Table),
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
		quoteIdentifier(s.KeyField),
	), args
}

// inScope restricts a write to keys the screen can see within scope. The
// screen query reads its scope arguments from $1.
func inScope(s content.Screen) string {
	return fmt.Sprintf("%s::text IN (SELECT q.%s::text FROM (%s) q)",
		quoteIdentifier(s.KeyField), quoteIdentifier(s.KeyField), s.Query)
}

// setClause appends the field values to args and returns the SET list.
func setClause(fields map[string]any, args []any) (string, []any) {
	names := sortedFields(fields)
	sets := make([]string, len(names))
	for i, n := range names {
		args = append(args, coerceArg(fields[n]))
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(n), len(args))
	}
	return strings.Join(sets, ", "), args
}

func updateQuery(s content.Screen, scope content.Scope, key string, fields map[string]any) (string, []any) {
	sets, args := setClause(fields, scopeArgs(s, scope))
	args = append(args, key)

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s::text = $%d AND %s RETURNING %s::text",
		quoteIdentifier(s.Table),
		sets,
		quoteIdentifier(s.KeyField),
		len(args),
		inScope(s),
		quoteIdentifier(s.KeyField),
	), args
}

func updateManyQuery(s content.Screen, scope content.Scope, keys []string, fields map[string]any) (string, []any) {
	sets, args := setClause(fields, scopeArgs(s, scope))
	args = append(args, keys)

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s::text = ANY($%d) AND %s",
		quoteIdentifier(s.Table),
		sets,
		quoteIdentifier(s.KeyField),
		len(args),
		inScope(s),
	), args
}

func deleteQuery(s content.Screen, scope content.Scope, keys []string) (string, []any) {
	args := append(scopeArgs(s, scope), keys)
	return fmt.Sprintf("DELETE FROM %s WHERE %s::text = ANY($%d) AND %s",
		quoteIdentifier(s.Table),
		quoteIdentifier(s.KeyField),
		len(args),
		inScope(s),
	), args
}

// coerceArg adapts JSON-decoded values for pgx: whole floats become
// integers so they bind to integer columns.
func coerceArg(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return x
	default:
		return v
	}
}
