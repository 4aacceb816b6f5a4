// Package sqlxrepos implements the domain repositories on top of sqlx with
// hand-written SQL. Queries use `?` placeholders and are rebound for the
// active driver, so the same repositories serve both the SQLite development
// database and PostgreSQL.
package sqlxrepos

import (
	"strings"

	"github.com/yardimel/yardimel/core"
)

func orderClause(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// contains builds a case-insensitive LIKE pattern for a search keyword.
func contains(keyword string) string {
	return "%" + strings.ToLower(keyword) + "%"
}

// placeholders returns n comma-separated `?` markers for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
