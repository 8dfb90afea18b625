package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Schema renders the DDL for a table. It must be idempotent.
	Schema func(table string) []string
	// IsConflict reports unique-key violations.
	IsConflict func(err error) bool
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidateTable rejects table names that would need quoting.
func ValidateTable(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// DollarPlaceholder renders $1, $2, ...
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// QuestionPlaceholder renders ? for every parameter.
func QuestionPlaceholder(int) string { return "?" }

// escapeLike escapes LIKE wildcards; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
