package orm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInClause is returned by InClause for an empty value list; "in ()" is
// not valid SQL.
var ErrEmptyInClause = errors.New("in clause requires at least one value")

// reservedWords lists the MySQL reserved words used as table or column names
// by the management schema.
var reservedWords = map[string]struct{}{
	"condition": {},
	"group":     {},
	"groups":    {},
	"key":       {},
	"order":     {},
	"rank":      {},
	"type":      {},
	"user":      {},
	"value":     {},
	"view":      {},
}

// EscapeReservedWord quotes name with backticks when it is a reserved word.
func EscapeReservedWord(name string) string {
	if _, ok := reservedWords[strings.ToLower(name)]; ok {
		return "`" + name + "`"
	}
	return name
}

// Placeholders returns n comma separated positional placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// BuildInClause returns the placeholder list for an IN clause over values.
func BuildInClause[V any](values []V) string {
	return Placeholders(len(values))
}

// AppendArguments binds values positionally after args.
func AppendArguments[V any](args []interface{}, values []V) []interface{} {
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

// InClause returns "(?, ?, ...)" and the matching arguments.
func InClause[V any](values []V) (string, []interface{}, error) {
	if len(values) == 0 {
		return "", nil, ErrEmptyInClause
	}
	return "(" + BuildInClause(values) + ")", AppendArguments(nil, values), nil
}

// FilterStrings drops blank entries. The remaining values are kept unchanged
// and in order.
func FilterStrings(values []string) []string {
	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

// BatchInsertStatement builds one multi-row INSERT storing each value against
// parentID in a two-column child table. ok is false when there is nothing to
// insert.
func BatchInsertStatement(table, parentColumn, valueColumn string, parentID interface{}, values []string) (Statement, bool) {
	if len(values) == 0 {
		return Statement{}, false
	}

	rows := make([]string, len(values))
	args := make([]interface{}, 0, len(values)*2)
	for i, v := range values {
		rows[i] = "(?, ?)"
		args = append(args, parentID, v)
	}

	sql := fmt.Sprintf("insert into %s (%s, %s) values %s",
		EscapeReservedWord(table), EscapeReservedWord(parentColumn), EscapeReservedWord(valueColumn),
		strings.Join(rows, ", "))
	return Statement{SQL: sql, Args: args}, true
}
