package testing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SQLText checks generated SQL. Every check reports through t and returns the
// receiver so checks can be chained.
type SQLText struct {
	t   testing.TB
	sql string
}

// SQL wraps generated SQL text for checking
func SQL(t testing.TB, sql string) *SQLText {
	return &SQLText{t: t, sql: sql}
}

// Contains checks that every fragment occurs in the SQL. Keywords are
// compared case insensitively when the fragment is all upper case.
func (s *SQLText) Contains(fragments ...string) *SQLText {
	s.t.Helper()
	for _, f := range fragments {
		haystack := s.sql
		if f == strings.ToUpper(f) {
			haystack = strings.ToUpper(haystack)
		}
		assert.Contains(s.t, haystack, f, "SQL:\n%s", s.sql)
	}
	return s
}

// Excludes checks that no fragment occurs in the SQL
func (s *SQLText) Excludes(fragments ...string) *SQLText {
	s.t.Helper()
	for _, f := range fragments {
		assert.NotContains(s.t, s.sql, f, "SQL:\n%s", s.sql)
	}
	return s
}

// Placeholders checks the number of bound parameters. Question marks inside
// quoted identifiers or literals are not counted.
func (s *SQLText) Placeholders(expected int) *SQLText {
	s.t.Helper()

	count := 0
	var quote rune
	for _, r := range s.sql {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '?':
			count++
		}
	}
	assert.Equal(s.t, expected, count, "placeholders in SQL:\n%s", s.sql)
	return s
}

// Schema checks the live schema of a test database
type Schema struct {
	t   testing.TB
	tdb *TestDB
}

// ExpectSchema starts schema checks against tdb
func ExpectSchema(t testing.TB, tdb *TestDB) *Schema {
	return &Schema{t: t, tdb: tdb}
}

// HasTables checks that every named table exists
func (s *Schema) HasTables(names ...string) *Schema {
	s.t.Helper()
	for _, name := range names {
		exists, err := s.tdb.TableExists(name)
		require.NoError(s.t, err)
		assert.True(s.t, exists, "table %s", name)
	}
	return s
}

// LacksTable checks that the named table does not exist
func (s *Schema) LacksTable(name string) *Schema {
	s.t.Helper()
	exists, err := s.tdb.TableExists(name)
	require.NoError(s.t, err)
	assert.False(s.t, exists, "table %s", name)
	return s
}

// Column checks that table has column declared with declType
func (s *Schema) Column(table, column, declType string) *Schema {
	s.t.Helper()
	exists, err := s.tdb.ColumnExists(table, column)
	require.NoError(s.t, err)
	if !assert.True(s.t, exists, "column %s.%s", table, column) {
		return s
	}

	actual, err := s.tdb.GetColumnType(table, column)
	require.NoError(s.t, err)
	assert.Equal(s.t, declType, actual, "declared type of %s.%s", table, column)
	return s
}

// Rows checks the number of rows in table
func (s *Schema) Rows(table string, expected int) *Schema {
	s.t.Helper()
	n, err := s.tdb.RowCount(table)
	require.NoError(s.t, err)
	assert.Equal(s.t, expected, n, "rows in %s", table)
	return s
}
