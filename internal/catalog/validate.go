package catalog

import (
	"fmt"
	"strings"
)

// ValidationError represents a single catalog definition problem
type ValidationError struct {
	Table   string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("table %s: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("table %s: column %s: %s", e.Table, e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("catalog validation failed: %s", strings.Join(messages, "; "))
}

// Validate checks names, types and references of every table
func (c *Catalog) Validate() error {
	var errs ValidationErrors
	tables := make(map[string]Table)

	for _, t := range c.Tables {
		if t.Name == "" {
			errs = append(errs, ValidationError{Message: "table name is empty"})
			continue
		}
		if _, dup := tables[t.Name]; dup {
			errs = append(errs, ValidationError{Table: t.Name, Message: "table declared twice"})
			continue
		}
		tables[t.Name] = t
		errs = append(errs, validateTable(t)...)
	}

	for _, t := range c.Tables {
		for _, col := range t.Columns {
			if col.References == "" {
				continue
			}
			refTable, refCol, ok := col.Reference()
			if !ok {
				errs = append(errs, ValidationError{Table: t.Name, Field: col.Name,
					Message: fmt.Sprintf("malformed reference %q, want table.column", col.References)})
				continue
			}
			target, found := tables[refTable]
			if !found {
				errs = append(errs, ValidationError{Table: t.Name, Field: col.Name,
					Message: fmt.Sprintf("references unknown table %s", refTable)})
				continue
			}
			if !containsString(target.ColumnNames(), refCol) {
				errs = append(errs, ValidationError{Table: t.Name, Field: col.Name,
					Message: fmt.Sprintf("references unknown column %s.%s", refTable, refCol)})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateTable(t Table) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)

	check := func(name string) bool {
		if name == "" {
			errs = append(errs, ValidationError{Table: t.Name, Message: "column name is empty"})
			return false
		}
		if seen[name] {
			errs = append(errs, ValidationError{Table: t.Name, Field: name, Message: "duplicate column name"})
			return false
		}
		seen[name] = true
		return true
	}

	for _, col := range t.Columns {
		if !check(col.Name) {
			continue
		}
		if _, err := ParseColumnType(string(col.Type)); err != nil {
			errs = append(errs, ValidationError{Table: t.Name, Field: col.Name, Message: err.Error()})
		}
	}

	for _, g := range t.Geometry {
		if !check(g.Name) {
			continue
		}
		if g.SRID < 0 {
			errs = append(errs, ValidationError{Table: t.Name, Field: g.Name, Message: "negative srid"})
		}
	}

	if len(t.Columns)+len(t.Geometry) == 0 {
		errs = append(errs, ValidationError{Table: t.Name, Message: "table has no columns"})
	}

	return errs
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
