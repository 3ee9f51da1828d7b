package catalog

import (
	"fmt"
)

// SortTables returns the tables ordered so that every table comes after the
// tables it references. Ties keep registration order.
func (c *Catalog) SortTables() ([]Table, error) {
	tables := make(map[string]Table, len(c.Tables))
	for _, t := range c.Tables {
		tables[t.Name] = t
	}

	sorted := make([]Table, 0, len(c.Tables))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) error
	visit = func(tableName string) error {
		if visited[tableName] {
			return nil
		}
		if visiting[tableName] {
			return fmt.Errorf("circular dependency detected involving table %s", tableName)
		}

		table, ok := tables[tableName]
		if !ok {
			// references outside the catalog are expected to exist already
			return nil
		}

		visiting[tableName] = true

		for _, dep := range table.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}

		visiting[tableName] = false
		visited[tableName] = true
		sorted = append(sorted, table)

		return nil
	}

	for _, t := range c.Tables {
		if err := visit(t.Name); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}
