// Package catalog holds the declarative table definitions dbflow creates in
// the store when they are missing.
package catalog

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type of a catalog column
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeReal      ColumnType = "real"
	TypeText      ColumnType = "text"
	TypeTimestamp ColumnType = "timestamp"
	TypeBoolean   ColumnType = "boolean"
	TypeBlob      ColumnType = "blob"
)

var typeAliases = map[string]ColumnType{
	"integer":   TypeInteger,
	"int":       TypeInteger,
	"bigint":    TypeInteger,
	"real":      TypeReal,
	"float":     TypeReal,
	"double":    TypeReal,
	"text":      TypeText,
	"string":    TypeText,
	"varchar":   TypeText,
	"timestamp": TypeTimestamp,
	"datetime":  TypeTimestamp,
	"date":      TypeTimestamp,
	"boolean":   TypeBoolean,
	"bool":      TypeBoolean,
	"blob":      TypeBlob,
}

// ParseColumnType normalizes a type name from a catalog file
func ParseColumnType(s string) (ColumnType, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Column is a non-geometry column definition
type Column struct {
	Name       string     `yaml:"name"`
	Type       ColumnType `yaml:"type"`
	PrimaryKey bool       `yaml:"primary_key,omitempty"`
	NotNull    bool       `yaml:"not_null,omitempty"`
	Default    string     `yaml:"default,omitempty"`    // raw SQL expression, e.g. CURRENT_TIMESTAMP
	References string     `yaml:"references,omitempty"` // "table.column"
}

// Reference splits References into table and column
func (c Column) Reference() (table, column string, ok bool) {
	if c.References == "" {
		return "", "", false
	}
	parts := strings.SplitN(c.References, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// GeometryColumn is a geometry-typed column with its spatial reference
type GeometryColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // POINT, POLYGON, MULTIPOLYGON, GEOMETRY...
	SRID int    `yaml:"srid"`
}

// Table is one entity of the catalog
type Table struct {
	Name     string           `yaml:"name"`
	Columns  []Column         `yaml:"columns"`
	Geometry []GeometryColumn `yaml:"geometry,omitempty"`
}

// PrimaryKeys returns the primary-key column names in declaration order
func (t Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// ColumnNames returns every column name, geometry columns last
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+len(t.Geometry))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	for _, g := range t.Geometry {
		names = append(names, g.Name)
	}
	return names
}

// Dependencies returns the tables this table references, in first-seen order
func (t Table) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, c := range t.Columns {
		ref, _, ok := c.Reference()
		if !ok || ref == t.Name || seen[ref] {
			continue
		}
		seen[ref] = true
		deps = append(deps, ref)
	}
	return deps
}

// Catalog is an ordered registration list of tables
type Catalog struct {
	Tables []Table `yaml:"tables"`
}

// New creates a catalog from an explicit list of tables
func New(tables ...Table) *Catalog {
	c := &Catalog{}
	c.Register(tables...)
	return c
}

// Register appends tables to the catalog
func (c *Catalog) Register(tables ...Table) {
	c.Tables = append(c.Tables, tables...)
}

// Len returns the number of registered tables
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Tables)
}

// Table looks up a table by name
func (c *Catalog) Table(name string) (Table, bool) {
	if c == nil {
		return Table{}, false
	}
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// TableNames returns the registered table names in registration order
func (c *Catalog) TableNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		names[i] = t.Name
	}
	return names
}
