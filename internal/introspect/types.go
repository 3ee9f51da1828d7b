package introspect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownTable is returned when a table is not part of the reflected schema
var ErrUnknownTable = errors.New("unknown table")

// ColumnType is the semantic type of a reflected column
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeReal      ColumnType = "real"
	TypeText      ColumnType = "text"
	TypeTimestamp ColumnType = "timestamp"
	TypeBoolean   ColumnType = "boolean"
	TypeGeometry  ColumnType = "geometry"
	TypeBlob      ColumnType = "blob"
)

// Numeric reports whether values for the type are stored as numbers.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeReal
}

// Column describes a column of a reflected table
type Column struct {
	Name       string     `json:"name" yaml:"name"`
	Type       ColumnType `json:"type" yaml:"type"`
	RawType    string     `json:"raw_type" yaml:"raw_type"`
	PrimaryKey bool       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	NotNull    bool       `json:"not_null,omitempty" yaml:"not_null,omitempty"`
}

// GeometryColumn describes a geometry typed column
type GeometryColumn struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	SRID int    `json:"srid" yaml:"srid"`
}

// Table describes one reflected table
type Table struct {
	Name       string           `json:"name" yaml:"name"`
	Columns    []Column         `json:"columns" yaml:"columns"`
	PrimaryKey []string         `json:"primary_key" yaml:"primary_key"`
	Geometry   []GeometryColumn `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// GeometryColumn returns the named geometry column.
func (t *Table) GeometryColumn(name string) (GeometryColumn, bool) {
	for _, g := range t.Geometry {
		if g.Name == name {
			return g, true
		}
	}
	return GeometryColumn{}, false
}

// SchemaIndex is the in-memory snapshot of the store's tables. It is built
// wholesale by Inspector.Reflect and never modified afterwards.
type SchemaIndex struct {
	tables      map[string]*Table
	names       []string
	InspectedAt time.Time
}

// NewSchemaIndex builds an index over the given tables.
func NewSchemaIndex(tables ...*Table) *SchemaIndex {
	idx := &SchemaIndex{
		tables:      make(map[string]*Table, len(tables)),
		InspectedAt: time.Now(),
	}
	for _, t := range tables {
		if _, dup := idx.tables[t.Name]; !dup {
			idx.names = append(idx.names, t.Name)
		}
		idx.tables[t.Name] = t
	}
	sort.Strings(idx.names)
	return idx
}

// Len returns the number of tables.
func (s *SchemaIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// TableNames returns the table names in sorted order.
func (s *SchemaIndex) TableNames() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Tables returns every table in name order.
func (s *SchemaIndex) Tables() []*Table {
	if s == nil {
		return nil
	}
	out := make([]*Table, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.tables[n])
	}
	return out
}

// HasTable reports whether the table exists.
func (s *SchemaIndex) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// HasColumn reports whether the table exists and has the column.
func (s *SchemaIndex) HasColumn(table, column string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	_, ok = t.Column(column)
	return ok
}

// Table returns the metadata of a table.
func (s *SchemaIndex) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tables[name]
	return t, ok
}

func (s *SchemaIndex) lookup(name string) (*Table, error) {
	t, ok := s.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Columns returns the ordered column names of a table.
func (s *SchemaIndex) Columns(table string) ([]string, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return t.ColumnNames(), nil
}

// PrimaryKeys returns the primary key columns of a table, possibly empty.
func (s *SchemaIndex) PrimaryKeys(table string) ([]string, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), t.PrimaryKey...), nil
}

// GeometryColumns returns the geometry columns of a table, possibly empty.
func (s *SchemaIndex) GeometryColumns(table string) ([]GeometryColumn, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return append([]GeometryColumn(nil), t.Geometry...), nil
}

// AllGeometryColumns returns the geometry columns of every table that has any.
func (s *SchemaIndex) AllGeometryColumns() map[string][]GeometryColumn {
	out := make(map[string][]GeometryColumn)
	for _, t := range s.Tables() {
		if len(t.Geometry) > 0 {
			out[t.Name] = append([]GeometryColumn(nil), t.Geometry...)
		}
	}
	return out
}

var geometryTypeNames = map[string]bool{
	"GEOMETRY":           true,
	"POINT":              true,
	"LINESTRING":         true,
	"POLYGON":            true,
	"MULTIPOINT":         true,
	"MULTILINESTRING":    true,
	"MULTIPOLYGON":       true,
	"GEOMETRYCOLLECTION": true,
}

// IsGeometryType reports whether a declared column type names a geometry.
func IsGeometryType(raw string) bool {
	return geometryTypeNames[normalizeRawType(raw)]
}

// normalizeRawType upper cases a declared type and strips its size modifier
// and dimension suffix, e.g. "varchar(20)" -> "VARCHAR", "POLYGON Z" -> "POLYGON".
func normalizeRawType(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexByte(raw, '('); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	for _, suffix := range []string{" ZM", " Z", " M"} {
		raw = strings.TrimSuffix(raw, suffix)
	}
	return raw
}

// semanticType maps a declared SQLite type to a semantic type following the
// SQLite affinity rules, with timestamp and boolean names recognized first.
func semanticType(raw string) ColumnType {
	t := normalizeRawType(raw)
	switch {
	case geometryTypeNames[t]:
		return TypeGeometry
	case t == "BOOLEAN" || t == "BOOL":
		return TypeBoolean
	case strings.Contains(t, "DATE") || strings.Contains(t, "TIME"):
		return TypeTimestamp
	case strings.Contains(t, "INT"):
		return TypeInteger
	case strings.Contains(t, "CHAR") || strings.Contains(t, "CLOB") || strings.Contains(t, "TEXT"):
		return TypeText
	case t == "" || strings.Contains(t, "BLOB"):
		return TypeBlob
	case strings.Contains(t, "REAL") || strings.Contains(t, "FLOA") || strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC") || strings.Contains(t, "DECIMAL"):
		return TypeReal
	}
	return TypeText
}
