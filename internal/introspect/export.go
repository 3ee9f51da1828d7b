package introspect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportFormat represents the format for exporting schema
type ExportFormat string

const (
	ExportFormatText     ExportFormat = "text"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
	ExportFormatMarkdown ExportFormat = "markdown"
)

type exportedSchema struct {
	InspectedAt time.Time `json:"inspected_at" yaml:"inspected_at"`
	Tables      []*Table  `json:"tables" yaml:"tables"`
}

// Export renders the index, or only the named tables when given, in the
// requested format.
func Export(idx *SchemaIndex, format ExportFormat, only ...string) ([]byte, error) {
	doc := exportedSchema{InspectedAt: idx.InspectedAt}
	if len(only) == 0 {
		doc.Tables = idx.Tables()
	} else {
		for _, name := range only {
			t, ok := idx.Table(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
			}
			doc.Tables = append(doc.Tables, t)
		}
	}

	switch format {
	case ExportFormatText, "":
		return exportText(doc), nil
	case ExportFormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case ExportFormatYAML:
		return yaml.Marshal(doc)
	case ExportFormatMarkdown:
		return exportMarkdown(doc), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportText(doc exportedSchema) []byte {
	var b strings.Builder
	for _, t := range doc.Tables {
		b.WriteString(t.Name)
		if len(t.PrimaryKey) > 0 {
			b.WriteString(fmt.Sprintf(" (pk: %s)", strings.Join(t.PrimaryKey, ", ")))
		}
		b.WriteString("\n")
		for _, c := range t.Columns {
			b.WriteString(fmt.Sprintf("  %-24s %s", c.Name, c.Type))
			if g, ok := t.GeometryColumn(c.Name); ok {
				b.WriteString(fmt.Sprintf(" %s srid=%d", g.Type, g.SRID))
			}
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

func exportMarkdown(doc exportedSchema) []byte {
	var b strings.Builder

	b.WriteString("# Store Schema\n\n")
	b.WriteString(fmt.Sprintf("Generated on: %s\n\n", doc.InspectedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- **Tables**: %d\n\n", len(doc.Tables)))

	for _, table := range doc.Tables {
		b.WriteString(fmt.Sprintf("## %s\n\n", table.Name))

		b.WriteString("| Name | Type | Declared | PK | Nullable |\n")
		b.WriteString("|------|------|----------|----|----------|\n")
		for _, col := range table.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = "YES"
			}
			nullable := "YES"
			if col.NotNull {
				nullable = "NO"
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", col.Name, col.Type, col.RawType, pk, nullable))
		}
		b.WriteString("\n")

		if len(table.PrimaryKey) > 0 {
			b.WriteString(fmt.Sprintf("- **Primary Key**: %s\n", strings.Join(table.PrimaryKey, ", ")))
		}
		for _, g := range table.Geometry {
			b.WriteString(fmt.Sprintf("- **Geometry**: %s %s (SRID %d)\n", g.Name, g.Type, g.SRID))
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}
