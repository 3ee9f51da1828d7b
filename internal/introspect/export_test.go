package introspect

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func createTestIndex() *SchemaIndex {
	return NewSchemaIndex(
		&Table{
			Name: "areaofinterest",
			Columns: []Column{
				{Name: "fid", Type: TypeInteger, RawType: "INTEGER", PrimaryKey: true, NotNull: true},
				{Name: "aoi", Type: TypeText, RawType: "TEXT", PrimaryKey: true, NotNull: true},
				{Name: "field_geom", Type: TypeGeometry, RawType: "BLOB"},
			},
			PrimaryKey: []string{"fid", "aoi"},
			Geometry:   []GeometryColumn{{Name: "field_geom", Type: "POLYGON", SRID: 4326}},
		},
		&Table{
			Name:       "aoilegend",
			Columns:    []Column{{Name: "aoi", Type: TypeText, RawType: "TEXT", PrimaryKey: true}},
			PrimaryKey: []string{"aoi"},
		},
	)
}

func TestExportJSON(t *testing.T) {
	output, err := Export(createTestIndex(), ExportFormatJSON)
	require.NoError(t, err)

	var result struct {
		Tables []Table `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(output, &result))
	require.Len(t, result.Tables, 2)
	assert.Equal(t, "aoilegend", result.Tables[0].Name)
	assert.Equal(t, []string{"fid", "aoi"}, result.Tables[1].PrimaryKey)
}

func TestExportYAML(t *testing.T) {
	output, err := Export(createTestIndex(), ExportFormatYAML, "areaofinterest")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, yaml.Unmarshal(output, &result))

	tables, ok := result["tables"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tables, 1)
}

func TestExportMarkdown(t *testing.T) {
	output, err := Export(createTestIndex(), ExportFormatMarkdown)
	require.NoError(t, err)

	for _, want := range []string{
		"# Store Schema",
		"## areaofinterest",
		"| fid | integer | INTEGER | YES | NO |",
		"- **Primary Key**: fid, aoi",
		"- **Geometry**: field_geom POLYGON (SRID 4326)",
	} {
		assert.Contains(t, string(output), want)
	}
}

func TestExportText(t *testing.T) {
	output, err := Export(createTestIndex(), ExportFormatText)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	assert.Equal(t, "aoilegend (pk: aoi)", lines[0])
	assert.Contains(t, string(output), "POLYGON srid=4326")
}

func TestExport_Errors(t *testing.T) {
	_, err := Export(createTestIndex(), "dot")
	assert.Error(t, err)

	_, err = Export(createTestIndex(), ExportFormatJSON, "missing")
	assert.ErrorIs(t, err, ErrUnknownTable)
}
