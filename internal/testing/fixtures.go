package testing

import (
	"github.com/Aranil/dbflow/internal/catalog"
)

// Catalog fixtures modelled on a field monitoring store
var (
	// AOILegendTable is a lookup table referenced by AreaOfInterestTable
	AOILegendTable = catalog.Table{
		Name: "aoilegend",
		Columns: []catalog.Column{
			{Name: "aoi", Type: catalog.TypeText, PrimaryKey: true},
			{Name: "description", Type: catalog.TypeText},
		},
	}

	// AreaOfInterestTable has a composite key, a foreign key and a polygon
	AreaOfInterestTable = catalog.Table{
		Name: "areaofinterest",
		Columns: []catalog.Column{
			{Name: "fid", Type: catalog.TypeInteger, PrimaryKey: true},
			{Name: "year", Type: catalog.TypeInteger, PrimaryKey: true},
			{Name: "aoi", Type: catalog.TypeText, PrimaryKey: true, References: "aoilegend.aoi"},
			{Name: "crop", Type: catalog.TypeText},
			{Name: "area", Type: catalog.TypeReal},
			{Name: "date", Type: catalog.TypeText},
			{Name: "datetime_inserted", Type: catalog.TypeTimestamp, Default: "CURRENT_TIMESTAMP"},
		},
		Geometry: []catalog.GeometryColumn{
			{Name: "field_geom", Type: "POLYGON", SRID: 4326},
		},
	}

	// ReadingsTable is a plain table with a single integer key
	ReadingsTable = catalog.Table{
		Name: "readings",
		Columns: []catalog.Column{
			{Name: "id", Type: catalog.TypeInteger, PrimaryKey: true},
			{Name: "value", Type: catalog.TypeReal},
			{Name: "label", Type: catalog.TypeText},
			{Name: "date", Type: catalog.TypeText},
		},
	}
)

// Catalog returns the fixture tables, registered with the referencing table
// first so creation order has to follow the foreign keys.
func Catalog() *catalog.Catalog {
	return catalog.New(AreaOfInterestTable, AOILegendTable, ReadingsTable)
}

// Reading builds a readings record
func Reading(id int, value float64, label, date string) map[string]any {
	return map[string]any{"id": id, "value": value, "label": label, "date": date}
}
