package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/spatial"
	dbtest "github.com/Aranil/dbflow/internal/testing"
)

func readings(ids []int, label string) []Record {
	records := make([]Record, len(ids))
	for i, id := range ids {
		records[i] = Record(dbtest.Reading(id, float64(id)/2, label, "2021-01-01"))
	}
	return records
}

func labels(t *testing.T, h *Handle) map[int64]string {
	t.Helper()

	records, err := h.Query(context.Background(), `SELECT id, label FROM readings ORDER BY id`)
	require.NoError(t, err)

	out := make(map[int64]string, len(records))
	for _, r := range records {
		out[r["id"].(int64)] = r["label"].(string)
	}
	return out
}

func TestWrite_InsertOrSkip(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	ctx := context.Background()

	res, err := h.Write(ctx, "readings", []string{"id"}, readings([]int{1, 2}, "old"), InsertOrSkip)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Ingested)

	logs := dbtest.ObserveLogs(t)

	res, err = h.Write(ctx, "readings", []string{"id"}, readings([]int{1, 2, 3, 4, 5}, "new"), InsertOrSkip)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, InsertOrSkip, res.Mode)
	assert.Equal(t, 3, res.Ingested)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}}, res.Rejected)
	assert.Equal(t, 1, logs.FilterMessage("Ingested 3 entries to table readings, rejected 2 (already existing)").Len())

	assert.Equal(t, map[int64]string{1: "old", 2: "old", 3: "new", 4: "new", 5: "new"}, labels(t, h))
}

func TestWrite_InsertOrSkipLogWithoutRejections(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	logs := dbtest.ObserveLogs(t)

	res, err := h.Write(context.Background(), "readings", []string{"id"}, readings([]int{7}, "a"), InsertOrSkip)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, 1, logs.FilterMessage("Ingested 1 entries to table readings").Len())
}

func TestWrite_InsertOrSkipProperty(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("ingested counts exactly the new distinct keys", prop.ForAll(
		func(existing, batch []int) bool {
			if _, err := h.DB().ExecContext(ctx, `DELETE FROM readings`); err != nil {
				return false
			}
			if _, err := h.Write(ctx, "readings", []string{"id"}, readings(existing, "old"), InsertOrSkip); err != nil {
				return false
			}

			res, err := h.Write(ctx, "readings", []string{"id"}, readings(batch, "new"), InsertOrSkip)
			if err != nil || res.Err != nil {
				return false
			}

			have := make(map[int]bool)
			for _, id := range existing {
				have[id] = true
			}
			fresh := make(map[int]bool)
			for _, id := range batch {
				if !have[id] {
					fresh[id] = true
				}
			}

			return res.Ingested == len(fresh) && len(res.Rejected) == len(batch)-res.Ingested
		},
		gen.SliceOf(gen.IntRange(1, 20)),
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.TestingRun(t)
}

func TestWrite_Upsert(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	ctx := context.Background()

	_, err := h.Write(ctx, "readings", []string{"id"}, readings([]int{1}, "old"), InsertOrSkip)
	require.NoError(t, err)

	batch := append(readings([]int{1, 2}, "new"), Record(dbtest.Reading(3, 1, "first", "2021-01-02")), Record(dbtest.Reading(3, 2, "last", "2021-01-02")))
	res, err := h.Write(ctx, "readings", []string{"id"}, batch, Upsert)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, 4, res.Ingested)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, map[int64]string{1: "new", 2: "new", 3: "last"}, labels(t, h))
}

func TestWrite_CompositeKeyAndGeometry(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	ctx := context.Background()

	_, err := h.Write(ctx, "aoilegend", []string{"aoi"}, []Record{{"aoi": "MRKN", "description": "test site"}}, InsertOrSkip)
	require.NoError(t, err)

	records := []Record{
		{"fid": 1, "year": 2021, "aoi": "MRKN", "crop": "wheat", "field_geom": "POLYGON Z ((0 0 5, 10 0 5, 10 10 5, 0 10 5, 0 0 5))"},
		{"fid": 1, "year": 2022, "aoi": "MRKN", "crop": "maize", "field_geom": "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))"},
		{"fid": 1, "year": 2021, "aoi": "MRKN", "crop": "barley"},
	}

	res, err := h.Write(ctx, "areaofinterest", []string{"fid", "year", "aoi"}, records, InsertOrSkip)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Ingested)
	assert.Equal(t, [][]any{{int64(1), int64(2021), "MRKN"}}, res.Rejected)

	rows, err := h.Fetch(ctx, QueryRequest{
		Table:   "areaofinterest",
		Columns: []string{"crop", "field_geom"},
		Filters: map[string]any{"year": 2021},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "wheat", rows[0]["crop"])
	assert.Equal(t, "SRID=4326;POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", rows[0]["field_geom"])
}

func TestWrite_Errors(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		table   string
		keys    []string
		records []Record
		want    error
	}{
		{"unknown table", "nope", []string{"id"}, readings([]int{1}, "a"), ErrUnknownTable},
		{"no keys", "readings", nil, readings([]int{1}, "a"), ErrInvalidPrimaryKey},
		{"unknown key", "readings", []string{"nope"}, readings([]int{1}, "a"), ErrInvalidPrimaryKey},
		{"duplicate key", "readings", []string{"id", "id"}, readings([]int{1}, "a"), ErrInvalidPrimaryKey},
		{
			"unsupported geometry",
			"areaofinterest",
			[]string{"fid", "year", "aoi"},
			[]Record{{"fid": 1, "year": 2021, "aoi": "X", "field_geom": 12}},
			spatial.ErrUnsupportedGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Write(ctx, tt.table, tt.keys, tt.records, InsertOrSkip)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	empty, err := h.TableEmpty(ctx, "areaofinterest")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestWrite_DropsFields(t *testing.T) {
	h := openStore(t, dbtest.TempPath(t))
	logs := dbtest.ObserveLogs(t)

	records := []Record{{"id": 1, "value": "not a number", "label": "a", "unknown": true}}
	res, err := h.Write(context.Background(), "readings", []string{"id"}, records, InsertOrSkip)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, 1, res.Ingested)
	assert.Equal(t, []string{"unknown", "value"}, res.Dropped)
	assert.Equal(t, 2, logs.FilterMessage("Dropping field").Len())

	rows, err := h.Query(context.Background(), `SELECT value, label FROM readings WHERE id = 1`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["value"])
	assert.Equal(t, "a", rows[0]["label"])
}

func TestWrite_SkipsRecordsWithoutKey(t *testing.T) {
	for _, mode := range []WriteMode{InsertOrSkip, Upsert} {
		t.Run(mode.String(), func(t *testing.T) {
			h := openStore(t, dbtest.TempPath(t))
			logs := dbtest.ObserveLogs(t)

			records := []Record{
				{"id": 1, "label": "a"},
				{"id": "abc", "label": "b"},
				{"label": "c"},
				{"id": nil, "label": "d"},
			}
			res, err := h.Write(context.Background(), "readings", []string{"id"}, records, mode)
			require.NoError(t, err)
			require.NoError(t, res.Err)

			assert.Equal(t, 1, res.Ingested)
			assert.Equal(t, 3, res.Skipped)
			assert.Empty(t, res.Rejected)
			assert.Equal(t, 3, logs.FilterMessage("Skipping record").Len())
			assert.Equal(t, map[int64]string{1: "a"}, labels(t, h))
		})
	}
}

func TestWrite_RollbackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := newHandle(sqlx.NewDb(db, "sqlite"), options{})
	h.index = introspect.NewSchemaIndex(&introspect.Table{
		Name: "readings",
		Columns: []introspect.Column{
			{Name: "id", Type: introspect.TypeInteger, PrimaryKey: true},
			{Name: "label", Type: introspect.TypeText},
		},
		PrimaryKey: []string{"id"},
	})

	exists := regexp.QuoteMeta(`SELECT EXISTS( SELECT 1 FROM "readings" WHERE "id" = ? )`)
	insert := regexp.QuoteMeta(`INSERT INTO "readings" ("id","label") VALUES (?,?)`)

	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(0))
	mock.ExpectExec(insert).WithArgs(int64(1), "a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(exists).WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(0))
	mock.ExpectExec(insert).WithArgs(int64(2), "b").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	records := []Record{{"id": 1, "label": "a"}, {"id": 2, "label": "b"}}
	res, err := h.Write(context.Background(), "readings", []string{"id"}, records, InsertOrSkip)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "disk I/O error")
	assert.Equal(t, 0, res.Ingested)
	assert.Empty(t, res.Rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSuffix(t *testing.T) {
	assert.Equal(t,
		`ON CONFLICT ("fid", "year") DO UPDATE SET "crop" = excluded."crop", "area" = excluded."area"`,
		upsertSuffix([]string{"fid", "year"}, []string{"fid", "year", "crop", "area"}))
	assert.Equal(t,
		`ON CONFLICT ("id") DO NOTHING`,
		upsertSuffix([]string{"id"}, []string{"id"}))
}

func TestWriteMode_String(t *testing.T) {
	assert.Equal(t, "insert-or-skip", InsertOrSkip.String())
	assert.Equal(t, "upsert", Upsert.String())
	assert.Equal(t, "WriteMode(7)", WriteMode(7).String())
}
