package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/internal/store"
)

func newFetchCmd() *cobra.Command {
	var (
		columns string
		filters []string
		date    string
		bbox    string
		srid    int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch TABLE",
		Short: "Fetch records from a table",
		Long: `Fetches the records of TABLE matching every given filter.

A filter value containing commas matches any of the listed values. --date
takes a single date or an inclusive "from,to" range on the date column.
--bbox takes a WKT or EWKT shape whose envelope must intersect the table's
geometry column.`,
		Example: `  dbflow fetch areaofinterest --filter aoi=MRKN --filter year=2021,2022
  dbflow fetch areaofinterest --date 2021-04-01,2021-09-30 --columns fid,crop
  dbflow fetch areaofinterest --bbox "POLYGON((11 50, 12 50, 12 51, 11 51, 11 50))"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args[0], columns, filters, date, bbox, srid)
			if err != nil {
				return err
			}

			h, err := openStore(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer h.Close()

			records, err := h.Fetch(commandContext(cmd), req)
			if err != nil {
				return fmt.Errorf("failed to fetch records: %w", err)
			}

			preferred := req.Columns
			if len(preferred) == 0 {
				preferred = h.TableInfo(req.Table).Columns
			}
			return writeRecords(cmd.OutOrStdout(), records, preferred, asJSON)
		},
	}

	cmd.Flags().StringVarP(&columns, "columns", "c", "", "Comma separated columns to return (default: all)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Column filter as column=value or column=v1,v2 (repeatable)")
	cmd.Flags().StringVar(&date, "date", "", "Date or inclusive from,to range on the date column")
	cmd.Flags().StringVar(&bbox, "bbox", "", "WKT/EWKT shape whose envelope must intersect the geometry column")
	cmd.Flags().IntVar(&srid, "srid", 0, "SRID of --bbox when it is plain WKT (default: spatial.default_srid)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}

func buildRequest(table, columns string, filters []string, date, bbox string, srid int) (store.QueryRequest, error) {
	req := store.QueryRequest{
		Table:       table,
		Columns:     splitList(columns),
		SpatialSRID: srid,
	}
	if req.SpatialSRID == 0 {
		req.SpatialSRID = currentConfig().Spatial.DefaultSRID
	}

	assignments, err := parseAssignments(filters)
	if err != nil {
		return req, err
	}
	if len(assignments) > 0 {
		req.Filters = make(map[string]any, len(assignments))
		for k, v := range assignments {
			values := splitList(v)
			if len(values) > 1 {
				list := make([]any, len(values))
				for i, s := range values {
					list[i] = parseScalar(s)
				}
				req.Filters[k] = list
				continue
			}
			req.Filters[k] = parseScalar(v)
		}
	}

	if date != "" {
		bounds := splitList(date)
		switch len(bounds) {
		case 1:
			req.Date = store.On(bounds[0])
		case 2:
			req.Date = store.Between(bounds[0], bounds[1])
		default:
			return req, fmt.Errorf("invalid --date %q, expected a date or from,to", date)
		}
	}

	if bbox != "" {
		req.Spatial = bbox
	}
	return req, nil
}
