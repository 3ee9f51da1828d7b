package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/internal/store"
)

func newIngestCmd() *cobra.Command {
	var (
		file   string
		pk     string
		update bool
	)

	cmd := &cobra.Command{
		Use:   "ingest TABLE",
		Short: "Write records from a JSON file into a table",
		Long: `Reads a JSON array of objects and writes them into TABLE in one
transaction. Records whose primary key already exists are skipped unless
--update is given, in which case their non-key columns are overwritten.
Geometry columns accept WKT or EWKT text.`,
		Example: `  dbflow ingest areaofinterest --file fields.json --pk fid,year,aoi`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(file)
			if err != nil {
				return err
			}

			keys := splitList(pk)
			if len(keys) == 0 {
				return fmt.Errorf("--pk is required")
			}

			mode := store.InsertOrSkip
			if update {
				mode = store.Upsert
			}

			h, err := openStore(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer h.Close()

			res, err := h.Write(commandContext(cmd), args[0], keys, records, mode)
			if err != nil {
				return fmt.Errorf("failed to write records: %w", err)
			}
			if res.Err != nil {
				return fmt.Errorf("batch %s rolled back: %w", res.BatchID, res.Err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d entries to table %s", res.Ingested, res.Table)
			if len(res.Rejected) > 0 {
				fmt.Fprintf(out, ", rejected %d (already existing)", len(res.Rejected))
			}
			fmt.Fprintln(out)
			for _, f := range res.Dropped {
				fmt.Fprintf(out, "Dropped field %s\n", f)
			}
			if res.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d records without a valid primary key\n", res.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file holding an array of records (required)")
	cmd.Flags().StringVar(&pk, "pk", "", "Comma separated primary key columns (required)")
	cmd.Flags().BoolVar(&update, "update", false, "Overwrite existing records instead of skipping them")

	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("pk")

	return cmd
}

func readRecords(path string) ([]store.Record, error) {
	data, err := afero.ReadFile(fileSystem, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []store.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records file %s: %w", path, err)
	}
	return records, nil
}
