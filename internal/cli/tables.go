package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/internal/introspect"
)

func newTablesCmd() *cobra.Command {
	var (
		table  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the reflected tables of the store",
		Long: `Reflects the store and prints its tables with their columns, primary
keys and geometry columns.

Export formats supported: text, json, yaml, markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openStore(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer h.Close()

			var only []string
			if table != "" {
				only = append(only, table)
			}

			out, err := introspect.Export(h.Index(), introspect.ExportFormat(format), only...)
			if err != nil {
				return fmt.Errorf("failed to export schema: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Inspect specific table only")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Export format: text, json, yaml, markdown")

	return cmd
}
