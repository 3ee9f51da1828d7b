package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		sets  []string
		write bool
	)

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render a stored SQL template",
		Long: `Loads NAME from the template directory, replaces every placeholder given
with --set and prints the result. With --write the rendered query is also
stored in the executed directory.`,
		Example: `  dbflow render by_field.sql --set :fid=12 --set :year=2021 --write`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replacements, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			rendered, err := newRenderer().Render(args[0], replacements, write)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Placeholder replacement as :placeholder=value (repeatable)")
	cmd.Flags().BoolVar(&write, "write", false, "Store the rendered query in the executed directory")

	return cmd
}

func newQueryCmd() *cobra.Command {
	var (
		sets   []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query NAME",
		Short: "Render a stored SQL template and run it",
		Long: `Renders NAME like the render command and executes the result against the
store. The rendered query is stored in the executed directory when
sql.write_executed is enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replacements, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			rendered, err := newRenderer().Render(args[0], replacements, currentConfig().ShouldWriteExecuted())
			if err != nil {
				return err
			}

			h, err := openStore(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer h.Close()

			records, err := h.Query(commandContext(cmd), rendered)
			if err != nil {
				return fmt.Errorf("failed to run %s: %w", args[0], err)
			}
			return writeRecords(cmd.OutOrStdout(), records, nil, asJSON)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Placeholder replacement as :placeholder=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}
