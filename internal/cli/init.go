package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the catalog tables missing from the store",
		Long: `Opens the store, creating the database file and its parent directories
when needed, and creates every catalog table that does not exist yet in
foreign key order. Existing tables are left untouched.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	h, err := openStore(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer h.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Store: %s\n", h.Path())

	created := make(map[string]bool)
	for _, name := range h.CreatedTables() {
		created[name] = true
		fmt.Fprintf(out, "Created table %s\n", name)
	}

	c, err := loadCatalog()
	if err != nil {
		return err
	}
	for _, name := range c.TableNames() {
		if !created[name] {
			fmt.Fprintf(out, "Table %s already exists\n", name)
		}
	}

	fmt.Fprintf(out, "%d tables in store\n", h.Index().Len())
	return nil
}
