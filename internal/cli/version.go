package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/pkg/dbflow"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display dbflow version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), dbflow.FullVersionInfo())
		},
	}
}
