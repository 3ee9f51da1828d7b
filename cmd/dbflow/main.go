package main

import (
	"fmt"
	"os"

	"github.com/Aranil/dbflow/internal/cli"
	"github.com/Aranil/dbflow/internal/logger"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute() error {
	defer logger.Sync()

	cmd := cli.NewRootCommand()
	return cmd.Execute()
}
