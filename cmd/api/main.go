package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Calendar Availability API
// @version 1.0.0
// @description Device-code sign-in against Microsoft identity and read-only calendar availability queries
// @BasePath /
// @schemes http

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "calendar-api",
		Short:        "Calendar availability API backed by a device-code sign-in",
		Version:      version,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCmd(), newStatusCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
