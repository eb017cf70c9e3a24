// File: cmd/dashd/main.go
// License: Apache-2.0

// Command dashd serves the pattern-toolkit live dashboard: a chi router
// hosting the dashboard page, the live-ws event socket, and a Prometheus
// metrics endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashd",
		Short: "Live dashboard host for the pattern toolkit",
		Long: `dashd hosts the toolkit's live dashboard: it serves the
dashboard page, upgrades browser connections to WebSocket, and pushes
toolkit events (pattern registrations, healing progress) to every
connected client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
