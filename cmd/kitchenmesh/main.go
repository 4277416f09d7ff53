// kitchenmesh runs the multi-agent kitchen: a sequential pipeline of
// LLM-backed cooking stations that fulfill restaurant orders while streaming
// lifecycle events to connected observers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kitchenmesh",
		Short: "Multi-agent kitchen workflow engine",
		Long: "kitchenmesh drives restaurant orders through a sequential chain of\n" +
			"LLM-backed kitchen stations (grill, fryer, desserts, expo), streaming\n" +
			"workflow status events to subscribers over SSE.",
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newOrderCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
