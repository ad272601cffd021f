package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "wastebuster",
		Short:        "Find places, events and ideas to keep items out of landfill",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(ideasCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(placesCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(savedCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
