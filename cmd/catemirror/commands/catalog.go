package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [--catalog <path/to/catalog.json5>]",
	Short: "Prints the modules and exercises that would be mirrored.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := flags.catalog
		if !cmd.Flags().Changed("catalog") {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				fatal("failed to read config", err)
			}
			path = cfg.Catalog
		}

		modules, err := loadCatalog(path)
		if err != nil {
			fatal("failed to load catalog", err)
		}
		renderCatalog(os.Stdout, modules)
	},
}
