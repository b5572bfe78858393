package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dkravets/orgview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize orgview configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure orgview and generates a .orgview.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
