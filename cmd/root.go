package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orgview",
	Short: "Organizational hierarchy viewer over position records",
	Long: `Orgview manages job positions with user-defined custom fields and
materializes them into navigable hierarchy trees. Tree definitions
pick which custom fields group positions at each level; a boolean
search query filters positions before the tree is built.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".orgview.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
