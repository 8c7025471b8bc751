package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goini",
	Short: "Goini is a tool for working with extended INI configuration files.",
	Long:  "Goini is a tool for working with extended INI configuration files. It parses nested, typed configuration text, looks up values by path and rewrites files in canonical form.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Goini",
	Long:  `All software has versions. This is Goini's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Goini v0.1 -- HEAD")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(iniCmd)
}
