package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("venomd version %s\n", version.Get())
	},
}
