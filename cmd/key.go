package cmd

import (
	"github.com/ayanworks/arnima-agent-go/cmds"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Generate a RAW wallet key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmds.KeyCmd{}.Exec(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
}
