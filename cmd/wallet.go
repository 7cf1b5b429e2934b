package cmd

import (
	"github.com/ayanworks/arnima-agent-go/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet backup operations",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an encrypted wallet backup",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		c := cmds.ExportCmd{
			WalletName: viper.GetString("wallet-name"),
			WalletKey:  viper.GetString("wallet-key"),
			ExportPath: viper.GetString("file"),
			ExportKey:  viper.GetString("file-key"),
		}
		try.To(c.Validate())
		return c.Exec(cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore a wallet backup into a fresh wallet",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		c := cmds.ImportCmd{
			WalletName: viper.GetString("wallet-name"),
			WalletKey:  viper.GetString("wallet-key"),
			ImportPath: viper.GetString("file"),
			ImportKey:  viper.GetString("file-key"),
		}
		try.To(c.Validate())
		return c.Exec(cmd.OutOrStdout())
	},
}

func init() {
	for _, sub := range []*cobra.Command{exportCmd, importCmd} {
		f := sub.Flags()
		f.String("wallet-name", "", "wallet name")
		f.String("wallet-key", "", "RAW wallet key")
		f.String("file", "", "backup file path")
		f.String("file-key", "", "backup encryption key")
		walletCmd.AddCommand(sub)
	}
	rootCmd.AddCommand(walletCmd)
}
