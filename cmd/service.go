package cmd

import (
	"time"

	"github.com/ayanworks/arnima-agent-go/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Provision a wallet and run the agent until interrupted",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		c := cmds.ServiceCmd{
			WalletName:         viper.GetString("wallet-name"),
			WalletKey:          viper.GetString("wallet-key"),
			Label:              viper.GetString("label"),
			Seed:               viper.GetString("seed"),
			HostAddr:           viper.GetString("host-addr"),
			PoolName:           viper.GetString("pool-name"),
			GenesisPath:        viper.GetString("genesis-path"),
			MediatorInvitation: viper.GetString("mediator-invitation"),
			MediatorWsURL:      viper.GetString("mediator-ws-url"),
			Timeout:            viper.GetDuration("timeout"),
			PickupInterval:     viper.GetDuration("pickup-interval"),
		}
		try.To(c.Validate())
		return c.Exec(cmd.OutOrStdout())
	},
}

func init() {
	f := serviceCmd.Flags()
	f.String("wallet-name", "", "wallet name")
	f.String("wallet-key", "", "RAW wallet key, see the key command")
	f.String("label", "ARNIMA agent", "label shown to counterparties")
	f.String("seed", "", "seed for the public DID, optional")
	f.String("host-addr", "", "public inbound address, empty for mediated only")
	f.String("pool-name", "", "ledger pool name")
	f.String("genesis-path", "", "ledger genesis transactions file")
	f.String("mediator-invitation", "", "mediator invitation URL")
	f.String("mediator-ws-url", "", "mediator push socket URL")
	f.Duration("timeout", 15*time.Second, "outbound send timeout")
	f.Duration("pickup-interval", 30*time.Second, "mediator pickup interval")

	rootCmd.AddCommand(serviceCmd)
}
