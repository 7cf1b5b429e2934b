// Package cmd wires the CLI: cobra commands parse flags and environment and
// delegate to the plain command objects in cmds.
package cmd

import (
	"flag"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "arnima",
	Short: "ARNIMA edge agent",
	Long:  "DIDComm v1 edge agent for a wallet holder.",
}

func Execute() {
	defer err2.Catch(func(err error) {
		glog.Errorln(err)
		os.Exit(1)
	})
	try.To(rootCmd.Execute())
}

func init() {
	// glog registers its flags on the standard set
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	viper.SetEnvPrefix("ARNIMA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
