package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	network    string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "flarestudio",
		Short: "Read FTSO prices and epochs from Flare networks",
		Long: `flarestudio resolves Flare periphery contracts through the on-chain
FlareContractRegistry and reads FTSO prices and price epochs from them.

Supported networks: flare, songbird, coston, coston2. The active network
comes from the config file and can be overridden with --network.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or config/config.yml)")
	flags.StringVarP(&opts.network, "network", "n", "", "network to query: flare, songbird, coston or coston2")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(
		newServeCmd(opts),
		newPriceCmd(opts),
		newPricesCmd(opts),
		newSymbolsCmd(opts),
		newEpochCmd(opts),
		newResolveCmd(opts),
		newContractsCmd(opts),
		newProbeCmd(opts),
	)
	return cmd
}

// withApp builds the application for one command and closes it afterwards.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, args []string, app *application) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(opts)
		if err != nil {
			return err
		}
		defer app.Close()
		return run(cmd, args, app)
	}
}
