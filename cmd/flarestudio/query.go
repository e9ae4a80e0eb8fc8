package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flarestudio/internal/domain/entity"
	"flarestudio/internal/pkg/utils"
)

func newPriceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price SYMBOL...",
		Short: "Show the current FTSO price of one or more symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *application) error {
			var quotes []entity.PriceQuote
			var errs []error
			for _, symbol := range utils.NormalizeSymbols(utils.SplitCSV(args...)) {
				q, err := app.prices.GetPrice(cmd.Context(), symbol)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				quotes = append(quotes, q)
			}
			if err := printQuotes(cmd, opts, quotes); err != nil {
				return err
			}
			return errors.Join(errs...)
		}),
	}
}

func newPricesCmd(opts *rootOptions) *cobra.Command {
	var symbols []string
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Show prices for a symbol set, skipping unavailable symbols",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, app *application) error {
			res, err := app.prices.GetAllPrices(cmd.Context(), utils.SplitCSV(symbols...))
			if err != nil {
				return err
			}
			for _, f := range res.Failures {
				cmd.PrintErrf("skipped %s: %v\n", f.Symbol, f.Err)
			}
			return printQuotes(cmd, opts, res.Quotes)
		}),
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "symbols to query (default: configured symbol set)")
	return cmd
}

func printQuotes(cmd *cobra.Command, opts *rootOptions, quotes []entity.PriceQuote) error {
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), quotes)
	}
	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, []string{
			q.Symbol, exactPrice(q), q.RawPrice, strconv.Itoa(int(q.Decimals)),
			q.Timestamp.Format(time.RFC3339), q.Network,
		})
	}
	return printTable(cmd.OutOrStdout(), []string{"SYMBOL", "PRICE", "RAW", "DECIMALS", "TIMESTAMP", "NETWORK"}, rows)
}

func newSymbolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List the symbols supported by the FtsoRegistry",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, app *application) error {
			symbols, err := app.prices.SupportedSymbols(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), symbols)
			}
			for _, s := range symbols {
				cmd.Println(s)
			}
			return nil
		}),
	}
}

func newEpochCmd(opts *rootOptions) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "Show the current price epoch id",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, app *application) error {
			if verify {
				check, err := app.epochs.VerifyEpochLength(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), check)
				}
				cmd.Printf("configured=%ds onchain=%ds matches=%t\n", check.ConfiguredSeconds, check.OnChainSeconds, check.Matches)
				return nil
			}

			info, err := app.epochs.CurrentEpoch(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), info)
			}
			if info.Approximate {
				cmd.Printf("%d (approximate, %s)\n", info.EpochID, info.FallbackReason)
				return nil
			}
			cmd.Println(info.EpochID)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "compare the configured epoch length with the FtsoManager")
	return cmd
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "resolve NAME",
		Short:     "Resolve a contract name through the FlareContractRegistry",
		Args:      cobra.ExactArgs(1),
		ValidArgs: contractNames(),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *application) error {
			network := app.binder.ActiveNetwork()
			ref, err := app.resolver.Resolve(cmd.Context(), args[0], network)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), entity.RegistryEntry{Name: string(ref.Name), Address: ref.Address.Hex()})
			}
			cmd.Printf("%s on %s: %s\n", ref.Name, network.Name, ref.Address.Hex())
			return nil
		}),
	}
}

func newContractsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "List every contract in the FlareContractRegistry",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, app *application) error {
			entries, err := app.resolver.ListContracts(cmd.Context(), app.binder.ActiveNetwork())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Name, e.Address})
			}
			return printTable(cmd.OutOrStdout(), []string{"NAME", "ADDRESS"}, rows)
		}),
	}
}

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check the RPC endpoints of the active network (or all networks)",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, app *application) error {
			networks := []entity.NetworkDefinition{app.binder.ActiveNetwork()}
			if all {
				networks = app.networks.GetAllNetworkDefinitions()
			}
			var results []entity.ProbeResult
			for _, n := range networks {
				r, err := app.prober.Probe(cmd.Context(), n)
				if err != nil {
					return err
				}
				results = append(results, r...)
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case r.Error != "":
					status = r.Error
				case !r.ChainIDMatches:
					status = fmt.Sprintf("wrong chain %d", r.ChainID)
				}
				rows = append(rows, []string{r.Network, r.Endpoint, strconv.FormatUint(r.BlockNumber, 10), r.Latency.Round(time.Millisecond).String(), status})
			}
			return printTable(cmd.OutOrStdout(), []string{"NETWORK", "ENDPOINT", "BLOCK", "LATENCY", "STATUS"}, rows)
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "probe every known network")
	return cmd
}

func contractNames() []string {
	names := entity.KnownContractNames()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
