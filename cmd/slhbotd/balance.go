package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SLH-Bot/internal/users"
	"SLH-Bot/internal/wallet"
	"SLH-Bot/internal/web3/provider"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the token balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr, err := users.NormalizeWallet(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		chains, err := provider.NewRegistry(ctx, cfg.Web3)
		if err != nil {
			return err
		}
		defer chains.Close()
		chain, err := chains.Default()
		if err != nil {
			return err
		}

		ctx, cancel := contextWithSeconds(ctx, cfg.Web3.CallTimeoutSeconds)
		defer cancel()
		amount, err := wallet.NewBalanceService(chain.Client).HumanBalance(ctx, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", addr.Hex(), amount, chain.Symbol)
		return nil
	},
}
