package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceAddress string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance for an address or the account.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "d", "", "Address or account name to query, defaults to the account.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	address := balanceAddress
	if address == "" {
		privateKey, err := loadPrivateKey()
		if err != nil {
			return err
		}
		address = privateKey.PublicKey()
	}

	balance, err := newClient().Balance(cmd.Context(), address)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "For Account:", balance.Name)
	fmt.Fprintln(cmd.OutOrStdout(), balance.Balance)
	return nil
}
