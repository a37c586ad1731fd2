package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rewardAddress string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine its pending transactions",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&rewardAddress, "reward", "r", "", "Address or account name receiving the reward, defaults to the node's miner.")
}

func mineRun(cmd *cobra.Command, args []string) error {
	block, err := newClient().Mine(cmd.Context(), rewardAddress)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "block[%d] hash[%s] nonce[%d] trans[%d]\n", block.Number, block.Hash, block.Nonce, len(block.Transactions))
	return nil
}
