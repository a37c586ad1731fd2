package cmd

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount int64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the recipient.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	tx := database.NewTx(database.Address(privateKey.PublicKey()), database.Address(to), amount)
	if err := tx.Sign(privateKey); err != nil {
		return err
	}

	if err := newClient().SubmitTransaction(cmd.Context(), tx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tx)
	return nil
}
