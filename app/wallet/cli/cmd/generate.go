package cmd

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		return err
	}

	if err := privateKey.Save(getPrivateKeyPath()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), privateKey.PublicKey())
	return nil
}
