// Package cmd contains wallet app
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/client"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	nodeURL     string
	timeout     time.Duration
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Time allowed for a request to the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Simple wallet for the ledger",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

func loadPrivateKey() (signature.PrivateKey, error) {
	return signature.LoadPrivateKey(getPrivateKeyPath())
}

func newClient() *client.Client {
	return client.New(nodeURL, client.WithTimeout(timeout))
}
