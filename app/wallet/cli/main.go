// Package main implements the wallet used to sign transactions and talk to
// a ledger node.
package main

import (
	"github.com/ardanlabs/ledger/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
