// Command vault is the CLI front-end over the vault and stack packages.
package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env"

	"github.com/bignyap/cloudvault/internal/cli"
)

func main() {
	var defaults cli.Defaults
	if err := env.Parse(&defaults); err != nil {
		fmt.Fprintf(os.Stderr, "vault: reading environment defaults: %v\n", err)
		os.Exit(1)
	}

	app := cli.NewApp(defaults)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "vault: %v\n", err)
		os.Exit(1)
	}
}
