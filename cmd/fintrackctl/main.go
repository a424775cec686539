/*Command-line client for the fintrack transactions API*/
package main

import (
	"os"
	"time"

	"github.com/alecthomas/kong"
)

// app lists the commands and arguments available
type app struct {
	Globals globals `embed:""`

	List    listCmd    `cmd:"" help:"List the transactions of a month, newest first."`
	Add     addCmd     `cmd:"" help:"Record a new transaction."`
	Update  updateCmd  `cmd:"" help:"Replace every field of an existing transaction."`
	Delete  deleteCmd  `cmd:"" help:"Delete a transaction."`
	Summary summaryCmd `cmd:"" help:"Show the per-type totals of a month."`
	Catalog catalogCmd `cmd:"" help:"Show the accepted types, categories and payment options."`
}

func main() {
	var cli app
	ctx := kong.Parse(&cli,
		kong.Name("fintrackctl"),
		kong.Description("Manage personal finance transactions over the fintrack API."),
		kong.UsageOnError(),
	)
	cli.Globals.out = os.Stdout
	cli.Globals.now = time.Now
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
