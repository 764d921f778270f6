package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type tokenCmd struct{}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "check that the brokerage credentials can obtain an access token" }
func (*tokenCmd) Usage() string {
	return `quotectl token

  Requests an access token with KIS_APP_KEY and KIS_APP_SECRET and prints a
  masked form of it. Tokens may be issued at most once a minute.
`
}

func (*tokenCmd) SetFlags(*flag.FlagSet) {}

func (*tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := pipeline(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !p.KIS.HasCredentials() {
		fmt.Fprintln(os.Stderr, "KIS_APP_KEY and KIS_APP_SECRET are not set")
		return subcommands.ExitFailure
	}

	tok, err := p.KIS.Tokens().AccessToken(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token request failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(mask(tok))
	return subcommands.ExitSuccess
}

func mask(tok string) string {
	if len(tok) <= 8 {
		return "********"
	}
	return tok[:4] + "..." + tok[len(tok)-4:]
}
