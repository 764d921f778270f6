package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
)

type marketCmd struct {
	at string
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "show whether the exchange is in session" }
func (*marketCmd) Usage() string {
	return `quotectl market [-at 2006-01-02T15:04]

  Prints the session state and the refresh interval in effect, now or at the
  given Korea Standard Time.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.at, "at", "", "Evaluate at this KST time instead of now.")
}

func (c *marketCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now()
	if c.at != "" {
		t, err := time.ParseInLocation("2006-01-02T15:04", c.at, market.Location())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -at: %v\n", err)
			return subcommands.ExitUsageError
		}
		now = t
	}

	status := market.DefaultCadence().Status(now)
	state := "closed"
	if status.Open {
		state = "open"
	}
	fmt.Printf("%s  market %s, refresh every %s\n",
		status.Now.Format("2006-01-02 15:04 MST"), state, status.RefreshInterval)
	return subcommands.ExitSuccess
}
