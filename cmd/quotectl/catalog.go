package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type catalogCmd struct {
	limit int
}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "search listed issues by code or name" }
func (*catalogCmd) Usage() string {
	return `quotectl catalog [-n <limit>] <query>

  Downloads the listed-issue catalog and prints matching codes and names.
  Requires DATA_GO_KR_API_KEY.
`
}

func (c *catalogCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "Maximum number of matches to print.")
}

func (c *catalogCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "a query is required")
		return subcommands.ExitUsageError
	}

	p, err := pipeline(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !p.Catalog.Configured() {
		fmt.Fprintln(os.Stderr, "catalog is not configured: set DATA_GO_KR_API_KEY")
		return subcommands.ExitFailure
	}
	if err := p.Catalog.Refresh(ctx, true); err != nil {
		fmt.Fprintf(os.Stderr, "catalog download failed: %v\n", err)
		return subcommands.ExitFailure
	}

	matches := p.Catalog.Search(ctx, query, c.limit)
	if len(matches) == 0 {
		fmt.Fprintf(os.Stderr, "no listed issue matches %q\n", query)
		return subcommands.ExitFailure
	}
	for _, m := range matches {
		fmt.Printf("%s  %s\n", m.Code, m.Name)
	}
	return subcommands.ExitSuccess
}
