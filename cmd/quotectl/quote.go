package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/ndewijer/Yield-Bank-Backend/internal/logger"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/quote"
	"github.com/ndewijer/Yield-Bank-Backend/internal/validation"
)

type quoteCmd struct {
	source  string
	asJSON  bool
	verbose bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "resolve current prices for one or more symbols" }
func (*quoteCmd) Usage() string {
	return `quotectl quote [-source all|kis|naver] [-json] <symbol>...

  Resolves each symbol through the configured sources in priority order and
  prints price, change and the source that answered. Symbols no source can
  resolve are printed with price 0.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "all", "Restrict lookups to one source (kis, naver) or use all in priority order.")
	f.BoolVar(&c.asJSON, "json", false, "Print resolutions as JSON.")
	f.BoolVar(&c.verbose, "v", false, "Log source failures to stderr.")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}

	p, err := pipeline(c.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	resolver := p.Resolver
	switch c.source {
	case "all":
	case "kis":
		resolver = quote.NewResolver(logger.Component(p.Log, "resolver"), 0, p.KIS)
	case "naver":
		resolver = quote.NewResolver(logger.Component(p.Log, "resolver"), 0, p.Naver)
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q\n", c.source)
		return subcommands.ExitUsageError
	}

	results := make([]model.Resolution, 0, f.NArg())
	for _, arg := range f.Args() {
		symbol := strings.ToUpper(arg)
		if err := validation.ValidateSymbol(symbol); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		results = append(results, resolver.Resolve(ctx, symbol))
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	} else {
		printResolutions(os.Stdout, results)
	}

	for _, r := range results {
		if !r.Resolved {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func printResolutions(out io.Writer, results []model.Resolution) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tNAME\tPRICE\tCHANGE\tRATE\tSOURCE\t")
	for _, r := range results {
		source := r.Source
		if !r.Resolved {
			source = "unresolved"
		}
		q := r.Quote
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			q.Symbol, q.Name, won(q.CurrentPrice), signed(q.Change), percent(q.ChangePercent), source)
	}
	_ = w.Flush()
}
