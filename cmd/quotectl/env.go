package main

import (
	"fmt"
	"os"

	"github.com/Rhymond/go-money"

	"github.com/ndewijer/Yield-Bank-Backend/internal/app"
	"github.com/ndewijer/Yield-Bank-Backend/internal/config"
	"github.com/ndewijer/Yield-Bank-Backend/internal/logger"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// pipeline loads configuration and builds an in-memory quote pipeline.
// Logs go to stderr so stdout stays parseable.
func pipeline(verbose bool) (*app.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	lg := logger.New(logger.Config{Level: level, Pretty: true, Out: os.Stderr})
	return app.NewPipeline(cfg, nil, lg)
}

// won formats an amount in Korean won, e.g. ₩70,000.
func won(amount int64) string {
	return money.New(amount, money.KRW).Display()
}

// signed formats a change with an explicit sign.
func signed(amount int64) string {
	if amount > 0 {
		return "+" + won(amount)
	}
	return won(amount)
}

func percent(r model.Rate) string {
	if r.Cmp(model.Rate{}) > 0 {
		return fmt.Sprintf("+%s%%", r)
	}
	return r.String() + "%"
}
