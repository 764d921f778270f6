// Package app assembles the quote pipeline from configuration for the
// server and the CLI.
package app

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/config"
	"github.com/ndewijer/Yield-Bank-Backend/internal/kis"
	"github.com/ndewijer/Yield-Bank-Backend/internal/krx"
	"github.com/ndewijer/Yield-Bank-Backend/internal/logger"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/naver"
	"github.com/ndewijer/Yield-Bank-Backend/internal/quote"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

// Pipeline is the assembled quote pipeline.
type Pipeline struct {
	KIS      *kis.Client
	Naver    *naver.Client
	Resolver *quote.Resolver
	Catalog  *service.CatalogService
	// PersistentTokens is true when access tokens are stored encrypted in db.
	PersistentTokens bool
	Log              zerolog.Logger
}

// NewPipeline builds the sources in priority order: the brokerage API first,
// then the finance page scrape. db may be nil, in which case tokens are kept
// in memory only.
func NewPipeline(cfg *config.Config, db *sql.DB, log zerolog.Logger) (*Pipeline, error) {
	httpClient := &http.Client{}

	var cache kis.TokenCache = kis.NewMemoryTokenCache()
	persistent := false
	if db != nil && cfg.KIS.TokenEncryptionKey != "" {
		repo, err := repository.NewTokenRepository(db, cfg.KIS.TokenEncryptionKey)
		if err != nil {
			return nil, err
		}
		cache = repo
		persistent = true
	}

	kisClient := kis.NewClient(kis.Config{
		AppKey:     cfg.KIS.AppKey,
		AppSecret:  cfg.KIS.AppSecret,
		Production: cfg.KIS.Production,
		BaseURL:    cfg.KIS.BaseURL,
		Timeout:    cfg.KIS.Timeout,
		HTTPClient: httpClient,
	}, cache, logger.Component(log, "kis"))

	naverClient := naver.NewClient(httpClient, cfg.Naver.BaseURL, cfg.Naver.Timeout)

	resolver := quote.NewResolver(logger.Component(log, "resolver"), cfg.KIS.Timeout, kisClient, naverClient)

	catalog := service.NewCatalogService(
		krx.NewClient(httpClient, cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.Timeout),
		logger.Component(log, "catalog"),
	)

	return &Pipeline{
		KIS:              kisClient,
		Naver:            naverClient,
		Resolver:         resolver,
		Catalog:          catalog,
		PersistentTokens: persistent,
		Log:              log,
	}, nil
}

// Features reports the optional integrations enabled by cfg.
func (p *Pipeline) Features(cfg *config.Config) map[string]bool {
	return map[string]bool{
		model.FeatureKIS:     p.KIS.HasCredentials(),
		model.FeatureNaver:   true,
		model.FeatureCatalog: p.Catalog.Configured(),
		model.FeatureAuth:    cfg.Auth.JWTSecret != "",
		model.FeatureTokenDB: p.PersistentTokens,
	}
}
