// Package registry wires the configured source adapters.
package registry

import (
	"go.uber.org/zap"

	"unified-catalog-service/internal/config"
	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/source"
	"unified-catalog-service/internal/infra/source/cdo"
	"unified-catalog-service/internal/infra/source/zecat"
)

// NewAdapters creates the clients for both upstream catalogs, keyed by
// source identity, ready for injection into the catalog service.
func NewAdapters(cfg config.SourceConfig, logger *zap.Logger) map[domain.Source]domain.SourceAdapter {
	return map[domain.Source]domain.SourceAdapter{
		domain.SourceZecat: zecat.New(clientConfig(cfg.Zecat), logger),
		domain.SourceCDO:   cdo.New(clientConfig(cfg.CDO), logger),
	}
}

func clientConfig(cfg config.SourceEndpoint) source.ClientConfig {
	return source.ClientConfig{
		BaseURL:   cfg.BaseURL,
		AuthToken: cfg.AuthToken,
		Timeout:   cfg.Timeout,
		RateLimit: source.RateLimitConfig{
			PerMinute: cfg.RateLimit.PerMinute,
			Burst:     cfg.RateLimit.Burst,
		},
		CB: source.CBConfig{
			MaxRequests:  cfg.CB.MaxRequests,
			Interval:     cfg.CB.Interval,
			Timeout:      cfg.CB.Timeout,
			FailureRatio: cfg.CB.FailureRatio,
		},
	}
}
