package main

import (
	"github.com/shieldsync/shieldsync/internal/assetcache"
	"github.com/shieldsync/shieldsync/internal/catalog"
	"github.com/shieldsync/shieldsync/internal/config"
	"github.com/shieldsync/shieldsync/internal/importer"
	"github.com/shieldsync/shieldsync/internal/instances"
	"github.com/shieldsync/shieldsync/internal/platform"
)

// defaultInstanceID names the instance seeded from DEFAULT_COMPANY_ID.
// Further instances announce themselves over the API.
const defaultInstanceID = "backstage"

type services struct {
	cache    *assetcache.Cache
	registry *instances.Registry
	importer *importer.Importer
}

func buildServices(cfg config.Config) (*services, error) {
	store, err := assetcache.NewStore(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	platformClient, err := platform.New(cfg.PlatformAPIURL, cfg.PlatformAPIKey)
	if err != nil {
		return nil, err
	}
	catalogClient, err := catalog.New(cfg.CatalogAPIURL, cfg.CatalogToken)
	if err != nil {
		return nil, err
	}

	cache := assetcache.New(platformClient, store, cfg.CacheMaxAge)

	reg := instances.NewRegistry()
	if cfg.DefaultCompanyID > 0 {
		reg.SetCompanyID(defaultInstanceID, cfg.DefaultCompanyID)
		reg.SetAutoImport(defaultInstanceID, true)
	}

	imp := &importer.Importer{
		Instances:        reg,
		Cache:            cache,
		Catalog:          catalogClient,
		Platform:         platformClient,
		DefaultCompanyID: cfg.DefaultCompanyID,
		BatchSize:        cfg.AutoImportBatchSize,
	}

	return &services{cache: cache, registry: reg, importer: imp}, nil
}
