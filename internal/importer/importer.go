// Package importer drives the auto-import reconciliation cycle: for each
// enabled instance it refreshes the asset cache when stale, diffs the
// catalog's component set against it, and imports the missing entities
// in batches.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shieldsync/shieldsync/internal/assetcache"
	"github.com/shieldsync/shieldsync/internal/batch"
	"github.com/shieldsync/shieldsync/internal/catalog"
	"github.com/shieldsync/shieldsync/internal/instances"
	"github.com/shieldsync/shieldsync/internal/metrics"
	"github.com/shieldsync/shieldsync/internal/normalize"
	"github.com/shieldsync/shieldsync/internal/platform"
)

const defaultBatchSize = 10

// Result aggregates one reconciliation cycle. A non-empty Errors list
// with Imported > 0 is partial success, a normal outcome.
type Result struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// InstanceSource yields the instances that opted into auto import.
// *instances.Registry implements it.
type InstanceSource interface {
	EnabledInstances() []instances.EnabledInstance
}

// AssetCache is the cache surface the reconciler needs.
// *assetcache.Cache implements it.
type AssetCache interface {
	IsStale(companyID int64) bool
	Sync(ctx context.Context, companyID int64, force bool) (assetcache.SyncResult, error)
	CheckNames(companyID int64, names []string) map[string]bool
	AddNames(companyID int64, names []string) int
}

// EntityLister fetches the catalog's component entities.
// *catalog.Client implements it.
type EntityLister interface {
	ListComponentEntities(ctx context.Context) ([]catalog.Entity, error)
}

// AssetImporter submits import candidates to the platform.
// *platform.Client implements it.
type AssetImporter interface {
	ImportAssets(ctx context.Context, companyID int64, candidates []platform.ImportCandidate) (platform.ImportResult, error)
}

type Importer struct {
	Instances InstanceSource
	Cache     AssetCache
	Catalog   EntityLister
	Platform  AssetImporter

	// DefaultCompanyID is the configured fallback tenant for instances
	// announcing auto import without their own company id. Zero means no
	// fallback.
	DefaultCompanyID int64
	BatchSize        int
}

// CheckAndImportNewEntities runs one reconciliation cycle across all
// enabled instances. Failures are isolated per instance: one instance's
// error never aborts the others.
func (i *Importer) CheckAndImportNewEntities(ctx context.Context) Result {
	start := time.Now()
	runID := uuid.NewString()
	log := slog.With("run_id", runID)

	if i.Instances == nil {
		// Only a registry-level failure aborts the whole cycle.
		metrics.ImportRunsTotal.WithLabelValues("failure").Inc()
		return Result{Errors: []string{"instance registry is not configured"}}
	}

	enabled := i.Instances.EnabledInstances()
	if len(enabled) == 0 {
		log.Info("auto import: no enabled instances")
		metrics.ImportRunsTotal.WithLabelValues("success").Inc()
		return Result{Errors: []string{}}
	}

	var result Result
	result.Errors = []string{}
	for _, inst := range enabled {
		imported, errs := i.processInstance(ctx, log, inst)
		result.Imported += imported
		result.Errors = append(result.Errors, errs...)
	}

	duration := time.Since(start)
	metrics.ImportRunDuration.Observe(duration.Seconds())
	status := "success"
	if len(result.Errors) > 0 {
		status = "failure"
	}
	metrics.ImportRunsTotal.WithLabelValues(status).Inc()

	log.Info("auto import cycle finished",
		"instances", len(enabled),
		"imported", result.Imported,
		"errors", len(result.Errors),
		"duration", duration,
	)
	return result
}

// processInstance handles one instance end to end. Any panic escaping
// the steps is converted into a single error string for this instance.
func (i *Importer) processInstance(ctx context.Context, log *slog.Logger, inst instances.EnabledInstance) (imported int, errs []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("auto import: instance processing panicked",
				"instance_id", inst.InstanceID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			imported = 0
			errs = []string{fmt.Sprintf("instance %s: unexpected failure: %v", inst.InstanceID, r)}
		}
	}()

	companyID := inst.CompanyID
	if companyID <= 0 {
		companyID = i.DefaultCompanyID
	}
	if companyID <= 0 {
		msg := fmt.Sprintf("No companyId found for instance %s, skipping auto import", inst.InstanceID)
		log.Warn("auto import: instance skipped", "instance_id", inst.InstanceID, "reason", "no company id")
		return 0, []string{msg}
	}
	companyLabel := strconv.FormatInt(companyID, 10)

	// A remote outage during cache refresh must not block the cycle;
	// reconcile against whatever cache state exists.
	if i.Cache.IsStale(companyID) {
		if _, err := i.Cache.Sync(ctx, companyID, false); err != nil {
			log.Warn("auto import: stale cache refresh failed, continuing with existing cache",
				"instance_id", inst.InstanceID,
				"company_id", companyID,
				"err", err,
			)
		}
	}

	entities, err := i.Catalog.ListComponentEntities(ctx)
	if err != nil {
		metrics.ImportErrorsTotal.WithLabelValues(companyLabel).Inc()
		return 0, []string{fmt.Sprintf("instance %s: catalog fetch failed: %v", inst.InstanceID, err)}
	}

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Metadata.Name)
	}
	known := i.Cache.CheckNames(companyID, names)

	var nonImported []catalog.Entity
	for _, e := range entities {
		if !known[normalize.Name(e.Metadata.Name)] {
			nonImported = append(nonImported, e)
		}
	}
	if len(nonImported) == 0 {
		log.Info("auto import: nothing to import",
			"instance_id", inst.InstanceID,
			"company_id", companyID,
			"entities", len(entities),
		)
		return 0, nil
	}

	candidates := make([]platform.ImportCandidate, 0, len(nonImported))
	for _, e := range nonImported {
		candidates = append(candidates, Candidate(e))
	}

	batchSize := i.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	var importedNames []string
	outcome := batch.ProcessInBatches(ctx, candidates, batchSize,
		func(ctx context.Context, chunk []platform.ImportCandidate) ([]string, error) {
			res, err := i.Platform.ImportAssets(ctx, companyID, chunk)
			if err != nil {
				return nil, err
			}
			if !res.Success {
				if len(res.Errors) > 0 {
					return nil, errors.New(res.Errors[0])
				}
				return nil, errors.New("platform rejected the import")
			}
			imported += res.ImportedCount
			names := make([]string, 0, len(chunk))
			for _, c := range chunk {
				names = append(names, normalize.Name(c.Name))
			}
			return names, nil
		},
		func(index, size int) {
			log.Debug("auto import: batch done", "instance_id", inst.InstanceID, "batch", index, "size", size)
		},
	)
	importedNames = outcome.Results
	errs = append(errs, outcome.Errors...)

	if imported > 0 {
		// Keep cache and remote state in agreement without a full resync.
		i.Cache.AddNames(companyID, importedNames)
		metrics.ImportedAssetsTotal.WithLabelValues(companyLabel).Add(float64(imported))
	}
	if len(errs) > 0 {
		metrics.ImportErrorsTotal.WithLabelValues(companyLabel).Add(float64(len(errs)))
	}

	log.Info("auto import: instance processed",
		"instance_id", inst.InstanceID,
		"company_id", companyID,
		"candidates", len(candidates),
		"imported", imported,
		"errors", len(errs),
	)
	return imported, errs
}

// RunOnce adapts the reconciler to the scheduler's Runner contract.
func (i *Importer) RunOnce(ctx context.Context) error {
	res := i.CheckAndImportNewEntities(ctx)
	if len(res.Errors) > 0 {
		joined := make([]error, 0, len(res.Errors))
		for _, msg := range res.Errors {
			joined = append(joined, errors.New(msg))
		}
		return fmt.Errorf("auto import: %d of the steps failed: %w", len(res.Errors), errors.Join(joined...))
	}
	return nil
}
