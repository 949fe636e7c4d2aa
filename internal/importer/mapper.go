package importer

import (
	"strings"

	"github.com/shieldsync/shieldsync/internal/catalog"
	"github.com/shieldsync/shieldsync/internal/normalize"
	"github.com/shieldsync/shieldsync/internal/platform"
)

// Lifecycle and asset-type vocabularies of the platform. Catalog values
// outside the mapping fall back to an explicit default rather than
// passing through unknown strings.
const (
	lifecycleProduction   = "production"
	lifecycleHomologation = "homologation"

	assetTypeAPI     = "api"
	assetTypeWeb     = "web"
	assetTypeLibrary = "library"
)

// Candidate maps a catalog entity into the platform's import shape.
func Candidate(e catalog.Entity) platform.ImportCandidate {
	return platform.ImportCandidate{
		Name:        normalize.Trim(e.Metadata.Name),
		Description: normalize.Trim(e.Metadata.Description),
		URL:         e.SourceURL(),
		RepoURL:     e.RepoURL(),
		Lifecycle:   mapLifecycle(e.Spec.Lifecycle),
		Tags:        cleanTags(e.Metadata.Tags),
		Owner:       ownerName(e.Spec.Owner),
		AssetType:   mapAssetType(e.Spec.Type),
	}
}

func mapLifecycle(lifecycle string) string {
	switch strings.ToLower(strings.TrimSpace(lifecycle)) {
	case "production":
		return lifecycleProduction
	case "development", "experimental":
		return lifecycleHomologation
	default:
		return lifecycleProduction
	}
}

func mapAssetType(entityType string) string {
	switch strings.ToLower(strings.TrimSpace(entityType)) {
	case "service":
		return assetTypeAPI
	case "website":
		return assetTypeWeb
	case "library":
		return assetTypeLibrary
	default:
		return assetTypeAPI
	}
}

// ownerName strips Backstage entity-ref prefixes ("group:default/team-a"
// becomes "team-a").
func ownerName(owner string) string {
	owner = strings.TrimSpace(owner)
	if idx := strings.LastIndex(owner, "/"); idx >= 0 {
		owner = owner[idx+1:]
	}
	if idx := strings.Index(owner, ":"); idx >= 0 {
		owner = owner[idx+1:]
	}
	return strings.TrimSpace(owner)
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := normalize.Trim(tag); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
