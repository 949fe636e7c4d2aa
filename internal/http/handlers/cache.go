package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

type cacheSnapshotResponse struct {
	CompanyID  int64     `json:"companyId"`
	Assets     []string  `json:"assets"`
	LastSync   time.Time `json:"lastSync"`
	TotalCount int       `json:"totalCount"`
}

type cacheSyncResponse struct {
	CompanyID  int64 `json:"companyId"`
	Synced     int   `json:"synced"`
	DurationMs int64 `json:"durationMs"`
}

type cacheNamesRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type cacheNamesResponse struct {
	CompanyID int64 `json:"companyId"`
	Added     int   `json:"added"`
	Removed   int   `json:"removed"`
}

// HandleCacheShow returns the cached asset names for a company. A
// company that was never synced is a 404, not an empty snapshot.
func (h *Handlers) HandleCacheShow(c *echo.Context) error {
	companyID, err := companyIDParam(c)
	if err != nil {
		return err
	}

	snap, ok := h.Cache.Get(companyID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no cache entry for company")
	}
	return c.JSON(http.StatusOK, cacheSnapshotResponse{
		CompanyID:  companyID,
		Assets:     snap.Assets,
		LastSync:   snap.LastSync,
		TotalCount: snap.TotalCount,
	})
}

// HandleCacheSync triggers a cache refresh. Without force=true a fresh
// entry is returned as-is with no remote call.
func (h *Handlers) HandleCacheSync(c *echo.Context) error {
	companyID, err := companyIDParam(c)
	if err != nil {
		return err
	}
	force := ParseBoolQuery(c.QueryParam("force"))

	res, err := h.Cache.Sync(c.Request().Context(), companyID, force)
	if err != nil {
		c.Logger().Error("cache sync failed", "company_id", companyID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "cache sync failed")
	}
	return c.JSON(http.StatusOK, cacheSyncResponse{
		CompanyID:  companyID,
		Synced:     res.Synced,
		DurationMs: res.Duration.Milliseconds(),
	})
}

// HandleCacheNames applies incremental additions and removals to a
// company's cached name set.
func (h *Handlers) HandleCacheNames(c *echo.Context) error {
	companyID, err := companyIDParam(c)
	if err != nil {
		return err
	}

	var req cacheNamesRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to add or remove")
	}

	resp := cacheNamesResponse{CompanyID: companyID}
	if len(req.Add) > 0 {
		resp.Added = h.Cache.AddNames(companyID, req.Add)
	}
	if len(req.Remove) > 0 {
		resp.Removed = h.Cache.RemoveNames(companyID, req.Remove)
	}
	return c.JSON(http.StatusOK, resp)
}
