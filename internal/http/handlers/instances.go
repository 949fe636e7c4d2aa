package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

type instanceResponse struct {
	InstanceID string `json:"instanceId"`
	AutoImport bool   `json:"autoImport"`
	CompanyID  int64  `json:"companyId,omitempty"`
	Enabled    bool   `json:"enabled"`
}

type instanceUpdateRequest struct {
	AutoImport *bool `json:"autoImport"`
	CompanyID  int64 `json:"companyId"`
}

// HandleInstancesList returns every known instance with its auto-import
// state. Enabled means the flag is on and a company id is assigned.
func (h *Handlers) HandleInstancesList(c *echo.Context) error {
	if h.Registry == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "instance registry is not configured")
	}

	all := h.Registry.All()
	out := make([]instanceResponse, 0, len(all))
	for _, inst := range all {
		companyID := h.Registry.CompanyID(inst)
		out = append(out, instanceResponse{
			InstanceID: inst,
			AutoImport: h.Registry.AutoImport(inst),
			CompanyID:  companyID,
			Enabled:    h.Registry.AutoImport(inst) && companyID > 0,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// HandleInstanceUpdate sets an instance's auto-import flag and company
// assignment.
func (h *Handlers) HandleInstanceUpdate(c *echo.Context) error {
	if h.Registry == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "instance registry is not configured")
	}

	instanceID := strings.TrimSpace(c.Param("id"))
	if instanceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "instance id is required")
	}

	var req instanceUpdateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.CompanyID != 0 {
		if req.CompanyID < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "company id must be positive")
		}
		h.Registry.SetCompanyID(instanceID, req.CompanyID)
	}
	if req.AutoImport != nil {
		h.Registry.SetAutoImport(instanceID, *req.AutoImport)
	}

	companyID := h.Registry.CompanyID(instanceID)
	return c.JSON(http.StatusOK, instanceResponse{
		InstanceID: instanceID,
		AutoImport: h.Registry.AutoImport(instanceID),
		CompanyID:  companyID,
		Enabled:    h.Registry.AutoImport(instanceID) && companyID > 0,
	})
}
