package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/shieldsync/shieldsync/internal/instances"
)

func TestHandleInstancesList(t *testing.T) {
	reg := instances.NewRegistry()
	reg.SetAutoImport("alpha", true)
	reg.SetCompanyID("alpha", 123)
	reg.SetAutoImport("beta", true) // no company id, stays disabled
	reg.SetCompanyID("gamma", 7)    // flag never set

	h := &Handlers{Registry: reg}
	c, rec := newTestContext(http.MethodGet, "http://example.com/api/instances", "")

	if err := h.HandleInstancesList(c); err != nil {
		t.Fatalf("HandleInstancesList: %v", err)
	}

	var resp []instanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 3 {
		t.Fatalf("got %d instances, want 3", len(resp))
	}
	if resp[0].InstanceID != "alpha" || !resp[0].Enabled {
		t.Fatalf("alpha = %+v, want enabled", resp[0])
	}
	if resp[1].InstanceID != "beta" || resp[1].Enabled {
		t.Fatalf("beta = %+v, want disabled without company id", resp[1])
	}
	if resp[2].InstanceID != "gamma" || resp[2].Enabled {
		t.Fatalf("gamma = %+v, want disabled without flag", resp[2])
	}
}

func TestHandleInstanceUpdate(t *testing.T) {
	reg := instances.NewRegistry()
	h := &Handlers{Registry: reg}

	c, rec := newTestContext(http.MethodPut, "http://example.com/api/instances/alpha",
		`{"autoImport":true,"companyId":123}`)
	c.SetPathValues(echo.PathValues{{Name: "id", Value: "alpha"}})

	if err := h.HandleInstanceUpdate(c); err != nil {
		t.Fatalf("HandleInstanceUpdate: %v", err)
	}

	var resp instanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Enabled || resp.CompanyID != 123 || !resp.AutoImport {
		t.Fatalf("response %+v", resp)
	}

	enabled := reg.EnabledInstances()
	if len(enabled) != 1 || enabled[0].CompanyID != 123 {
		t.Fatalf("enabled = %+v", enabled)
	}
}

func TestHandleInstanceUpdateFlagOnly(t *testing.T) {
	reg := instances.NewRegistry()
	h := &Handlers{Registry: reg}

	c, rec := newTestContext(http.MethodPut, "http://example.com/api/instances/alpha",
		`{"autoImport":true}`)
	c.SetPathValues(echo.PathValues{{Name: "id", Value: "alpha"}})

	if err := h.HandleInstanceUpdate(c); err != nil {
		t.Fatalf("HandleInstanceUpdate: %v", err)
	}

	var resp instanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Enabled {
		t.Fatalf("response %+v, flag without company id must stay disabled", resp)
	}
	if len(reg.EnabledInstances()) != 0 {
		t.Fatalf("instance without company id leaked into enabled set")
	}
}

func TestHandleInstanceUpdateNegativeCompany(t *testing.T) {
	h := &Handlers{Registry: instances.NewRegistry()}

	c, _ := newTestContext(http.MethodPut, "http://example.com/api/instances/alpha",
		`{"companyId":-5}`)
	c.SetPathValues(echo.PathValues{{Name: "id", Value: "alpha"}})

	err := h.HandleInstanceUpdate(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}
