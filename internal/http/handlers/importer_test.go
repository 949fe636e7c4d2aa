package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/shieldsync/shieldsync/internal/importer"
)

type stubRunner struct {
	result importer.Result
	calls  int
}

func (s *stubRunner) CheckAndImportNewEntities(context.Context) importer.Result {
	s.calls++
	return s.result
}

func TestHandleImportRun(t *testing.T) {
	runner := &stubRunner{result: importer.Result{
		Imported: 2,
		Errors:   []string{"Batch 2 failed: boom"},
	}}
	h := &Handlers{Importer: runner}

	c, rec := newTestContext(http.MethodPost, "http://example.com/api/import", "")
	if err := h.HandleImportRun(c); err != nil {
		t.Fatalf("HandleImportRun: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("calls = %d", runner.calls)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, partial failure is still a 200", rec.Code)
	}

	var resp importer.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Imported != 2 || len(resp.Errors) != 1 {
		t.Fatalf("response %+v", resp)
	}
}

func TestHandleImportRunUnconfigured(t *testing.T) {
	h := &Handlers{}
	c, _ := newTestContext(http.MethodPost, "http://example.com/api/import", "")

	err := h.HandleImportRun(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503", err)
	}
}
