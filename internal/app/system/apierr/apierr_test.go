package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratacloud/internal/app/drive"
	"go.uber.org/zap"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body
}

func TestWriteKinds(t *testing.T) {
	cases := []struct {
		kind   drive.Kind
		status int
	}{
		{drive.KindNotFound, http.StatusNotFound},
		{drive.KindForbidden, http.StatusForbidden},
		{drive.KindNameConflict, http.StatusConflict},
		{drive.KindCyclicMove, http.StatusBadRequest},
		{drive.KindSelfMove, http.StatusBadRequest},
		{drive.KindNegativeQuota, http.StatusBadRequest},
		{drive.KindInvalidInput, http.StatusBadRequest},
		{drive.KindQuotaExceeded, http.StatusRequestEntityTooLarge},
		{drive.KindStorageFault, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, zap.NewNop(), &drive.Error{Kind: tc.kind, Detail: "because"})

			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			body := decodeEnvelope(t, rec)
			if body["error"] != string(tc.kind) || body["detail"] != "because" {
				t.Errorf("envelope = %v, want kind %q detail %q", body, tc.kind, "because")
			}
		})
	}
}

func TestWriteWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := fmt.Errorf("handling request: %w", &drive.Error{Kind: drive.KindNotFound, Detail: "folder gone"})
	Write(rec, zap.NewNop(), wrapped)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a wrapped engine error", rec.Code)
	}
}

func TestWriteUntypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, zap.NewNop(), errors.New("mongo: connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	// Internal detail stays in the log, never in the response.
	if body["error"] != "internal" || body["detail"] != "internal server error" {
		t.Errorf("envelope = %v, want opaque internal error", body)
	}
}
