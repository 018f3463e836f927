package delivery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/shared"
)

func serve(t *testing.T, f *fixture, principal *shared.Principal, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(slog.Default(), f.svc).MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerReceive(t *testing.T) {
	f := newFixture(t)
	req, approved := f.approved(t, 4)
	receiver := shared.Principal{UserID: receiverID, Role: shared.RoleASC}
	body := `{"document_type":"DN","receiving_location":{"type":"service_center","id":7},"items":[{"spare_id":5,"qty":4,"carton_number":"C1"}]}`
	path := fmt.Sprintf("/%d/receive", req.ID)

	rec := serve(t, f, &receiver, path, "not-a-uuid", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, f, nil, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, f, &receiver, path, "0b7e3c52-1d6f-4a44-9f3e-6a0d9e2b8c11", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		DocumentNumber string `json:"document_number"`
		Created        bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, approved.DeliveryNote, res.DocumentNumber)
	assert.False(t, res.Created)

	rec = serve(t, f, &receiver, path, "", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerReceiveExceedsApproval(t *testing.T) {
	f := newFixture(t)
	req, _ := f.approved(t, 4)
	receiver := shared.Principal{UserID: receiverID, Role: shared.RoleASC}
	body := `{"receiving_location":{"type":"service_center","id":7},"items":[{"spare_id":5,"qty":9}]}`

	rec := serve(t, f, &receiver, fmt.Sprintf("/%d/receive", req.ID), "", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem struct {
		Details shared.QuantityExceedsApprovalError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, int64(9), problem.Details.Received)
	assert.Equal(t, int64(4), problem.Details.Approved)
}
