package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{shared.Validationf("bad qty"), http.StatusBadRequest},
		{fmt.Errorf("%w: not rsm", shared.ErrForbidden), http.StatusForbidden},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.NotFoundf("request %d", 4), http.StatusNotFound},
		{shared.ErrConflict, http.StatusConflict},
		{&shared.InsufficientInventoryError{SpareID: 1}, http.StatusUnprocessableEntity},
		{&shared.QuantityExceedsApprovalError{SpareID: 1}, http.StatusUnprocessableEntity},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Detail)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
}

func TestRespondErrorCarriesInventoryFigures(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("approve: %w", &shared.InsufficientInventoryError{ItemID: 2, SpareID: 5, Proposed: 12, Available: 10}))

	var body struct {
		Title   string                            `json:"title"`
		Details shared.InsufficientInventoryError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Insufficient Inventory", body.Title)
	assert.Equal(t, int64(10), body.Details.Available)
	assert.Equal(t, int64(2), body.Details.ItemID)
}
