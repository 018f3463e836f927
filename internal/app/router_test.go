package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/approval"
	"github.com/servicehub/sparecrm/internal/authz"
	"github.com/servicehub/sparecrm/internal/delivery"
	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/observability"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
	"github.com/servicehub/sparecrm/internal/store/memstore"
	"github.com/servicehub/sparecrm/jobs"
)

const (
	rsmID      = 10
	operatorID = 21
)

func newTestAPI(t *testing.T) (http.Handler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	plant := location.Must(location.Plant, 1)
	st.SeedRegion(plant, 100)
	st.SeedPrincipal(shared.Principal{UserID: rsmID, Role: shared.RoleRSM, RegionIDs: []int64{100}})
	st.SeedPrincipal(shared.Principal{UserID: operatorID, Role: shared.RoleASC, RegionIDs: []int64{100}})
	st.SeedStock(inventory.Stock{SpareID: 5, Location: plant, QtyGood: 10})

	logger := slog.Default()
	metrics := observability.NewMetrics()
	ledger := inventory.NewLedger(logger).OnClamp(metrics.RecordLedgerClamp)
	recorder := movement.NewRecorder()

	approvalSvc := approval.NewService(approval.Dependencies{
		Repository: approval.NewRepository[*memstore.Tx](st),
		Authorizer: authz.NewAuthorizer(st),
		Ledger:     ledger,
		Recorder:   recorder,
		Metrics:    metrics,
		Logger:     logger,
	})
	deliverySvc := delivery.NewService(delivery.Dependencies{
		Repository: delivery.NewRepository[*memstore.Tx](st),
		Ledger:     ledger,
		Recorder:   recorder,
		Metrics:    metrics,
		Logger:     logger,
	})
	inventorySvc := inventory.NewService(inventory.NewRepository[*memstore.Tx](st), ledger, recorder, nil, logger)

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           &Config{RateLimitPerMinute: 1000},
		Authn:            authz.Middleware{Directory: st, Logger: logger},
		SparesHandler:    spares.NewHandler(logger, spares.NewService(spares.NewRepository[*memstore.Tx](st), logger)),
		ApprovalHandler:  approval.NewHandler(logger, approvalSvc),
		DeliveryHandler:  delivery.NewHandler(logger, deliverySvc),
		InventoryHandler: inventory.NewHandler(logger, inventorySvc),
		JobHandler:       jobs.NewHandler(nil, logger),
		Metrics:          metrics,
	})
	return router, st
}

func call(t *testing.T, h http.Handler, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID > 0 {
		req.Header.Set(authz.UserHeader, strconv.FormatInt(userID, 10))
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestApproveReceiveRoundTrip(t *testing.T) {
	api, st := newTestAPI(t)

	rec := call(t, api, http.MethodPost, "/api/spare-requests", operatorID,
		`{"type":"FILLUP_DISPATCH","requested_source":{"type":"service_center","id":7},"requested_to":{"type":"plant","id":1},"items":[{"spare_id":5,"qty":4}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created spares.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Items, 1)

	rec = call(t, api, http.MethodPost, fmt.Sprintf("/api/spare-requests/%d/approve", created.ID), operatorID,
		fmt.Sprintf(`{"items":[{"item_id":%d,"approved_qty":4}]}`, created.Items[0].ID))
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = call(t, api, http.MethodPost, fmt.Sprintf("/api/spare-requests/%d/approve", created.ID), rsmID,
		fmt.Sprintf(`{"items":[{"item_id":%d,"approved_qty":4}],"remarks":"ok"}`, created.Items[0].ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved approval.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.NotEmpty(t, approved.DeliveryNote)

	rec = call(t, api, http.MethodPost, fmt.Sprintf("/api/spare-requests/%d/receive", created.ID), operatorID,
		`{"receiving_location":{"type":"service_center","id":7},"items":[{"spare_id":5,"qty":4,"carton_number":"BOX-1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, api, http.MethodGet, "/api/inventory/5?location_type=service_center&location_id=7", operatorID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stock inventory.Stock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	assert.Equal(t, int64(4), stock.QtyGood)

	plant, _ := st.Stock(5, location.Must(location.Plant, 1))
	assert.Equal(t, int64(6), plant.QtyGood)
	moves := st.Movements()
	require.Len(t, moves, 1)
	assert.Equal(t, movement.StatusCompleted, moves[0].Status)
}

func TestAPIRequiresKnownCaller(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := call(t, api, http.MethodGet, "/api/spare-requests/1", 0, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = call(t, api, http.MethodGet, "/api/spare-requests/1", 999, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := call(t, api, http.MethodGet, "/healthz", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = call(t, api, http.MethodGet, "/metrics", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sparecrm_http_requests_total")

	rec = call(t, api, http.MethodGet, "/jobs/health", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
