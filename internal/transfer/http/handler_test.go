package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian-registry/internal/billing"
	"github.com/meridian-registry/meridian-registry/internal/history"
	"github.com/meridian-registry/meridian-registry/internal/money"
	"github.com/meridian-registry/meridian-registry/internal/observability"
	"github.com/meridian-registry/meridian-registry/internal/poll"
	"github.com/meridian-registry/meridian-registry/internal/projection"
	"github.com/meridian-registry/meridian-registry/internal/registrar"
	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
	"github.com/meridian-registry/meridian-registry/internal/shared"
	"github.com/meridian-registry/meridian-registry/internal/transfer"
	transferhttp "github.com/meridian-registry/meridian-registry/internal/transfer/http"
)

// stubRepo is a flat in-memory store backing both the flow transactions and
// the projection's snapshot reads.
type stubRepo struct {
	resources  map[string]resource.Resource
	recurrings map[uuid.UUID]billing.Recurring
}

func (r *stubRepo) WithTx(ctx context.Context, fn func(context.Context, transfer.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *stubRepo) GetResourceForUpdate(ctx context.Context, id string) (resource.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return resource.Resource{}, resource.ErrNotFound
	}
	return res, nil
}

func (r *stubRepo) Get(ctx context.Context, id string) (resource.Resource, error) {
	return r.GetResourceForUpdate(ctx, id)
}

func (r *stubRepo) UpdateResourceTransfer(ctx context.Context, id string, td resource.TransferData, at time.Time) error {
	res := r.resources[id]
	res.Transfer = td
	res.UpdatedAt = at
	r.resources[id] = res
	return nil
}

func (r *stubRepo) UpdateResourceOnTransferred(ctx context.Context, res resource.Resource, at time.Time) error {
	res.UpdatedAt = at
	r.resources[res.ID] = res
	return nil
}

func (r *stubRepo) InsertOneTime(ctx context.Context, ev billing.OneTime) error { return nil }

func (r *stubRepo) InsertRecurring(ctx context.Context, ev billing.Recurring) error {
	r.recurrings[ev.ID] = ev
	return nil
}

func (r *stubRepo) InsertCancellation(ctx context.Context, ev billing.Cancellation) error { return nil }

func (r *stubRepo) DeleteBillingEvent(ctx context.Context, id uuid.UUID) error {
	delete(r.recurrings, id)
	return nil
}

func (r *stubRepo) UpdateRecurrenceEnd(ctx context.Context, id uuid.UUID, end time.Time) error {
	ev, ok := r.recurrings[id]
	if !ok {
		return billing.ErrNotFound
	}
	ev.RecurrenceEnd = end
	r.recurrings[id] = ev
	return nil
}

func (r *stubRepo) InsertPollMessage(ctx context.Context, m poll.Message) error { return nil }
func (r *stubRepo) DeletePollMessage(ctx context.Context, id uuid.UUID) error   { return nil }
func (r *stubRepo) AppendHistory(ctx context.Context, e history.Entry) error    { return nil }

type stubRegistries struct{ cfg registry.Config }

func (s stubRegistries) Get(ctx context.Context, tld string) (registry.Config, error) {
	return s.cfg, nil
}

type stubRegistrars struct{}

func (stubRegistrars) Get(ctx context.Context, id string) (registrar.Registrar, error) {
	if id == "ghost" {
		return registrar.Registrar{}, registrar.ErrNotFound
	}
	return registrar.Registrar{ID: id, AllowedTLDs: []string{"example"}}, nil
}

type testServer struct {
	router  chi.Router
	repo    *stubRepo
	service *transfer.Service
	query   *projection.Service
}

func newTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()
	hash, err := resource.HashAuthInfo("2fooBAR")
	require.NoError(t, err)

	recurringID := uuid.New()
	repo := &stubRepo{
		resources: map[string]resource.Resource{
			"scoot.example": {
				ID:               "scoot.example",
				Name:             "scoot.example",
				Kind:             resource.KindDomain,
				TLD:              "example",
				SponsorID:        "R1",
				Statuses:         []resource.Status{resource.StatusOK},
				ExpirationTime:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
				DeletionTime:     shared.EndOfTime,
				AuthInfoHash:     hash,
				AutorenewEventID: recurringID,
				Transfer:         resource.TransferData{Status: resource.TransferStatusNotPending},
			},
		},
		recurrings: map[uuid.UUID]billing.Recurring{
			recurringID: {
				Header:        billing.Header{ID: recurringID, Reason: billing.ReasonAutoRenew, RegistrarID: "R1"},
				RecurrenceEnd: shared.EndOfTime,
			},
		},
	}
	cfg := registry.Config{
		TLD:                        "example",
		Currency:                   "USD",
		AutomaticTransferLength:    5 * 24 * time.Hour,
		TransferGracePeriodLength:  5 * 24 * time.Hour,
		AutorenewGracePeriodLength: 45 * 24 * time.Hour,
		MaxRegistrationYears:       10,
		RenewPricePerYear:          money.MustParse("USD", "11.00"),
	}

	registries := stubRegistries{cfg: cfg}
	service := transfer.NewService(repo, registries, stubRegistrars{}, transfer.Policy{})
	service.WithNow(func() time.Time { return now })
	query := projection.NewService(repo, registries)
	query.WithNow(func() time.Time { return now })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := transferhttp.NewHandler(logger, service, query, observability.NewMetrics())

	router := chi.NewRouter()
	router.Route("/v1/resources", handler.MountRoutes)

	return &testServer{router: router, repo: repo, service: service, query: query}
}

func (ts *testServer) do(method, path, registrarID, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if registrarID != "" {
		req.Header.Set("X-Registrar-ID", registrarID)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

const requestJSON = `{"period":1,"period_unit":"y","auth_info":"2fooBAR"}`

func TestRequestEndpoint(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))

	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", requestJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Transfer struct {
			Status            string     `json:"status"`
			PendingExpiration *time.Time `json:"pending_expiration"`
		} `json:"transfer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "PENDING", out.Transfer.Status)
	require.NotNil(t, out.Transfer.PendingExpiration)
	require.Equal(t, time.Date(2019, time.December, 25, 0, 0, 0, 0, time.UTC), out.Transfer.PendingExpiration.UTC())
}

func TestRequestEndpointRequiresRegistrar(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "", requestJSON)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestEndpointValidation(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))

	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", `{"period_unit":"y"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestEndpointConflictWhilePending(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", requestJSON).Code)

	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", requestJSON)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestEndpointBadAuthInfo(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", `{"period":1,"period_unit":"y","auth_info":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestEndpointUnknownResource(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	rec := ts.do(http.MethodPost, "/v1/resources/missing.example/transfer", "R2", requestJSON)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestEndpointUnknownRegistrar(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "ghost", requestJSON)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveEndpointPartyCheck(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", requestJSON).Code)

	// Only the losing sponsor may approve.
	rec := ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer/approve", "R2", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer/approve", "R1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Transfer struct {
			Status string `json:"status"`
		} `json:"transfer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "CLIENT_APPROVED", out.Transfer.Status)
}

func TestQueryEndpointProjectsAcrossDeadline(t *testing.T) {
	now := time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, now)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/v1/resources/scoot.example/transfer", "R2", requestJSON).Code)

	rec := ts.do(http.MethodGet, "/v1/resources/scoot.example/transfer", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Status            string     `json:"status"`
		SponsorID         string     `json:"sponsor_id"`
		PendingResolution *time.Time `json:"pending_resolution"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Equal(t, "PENDING", pending.Status)
	require.Equal(t, "R1", pending.SponsorID)
	require.NotNil(t, pending.PendingResolution)

	// Same stored state, later clock: the projection completes the transfer.
	ts.query.WithNow(func() time.Time { return now.AddDate(0, 0, 6) })
	rec = ts.do(http.MethodGet, "/v1/resources/scoot.example/transfer", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var approved struct {
		Status            string    `json:"status"`
		SponsorID         string    `json:"sponsor_id"`
		ExpirationTime    time.Time `json:"expiration_time"`
		TransferCompleted bool      `json:"transfer_completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	require.Equal(t, "SERVER_APPROVED", approved.Status)
	require.Equal(t, "R2", approved.SponsorID)
	require.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), approved.ExpirationTime.UTC())
	require.True(t, approved.TransferCompleted)
}

func TestQueryEndpointUnknownResource(t *testing.T) {
	ts := newTestServer(t, time.Date(2019, time.December, 20, 0, 0, 0, 0, time.UTC))
	rec := ts.do(http.MethodGet, "/v1/resources/missing.example/transfer", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
