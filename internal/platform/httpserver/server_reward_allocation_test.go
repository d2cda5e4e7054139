package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rewardallocation "sponsordesk/contexts/sponsor-review/reward-allocation"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	rewardhttp "sponsordesk/contexts/sponsor-review/reward-allocation/transport/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestServer() *Server {
	deadline := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	listing := entities.Listing{
		ListingID: "listing-1",
		SponsorID: "sponsor-1",
		Title:     "Design a landing page",
		Type:      entities.ListingTypeBounty,
		Rewards: entities.RewardSchedule{
			1:                      decimal.NewFromInt(500),
			2:                      decimal.NewFromInt(250),
			entities.BonusPosition: decimal.NewFromInt(50),
		},
		MaxBonusSpots: 1,
		Deadline:      deadline,
	}
	candidates := make([]entities.Candidate, 0, 4)
	for _, id := range []string{"cand-a", "cand-b", "cand-c", "cand-d"} {
		candidates = append(candidates, entities.Candidate{
			CandidateID: id,
			ListingID:   "listing-1",
			ApplicantID: "user-" + id,
			Kind:        entities.CandidateKindSubmission,
			Status:      entities.StatusPending,
			Label:       entities.LabelUnreviewed,
		})
	}
	module := rewardallocation.NewInMemoryModule([]entities.Listing{listing}, candidates, slog.Default())
	module.Store.SetNow(deadline.Add(24 * time.Hour))
	return New(module, slog.Default(), ":0")
}

func doJSON(t *testing.T, server *Server, method string, path string, body string, actor string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-Id", actor)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) rewardhttp.ErrorResponse {
	t.Helper()
	var resp rewardhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestAssignWinnerRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/winners", `{"candidate_id":"cand-a","position":1}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
}

func TestAssignWinnerConflictsOnOccupiedSlot(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/winners", `{"candidate_id":"cand-a","position":1}`, "sponsor-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var winner rewardhttp.WinnerResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &winner))
	assert.Equal(t, 1, winner.Slot.Position)
	assert.Equal(t, []string{"cand-a"}, winner.Slot.Occupants)
	assert.True(t, winner.Candidate.IsWinner)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/winners", `{"candidate_id":"cand-b","position":1}`, "sponsor-1")
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, "slot_occupied", decodeError(t, rr).Code)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/winners", `{"candidate_id":"cand-b","position":7}`, "sponsor-1")
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestUnknownListingReturnsNotFound(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/listings/missing/slots", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
	assert.Equal(t, "listing_not_found", decodeError(t, rr).Code)
}

func TestPublishFlowOverHTTP(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/publish", `{}`, "sponsor-1")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "not_complete", decodeError(t, rr).Code)

	for _, body := range []string{
		`{"candidate_id":"cand-a","position":1}`,
		`{"candidate_id":"cand-b","position":2}`,
		`{"candidate_id":"cand-c","position":99}`,
	} {
		rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/winners", body, "sponsor-1")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/listings/listing-1/publish/precheck", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var precheck rewardhttp.PrecheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &precheck))
	assert.True(t, precheck.Complete)
	assert.Equal(t, 3, precheck.RequiredSlots)
	assert.Equal(t, 0, precheck.RemainingSlots)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/publish", `{}`, "sponsor-1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var published rewardhttp.PublishResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &published))
	assert.True(t, published.IsWinnersAnnounced)
	assert.Len(t, published.Winners, 3)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/publish", `{}`, "sponsor-1")
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, "already_announced", decodeError(t, rr).Code)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/candidates/cand-d/reject", "", "sponsor-1")
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, "listing_announced", decodeError(t, rr).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/listings/listing-1/winners.xlsx", nil)
	xlsx := httptest.NewRecorder()
	server.mux.ServeHTTP(xlsx, req)
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Equal(t, xlsxContentType, xlsx.Header().Get("Content-Type"))

	book, err := excelize.OpenReader(bytes.NewReader(xlsx.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()
	rows, err := book.GetRows("Winners")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestBatchRejectOverHTTP(t *testing.T) {
	server := newTestServer()
	body := `{"transition":"reject","candidate_ids":["cand-a","cand-b","cand-missing"],"selected_candidate_id":"cand-a"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/listings/listing-1/candidates/batch", bytes.NewReader([]byte(body)))
	req.Header.Set("X-User-Id", "sponsor-1")
	req.Header.Set("Idempotency-Key", "batch-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp rewardhttp.BatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"cand-a", "cand-b"}, resp.Succeeded)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "cand-missing", resp.Failed[0].CandidateID)
	assert.Equal(t, "cand-c", resp.SelectedCandidateID)
	assert.False(t, resp.Replayed)

	req = httptest.NewRequest(http.MethodPost, "/v1/listings/listing-1/candidates/batch", bytes.NewReader([]byte(body)))
	req.Header.Set("X-User-Id", "sponsor-1")
	req.Header.Set("Idempotency-Key", "batch-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Replayed)

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/candidates/batch", `{"transition":"archive","candidate_ids":["cand-c"]}`, "sponsor-1")
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestApproveRejectsMalformedAmount(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/candidates/cand-a/approve", `{"approved_amount":"lots"}`, "sponsor-1")
	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodPost, "/v1/listings/listing-1/candidates/cand-a/approve", `{"approved_amount":"100"}`, "sponsor-1")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "invalid_transition", decodeError(t, rr).Code)
}

func TestSwaggerDocIsServed(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/v1/listings/{listing_id}/publish")
}
