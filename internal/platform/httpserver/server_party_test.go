package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	electionservice "payparty/contexts/party/election-service"
	payoutservice "payparty/contexts/party/payout-service"
	"payparty/internal/app/partybridge"

	"github.com/goccy/go-json"
)

const (
	testCreator = "0x00000000000000000000000000000000000000c0"
	testAlice   = "0x00000000000000000000000000000000000000a1"
	testBob     = "0x00000000000000000000000000000000000000b2"
	testVoter1  = "0x0000000000000000000000000000000000000101"
	testVoter2  = "0x0000000000000000000000000000000000000102"
)

func newTestServer() *Server {
	elections := electionservice.NewInMemoryModule(nil, slog.Default())
	payouts := payoutservice.NewInMemoryModule(partybridge.New(elections), slog.Default())
	return New(elections, payouts, slog.Default(), ":0")
}

func doRequest(server *Server, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func createElection(t *testing.T, server *Server, key string) string {
	t.Helper()
	body := `{"name":"grants round","candidates":["` + testAlice + `","` + testBob + `"],` +
		`"voters":["` + testVoter1 + `","` + testVoter2 + `"],"kind":"linear","fund_amount":"1000"}`
	rr := doRequest(server, http.MethodPost, "/party/elections", body, map[string]string{
		"X-User-Id":       testCreator,
		"Idempotency-Key": key,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ElectionID string `json:"election_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.ElectionID
}

func castBallot(server *Server, electionID string, voter string, alice float64, bob float64) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]any{
		"vote_attribution": []map[string]any{
			{"candidate": testAlice, "score": alice},
			{"candidate": testBob, "score": bob},
		},
	})
	return doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/ballots", string(body), map[string]string{
		"X-User-Id": voter,
	})
}

func TestCreateElectionRequiresUser(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodPost, "/party/elections", `{"name":"x"}`, map[string]string{
		"Idempotency-Key": "k-1",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateElectionRequiresIdempotencyKey(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodPost, "/party/elections", `{"name":"x"}`, map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateElectionReplayReturns200(t *testing.T) {
	server := newTestServer()
	first := createElection(t, server, "k-replay")

	body := `{"name":"grants round","candidates":["` + testAlice + `","` + testBob + `"],` +
		`"voters":["` + testVoter1 + `","` + testVoter2 + `"],"kind":"linear","fund_amount":"1000"}`
	rr := doRequest(server, http.MethodPost, "/party/elections", body, map[string]string{
		"X-User-Id":       testCreator,
		"Idempotency-Key": "k-replay",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), first) {
		t.Fatalf("expected replay of %s, got %s", first, rr.Body.String())
	}
}

func TestCreateElectionRejectsInvalidFund(t *testing.T) {
	server := newTestServer()
	body := `{"name":"bad","candidates":["` + testAlice + `"],"voters":["` + testVoter1 + `"],"fund_amount":"-5"}`
	rr := doRequest(server, http.MethodPost, "/party/elections", body, map[string]string{
		"X-User-Id":       testCreator,
		"Idempotency-Key": "k-bad",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastBallotAcceptedThenRejected(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-cast")

	rr := castBallot(server, electionID, testVoter1, 1, 3)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = castBallot(server, electionID, strings.ToUpper(testVoter1[:2])+testVoter1[2:], 5, 5)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for repeat voter, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
		Tally  struct {
			TotalScores []float64 `json:"total_scores"`
			Payout      []string  `json:"payout"`
		} `json:"tally"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode cast response: %v", err)
	}
	if resp.Status != "rejected" {
		t.Fatalf("expected rejected, got %s", resp.Status)
	}
	if resp.Tally.TotalScores[0] != 1 || resp.Tally.TotalScores[1] != 3 {
		t.Fatalf("expected unchanged tally, got %v", resp.Tally.TotalScores)
	}
	if resp.Tally.Payout[0] != "250" || resp.Tally.Payout[1] != "750" {
		t.Fatalf("unexpected payout %v", resp.Tally.Payout)
	}

	rr = doRequest(server, http.MethodGet, "/party/elections/"+electionID+"/voters/"+testVoter1, "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"has_voted":true`) {
		t.Fatalf("expected has_voted true, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastBallotMalformedIs422(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-malformed")
	body := `{"vote_attribution":[{"candidate":"` + testBob + `","score":1},{"candidate":"` + testAlice + `","score":1}]}`
	rr := doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/ballots", body, map[string]string{
		"X-User-Id": testVoter1,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCastBallotIneligibleVoterIs403(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-ineligible")
	rr := castBallot(server, electionID, testAlice, 1, 1)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetUnknownElectionIs404(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/party/elections/missing", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCloseElectionCreatorOnly(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-close")

	rr := doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/close", "", map[string]string{
		"X-User-Id": testVoter1,
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/close", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"is_active":false`) {
		t.Fatalf("expected closed election, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = castBallot(server, electionID, testVoter2, 1, 1)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 after close, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDistributeFlow(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-distribute")
	if rr := castBallot(server, electionID, testVoter1, 1, 3); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr := doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 while active, got %d body=%s", rr.Code, rr.Body.String())
	}

	doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/close", "", map[string]string{
		"X-User-Id": testCreator,
	})

	rr = doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var distribution struct {
		Total         string   `json:"total"`
		Amounts       []string `json:"amounts"`
		TxHash        string   `json:"tx_hash"`
		ReceiptStatus string   `json:"receipt_status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &distribution); err != nil {
		t.Fatalf("decode distribution: %v", err)
	}
	if distribution.Total != "1000" || len(distribution.Amounts) != 2 || distribution.ReceiptStatus != "delivered" {
		t.Fatalf("unexpected distribution %s", rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, "/party/elections/"+electionID, "", nil)
	if !strings.Contains(rr.Body.String(), `"is_paid":true`) || !strings.Contains(rr.Body.String(), distribution.TxHash) {
		t.Fatalf("expected paid election with tx hash, got %s", rr.Body.String())
	}

	rr = doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second distribution, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, "/party/elections/"+electionID+"/distributions", "", nil)
	if rr.Code != http.StatusOK || strings.Count(rr.Body.String(), "distribution_id") != 1 {
		t.Fatalf("expected one distribution listed, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDistributeWithoutVotesIs422(t *testing.T) {
	server := newTestServer()
	electionID := createElection(t, server, "k-empty")
	doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/close", "", map[string]string{
		"X-User-Id": testCreator,
	})
	rr := doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSwaggerDocIsServed(t *testing.T) {
	server := newTestServer()
	rr := doRequest(server, http.MethodGet, "/swagger/doc.json", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "/party/elections/{election_id}/distribute") {
		t.Fatalf("expected swagger document, got %d", rr.Code)
	}
}

func TestDistributeUnminedPaymentIs504ThenSettles(t *testing.T) {
	elections := electionservice.NewInMemoryModule(nil, slog.Default())
	payouts := payoutservice.NewInMemoryModule(partybridge.New(elections), slog.Default())
	server := New(elections, payouts, slog.Default(), ":0")

	electionID := createElection(t, server, "k-unmined")
	if rr := castBallot(server, electionID, testVoter1, 1, 1); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/close", "", map[string]string{
		"X-User-Id": testCreator,
	})

	payouts.Gateway.Pending = true
	rr := doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusGatewayTimeout || !strings.Contains(rr.Body.String(), "payment_unconfirmed") {
		t.Fatalf("expected 504, got %d body=%s", rr.Code, rr.Body.String())
	}

	payouts.Gateway.Pending = false
	rr = doRequest(server, http.MethodPost, "/party/elections/"+electionID+"/distribute", "", map[string]string{
		"X-User-Id": testCreator,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 once mined, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(payouts.Gateway.Requests()) != 1 {
		t.Fatalf("expected one payElection call, got %d", len(payouts.Gateway.Requests()))
	}
}
