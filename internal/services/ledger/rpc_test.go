package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/soddle/internal/model"
	"github.com/mcoot/soddle/internal/testutil"
)

// fakeGateway is a JSON-RPC ledger gateway backed by a MemoryClient
type fakeGateway struct {
	ledger *MemoryClient

	mu      sync.Mutex
	methods []string
	fail    bool
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, ok := msg.(*jsonrpc.Request)
	if !ok {
		http.Error(w, "expected request", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.methods = append(g.methods, req.Method)
	fail := g.fail
	g.mu.Unlock()

	resp := &jsonrpc.Response{ID: req.ID}
	if fail {
		resp.Error = errors.New("gateway busy")
	} else {
		result, err := g.dispatch(r.Context(), req)
		if err != nil {
			resp.Error = err
		} else {
			resp.Result = result
		}
	}

	data, err := jsonrpc.EncodeMessage(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (g *fakeGateway) dispatch(ctx context.Context, req *jsonrpc.Request) (json.RawMessage, error) {
	switch req.Method {
	case MethodSubmitScore:
		var p submitScoreParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		receipt, err := g.ledger.SubmitScore(ctx, p.Address, ScoreRequest{
			Player:        model.PlayerID(p.Player),
			CompetitionID: p.CompetitionID,
			SessionID:     model.SessionID(p.SessionID),
			Stage:         model.Stage(p.Stage),
			Score:         p.Score,
			GuessCount:    p.GuessCount,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(submitScoreResult{ReceiptID: receipt})
	case MethodActiveCompetition:
		comp, err := g.ledger.ActiveCompetition(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(competitionToWire(comp))
	case MethodRotateCompetition:
		var p competitionWire
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		if err := g.ledger.RotateCompetition(ctx, p.toModel()); err != nil {
			return nil, err
		}
		return json.Marshal(struct{}{})
	default:
		return nil, errors.New("method not found")
	}
}

func newGateway(t *testing.T) (*fakeGateway, *RPCClient) {
	t.Helper()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		ledger: NewMemoryClient(model.Competition{
			ID:        "comp-1",
			StartTime: start,
			EndTime:   start.Add(24 * time.Hour),
		}),
	}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	return gw, NewRPCClient(srv.URL, 5*time.Second)
}

func TestRPCClientSubmitScore(t *testing.T) {
	gw, client := newGateway(t)

	receipt, err := client.SubmitScore(context.Background(), "addr-1", ScoreRequest{
		Player:        "player-1",
		CompetitionID: "comp-1",
		SessionID:     "session-1",
		Stage:         model.StageTwo,
		Score:         640,
		GuessCount:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, "rcpt-1", receipt)

	records := gw.ledger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "addr-1", records[0].Address)
	assert.Equal(t, model.StageTwo, records[0].Request.Stage)
	assert.Equal(t, 640, records[0].Request.Score)
	assert.Equal(t, 5, records[0].Request.GuessCount)
}

func TestRPCClientCompetitionRoundTrip(t *testing.T) {
	gw, client := newGateway(t)
	ctx := context.Background()

	comp, err := client.ActiveCompetition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "comp-1", comp.ID)
	assert.Equal(t, 24*time.Hour, comp.EndTime.Sub(comp.StartTime))

	next := model.Competition{
		ID:        "comp-2",
		StartTime: comp.EndTime,
		EndTime:   comp.EndTime.Add(24 * time.Hour),
	}
	require.NoError(t, client.RotateCompetition(ctx, next))

	comp, err = client.ActiveCompetition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "comp-2", comp.ID)
	assert.Equal(t, 1, gw.ledger.Rotations())
	assert.Equal(t, []string{
		MethodActiveCompetition,
		MethodRotateCompetition,
		MethodActiveCompetition,
	}, gw.methods)
}

func TestRPCClientReportsRemoteError(t *testing.T) {
	gw, client := newGateway(t)
	gw.fail = true

	_, err := client.ActiveCompetition(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway busy")
}

func TestRPCClientReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, time.Second)
	_, err := client.SubmitScore(context.Background(), "addr", ScoreRequest{Player: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAnchorOverRPCRetries(t *testing.T) {
	gw, client := newGateway(t)
	gw.ledger.FailSubmissions(1)

	timers := &timerRecorder{}
	anchor := NewAnchor(client, DefaultConfig(), nil, nil, testutil.NopLogger(), WithTimer(timers.newTimer))

	receipt, err := anchor.SubmitScore(context.Background(), ScoreRequest{
		Player:        "player-1",
		CompetitionID: "comp-1",
		Stage:         model.StageOne,
		Score:         1000,
		GuessCount:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, "rcpt-1", receipt)
	assert.Equal(t, []time.Duration{time.Second}, timers.Waits())
}
