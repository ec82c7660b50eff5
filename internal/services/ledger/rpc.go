package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/mcoot/soddle/internal/model"
)

// RPC method names served by the ledger gateway
const (
	MethodSubmitScore       = "submitScore"
	MethodActiveCompetition = "getActiveCompetition"
	MethodRotateCompetition = "rotateCompetition"
)

// RPCClient talks JSON-RPC 2.0 over HTTP to the ledger gateway
type RPCClient struct {
	url    string
	http   *http.Client
	nextID atomic.Uint64
}

// Ensure RPCClient implements Client
var _ Client = (*RPCClient)(nil)

// NewRPCClient creates a client for the gateway at url
func NewRPCClient(url string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		url: url,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire types

type submitScoreParams struct {
	Address       string `json:"address"`
	Player        string `json:"player"`
	CompetitionID string `json:"competition_id"`
	SessionID     string `json:"session_id"`
	Stage         int    `json:"stage"`
	Score         int    `json:"score"`
	GuessCount    int    `json:"guess_count"`
}

type submitScoreResult struct {
	ReceiptID string `json:"receipt_id"`
}

type competitionWire struct {
	CompetitionID string `json:"competition_id"`
	StartTime     int64  `json:"start_time"`
	EndTime       int64  `json:"end_time"`
}

func (c competitionWire) toModel() model.Competition {
	return model.Competition{
		ID:        c.CompetitionID,
		StartTime: time.Unix(c.StartTime, 0).UTC(),
		EndTime:   time.Unix(c.EndTime, 0).UTC(),
	}
}

func competitionToWire(comp model.Competition) competitionWire {
	return competitionWire{
		CompetitionID: comp.ID,
		StartTime:     comp.StartTime.Unix(),
		EndTime:       comp.EndTime.Unix(),
	}
}

func (c *RPCClient) SubmitScore(ctx context.Context, address string, req ScoreRequest) (string, error) {
	params := submitScoreParams{
		Address:       address,
		Player:        string(req.Player),
		CompetitionID: req.CompetitionID,
		SessionID:     string(req.SessionID),
		Stage:         int(req.Stage),
		Score:         req.Score,
		GuessCount:    req.GuessCount,
	}

	var result submitScoreResult
	if err := c.call(ctx, MethodSubmitScore, params, &result); err != nil {
		return "", err
	}
	if result.ReceiptID == "" {
		return "", fmt.Errorf("ledger rpc %s: empty receipt", MethodSubmitScore)
	}
	return result.ReceiptID, nil
}

func (c *RPCClient) ActiveCompetition(ctx context.Context) (model.Competition, error) {
	var result competitionWire
	if err := c.call(ctx, MethodActiveCompetition, struct{}{}, &result); err != nil {
		return model.Competition{}, err
	}
	return result.toModel(), nil
}

func (c *RPCClient) RotateCompetition(ctx context.Context, comp model.Competition) error {
	return c.call(ctx, MethodRotateCompetition, competitionToWire(comp), nil)
}

// call issues one request and decodes the result into out (if non-nil)
func (c *RPCClient) call(ctx context.Context, method string, params, out any) error {
	id, err := jsonrpc.MakeID("ledger-" + strconv.FormatUint(c.nextID.Add(1), 10))
	if err != nil {
		return err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}

	body, err := jsonrpc.EncodeMessage(&jsonrpc.Request{
		ID:     id,
		Method: method,
		Params: raw,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ledger rpc %s: %w", method, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("ledger rpc %s: %w", method, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger rpc %s: http status %d", method, httpResp.StatusCode)
	}

	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return fmt.Errorf("ledger rpc %s: %w", method, err)
	}
	resp, ok := msg.(*jsonrpc.Response)
	if !ok {
		return fmt.Errorf("ledger rpc %s: unexpected message %T", method, msg)
	}
	if resp.ID != id {
		return fmt.Errorf("ledger rpc %s: response id mismatch", method)
	}
	if resp.Error != nil {
		return fmt.Errorf("ledger rpc %s: %w", method, resp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("ledger rpc %s: decode result: %w", method, err)
	}
	return nil
}
