package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Summary is the frozen inspection data written to the ledger memo. Only
// already-immutable fields go in, so anchoring the same inspection twice
// would produce the same payload.
type Summary struct {
	InspectionID string `json:"id"`
	ReportNumber string `json:"report"`
	MachineModel string `json:"machine"`
	Status       string `json:"status"`
	RiskScore    int    `json:"risk"`
	NoGoCount    int    `json:"no_go"`
	CautionCount int    `json:"caution"`
	ContentHash  string `json:"content_hash"`
}

// Anchor is the proof reference returned by the ledger service.
type Anchor struct {
	Reference   string    `json:"reference"`
	ExplorerURL string    `json:"explorer_url"`
	AnchoredAt  time.Time `json:"anchored_at"`
}

// Anchorer writes a finalized inspection summary to a tamper-evident
// ledger. Calls may fail transiently; callers must treat a failure as
// retryable and leave inspection state untouched.
type Anchorer interface {
	Anchor(ctx context.Context, summary Summary) (*Anchor, error)
}

// Client posts memo transactions to the ledger anchoring service.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Anchor(ctx context.Context, summary Summary) (*Anchor, error) {
	memo := struct {
		App string `json:"app"`
		V   string `json:"v"`
		Summary
		TS int64 `json:"ts"`
	}{App: "FieldMind", V: "2.0.0", Summary: summary, TS: time.Now().UnixMilli()}

	body, err := json.Marshal(memo)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/memos", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ledger error %d: %s", resp.StatusCode, string(b))
	}

	var anchor Anchor
	if err := json.NewDecoder(resp.Body).Decode(&anchor); err != nil {
		return nil, err
	}
	if anchor.Reference == "" {
		return nil, fmt.Errorf("ledger returned empty reference")
	}
	if anchor.AnchoredAt.IsZero() {
		anchor.AnchoredAt = time.Now()
	}
	return &anchor, nil
}
