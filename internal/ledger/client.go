package ledger

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"threatwatch/internal/common"
)

// Config carries the ledger connection settings. When any field is absent the
// logger commits with the local fallback only and Verify always answers
// false.
type Config struct {
	Endpoint        string
	ContractAddress string
	SigningKey      string
}

// Enabled reports whether a ledger commit can even be attempted.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.ContractAddress != "" && c.SigningKey != ""
}

// Client talks to the ledger gateway contract.
type Client interface {
	// LogThreat records (id, digest, severity, ts) on the contract, waits
	// for inclusion, and returns the transaction reference.
	LogThreat(ctx context.Context, threatID, digest string, severity common.Severity, ts int64) (string, error)
	// GetThreat queries the contract record for an id; an empty return
	// means the id is unknown to the contract.
	GetThreat(ctx context.Context, threatID string) (string, error)
	// Stats reports gateway reachability and chain position.
	Stats(ctx context.Context) (Stats, error)
}

// Stats describes the ledger connection.
type Stats struct {
	Connected       bool   `json:"connected"`
	BlockHeight     int64  `json:"block_height,omitempty"`
	ChainID         string `json:"chain_id,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	Message         string `json:"message,omitempty"`
}

// HTTPClient implements Client over the gateway's JSON API, signing each
// write with an HMAC of the record fields.
type HTTPClient struct {
	cfg    Config
	client *http.Client
}

func NewHTTPClient(cfg Config, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{cfg: cfg, client: client}
}

type logThreatRequest struct {
	ThreatID  string `json:"threat_id"`
	Digest    string `json:"digest"`
	Severity  string `json:"severity"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type logThreatResponse struct {
	TxRef string `json:"tx_ref"`
}

func (h *HTTPClient) LogThreat(ctx context.Context, threatID, digest string, severity common.Severity, ts int64) (string, error) {
	req := logThreatRequest{
		ThreatID:  threatID,
		Digest:    digest,
		Severity:  string(severity),
		Timestamp: ts,
		Signature: h.sign(threatID, digest, ts),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.contractURL("threats"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var out logThreatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode receipt: %w", err)
	}
	if out.TxRef == "" {
		return "", fmt.Errorf("ledger receipt missing tx_ref")
	}
	return out.TxRef, nil
}

func (h *HTTPClient) GetThreat(ctx context.Context, threatID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.contractURL("threats")+"/"+url.PathEscape(threatID), nil)
	if err != nil {
		return "", err
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("query contract: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var record struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("decode record: %w", err)
	}
	return record.Digest, nil
}

func (h *HTTPClient) Stats(ctx context.Context) (Stats, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.Endpoint+"/status", nil)
	if err != nil {
		return Stats{}, err
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Stats{Connected: false, Message: "ledger unavailable"}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Stats{Connected: false, Message: "status " + strconv.Itoa(resp.StatusCode)}, fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	var out struct {
		BlockHeight int64  `json:"block_height"`
		ChainID     string `json:"chain_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Stats{}, fmt.Errorf("decode status: %w", err)
	}
	return Stats{
		Connected:       true,
		BlockHeight:     out.BlockHeight,
		ChainID:         out.ChainID,
		ContractAddress: h.cfg.ContractAddress,
	}, nil
}

func (h *HTTPClient) contractURL(resource string) string {
	return h.cfg.Endpoint + "/contracts/" + url.PathEscape(h.cfg.ContractAddress) + "/" + resource
}

func (h *HTTPClient) sign(threatID, digest string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(h.cfg.SigningKey))
	fmt.Fprintf(mac, "%s|%s|%d", threatID, digest, ts)
	return hex.EncodeToString(mac.Sum(nil))
}
