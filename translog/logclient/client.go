// Package logclient is a minimal HTTP client for the five read/write
// shapes of spec.md §6, grounded on the teacher's
// internal/mediamtx/client.go: a small JSON-over-HTTP client wrapping a
// bounded-timeout http.Client, generalized from MediaMTX's /v3/paths/list
// to the transparency log's append/proof/root/keys/signed_time endpoints.
// The server's /v1/entries endpoint has no client method.
package logclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tecp-protocol/tecp-go/receipt"
	"github.com/tecp-protocol/tecp-go/translog"
)

// Client talks to a remote logsrv.Handler.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// NewClient builds a Client against base (e.g. "https://log.example.com").
func NewClient(base string, log zerolog.Logger) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.With().Str("module", "translog.logclient").Logger(),
	}
}

// appendRequest/appendResponse match spec.md §6 "append" exactly:
// {code_ref, receipt_hash} -> {leaf_index, root_hash, merkle_proof}.
type appendRequest struct {
	CodeRef     string `json:"code_ref"`
	ReceiptHash []byte `json:"receipt_hash"`
}

type merkleProofWire struct {
	LeafIndex int64    `json:"leaf_index"`
	AuditPath [][]byte `json:"audit_path"`
	TreeSize  int64    `json:"tree_size"`
	RootHash  []byte   `json:"root_hash"`
}

type appendResponse struct {
	LeafIndex   int64           `json:"leaf_index"`
	RootHash    []byte          `json:"root_hash"`
	MerkleProof merkleProofWire `json:"merkle_proof"`
}

// Append submits codeRef/receiptHash to the log and returns the committed
// position along with its inclusion proof.
func (c *Client) Append(ctx context.Context, codeRef string, receiptHash []byte) (*translog.AppendResult, error) {
	var resp appendResponse
	req := appendRequest{CodeRef: codeRef, ReceiptHash: receiptHash}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/append", req, &resp); err != nil {
		return nil, err
	}
	leafHash := translog.LeafHash(receiptHash)
	proof := &translog.Proof{
		LeafIndex: resp.MerkleProof.LeafIndex,
		TreeSize:  resp.MerkleProof.TreeSize,
		AuditPath: resp.MerkleProof.AuditPath,
		RootHash:  resp.MerkleProof.RootHash,
	}
	return &translog.AppendResult{
		LeafIndex: resp.LeafIndex,
		LeafHash:  leafHash,
		TreeSize:  resp.MerkleProof.TreeSize,
		Proof:     proof,
	}, nil
}

// Proof fetches an inclusion proof for leafIndex.
func (c *Client) Proof(ctx context.Context, leafIndex int64) (*translog.Proof, error) {
	var proof translog.Proof
	path := fmt.Sprintf("/v1/proof?leaf_index=%d", leafIndex)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &proof); err != nil {
		return nil, err
	}
	return &proof, nil
}

// Root fetches the log's current signed tree head.
func (c *Client) Root(ctx context.Context) (*translog.SignedTreeHead, error) {
	var sth translog.SignedTreeHead
	if err := c.doJSON(ctx, http.MethodGet, "/v1/root", nil, &sth); err != nil {
		return nil, err
	}
	return &sth, nil
}

// SignedTime fetches a signed-time attestation for the log's current root.
func (c *Client) SignedTime(ctx context.Context) (*translog.SignedTime, error) {
	var st translog.SignedTime
	if err := c.doJSON(ctx, http.MethodGet, "/v1/signed_time", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Keys fetches every key record the log has ever held.
func (c *Client) Keys(ctx context.Context) ([]translog.KeyRecord, error) {
	var recs []translog.KeyRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v1/keys", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// VerifyInclusion implements receipt.LogVerifier: it fetches the log's
// current root and checks r's embedded LogInclusion proof against it,
// surfacing a mismatch as receipt.CodeLogRootMismatch and any transport
// failure as receipt.CodeLogUnavailable.
func (c *Client) VerifyInclusion(ctx context.Context, r *receipt.Receipt) error {
	if r.LogInclusion == nil {
		return nil
	}
	sth, err := c.Root(ctx)
	if err != nil {
		return receipt.VerificationError{Code: receipt.CodeLogUnavailable, Message: err.Error(), Field: "log_inclusion"}
	}
	receiptHash, err := r.ReceiptHash()
	if err != nil {
		return receipt.VerificationError{Code: receipt.CodeEncUnsupportedT, Message: err.Error(), Field: "log_inclusion"}
	}
	leafHash := translog.LeafHash(receiptHash)
	if err := translog.VerifyInclusion(leafHash, r.LogInclusion.LeafIndex-1, sth.TreeSize, r.LogInclusion.MerkleProof.AuditPath, sth.RootHash); err != nil {
		return receipt.VerificationError{Code: receipt.CodeLogRootMismatch, Message: err.Error(), Field: "log_inclusion"}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("logclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("logclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logclient: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("logclient: %s %s: %d %s: %s", method, path, resp.StatusCode, errBody.Code, errBody.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("logclient: decode response: %w", err)
	}
	return nil
}
