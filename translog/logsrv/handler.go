// Package logsrv exposes a translog.Log over HTTP using the same JSON
// shapes logclient.Client speaks, grounded on the teacher's
// internal/api/server.go mux (healthz/readyz/metrics) generalized with the
// five read/write log endpoints of spec.md §6 plus /v1/entries.
package logsrv

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tecp-protocol/tecp-go/translog"
)

// Handler wires a translog.Log into an http.Handler.
type Handler struct {
	log       *translog.Log
	logger    zerolog.Logger
	mux       *http.ServeMux
	metricsOn bool
}

// New builds a Handler for log. metricsOn controls whether /metrics is
// mounted, mirroring the teacher's cfg.Metrics.Enable gate.
func New(log *translog.Log, logger zerolog.Logger, metricsOn bool) *Handler {
	h := &Handler{log: log, logger: logger.With().Str("module", "translog.logsrv").Logger(), metricsOn: metricsOn}
	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/healthz", h.handleHealthz)
	h.mux.HandleFunc("/readyz", h.handleReadyz)
	h.mux.HandleFunc("/v1/append", h.handleAppend)
	h.mux.HandleFunc("/v1/proof", h.handleProof)
	h.mux.HandleFunc("/v1/root", h.handleRoot)
	h.mux.HandleFunc("/v1/entries", h.handleEntries)
	h.mux.HandleFunc("/v1/keys", h.handleKeys)
	h.mux.HandleFunc("/v1/signed_time", h.handleSignedTime)
	if metricsOn {
		h.mux.Handle("/metrics", promhttp.Handler())
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.mux.ServeHTTP(w, r) }

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
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

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "append requires POST")
		return
	}
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "SCHEMA_BAD_TYPE", err.Error())
		return
	}
	if req.CodeRef == "" || len(req.ReceiptHash) == 0 {
		writeError(w, http.StatusBadRequest, "SCHEMA_MISSING_FIELD", "code_ref and receipt_hash are required")
		return
	}
	res, err := h.log.Append(r.Context(), req.CodeRef, req.ReceiptHash)
	if err != nil {
		h.logger.Error().Err(err).Msg("append failed")
		writeError(w, http.StatusInternalServerError, "LOG_UNAVAILABLE", err.Error())
		return
	}
	resp := appendResponse{
		LeafIndex: res.LeafIndex,
		RootHash:  res.Proof.RootHash,
		MerkleProof: merkleProofWire{
			LeafIndex: res.Proof.LeafIndex,
			AuditPath: res.Proof.AuditPath,
			TreeSize:  res.Proof.TreeSize,
			RootHash:  res.Proof.RootHash,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProof(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.ParseInt(r.URL.Query().Get("leaf_index"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "SCHEMA_BAD_TYPE", "leaf_index must be an integer")
		return
	}
	proof, err := h.log.Proof(r.Context(), idx)
	if err != nil {
		writeError(w, http.StatusNotFound, "LOG_MISSING", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proof)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	sth, err := h.log.Root(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LOG_UNAVAILABLE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sth)
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	start, err1 := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	end, err2 := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "SCHEMA_BAD_TYPE", "start and end must be integers")
		return
	}
	entries, err := h.log.Entries(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "LOG_MISSING", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.log.Keys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LOG_UNAVAILABLE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *Handler) handleSignedTime(w http.ResponseWriter, r *http.Request) {
	st, err := h.log.SignedTime(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LOG_UNAVAILABLE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
