package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gt-ksi/ksi-go/ksi"
)

// ErrorResponse is the JSON body written on any handler failure.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request"`
	Code  string `json:"code,omitempty" example:"GT_INVALID_FORMAT"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// TimestampRequestRequest is the body of POST /api/v1/timestamp/request.
type TimestampRequestRequest struct {
	HashHex   string `json:"hash_hex" example:"deadbeef"`
	Algorithm byte   `json:"algorithm" example:"1"`
}

// TimestampRequestResponse is the response of POST /api/v1/timestamp/request.
type TimestampRequestResponse struct {
	RequestDERB64 string `json:"request_der_b64"`
}

// TimestampCreateRequest is the body of POST /api/v1/timestamp/create.
type TimestampCreateRequest struct {
	ResponseDERB64 string `json:"response_der_b64"`
}

// TimestampCreateResponse is the response of POST /api/v1/timestamp/create.
type TimestampCreateResponse struct {
	TokenDERB64 string `json:"token_der_b64"`
}

// ExtendRequestRequest is the body of POST /api/v1/timestamp/extend/request.
type ExtendRequestRequest struct {
	TokenDERB64 string `json:"token_der_b64"`
}

// ExtendRequestResponse is the response of POST /api/v1/timestamp/extend/request.
type ExtendRequestResponse struct {
	RequestDERB64 string `json:"request_der_b64"`
}

// ExtendRequest is the body of POST /api/v1/timestamp/extend.
type ExtendRequest struct {
	TokenDERB64    string `json:"token_der_b64"`
	ResponseDERB64 string `json:"response_der_b64"`
}

// ExtendResponse is the response of POST /api/v1/timestamp/extend.
type ExtendResponse struct {
	TokenDERB64 string `json:"token_der_b64"`
}

// VerifyRequest is the body of POST /api/v1/timestamp/verify.
type VerifyRequest struct {
	TokenDERB64           string `json:"token_der_b64"`
	DocumentHashHex       string `json:"document_hash_hex,omitempty"`
	DocumentHashAlgorithm *byte  `json:"document_hash_algorithm,omitempty"`
	Explicit              bool   `json:"explicit,omitempty"`
}

// VerifyResponse is the response of POST /api/v1/timestamp/verify: the
// implicit VerificationInfo block, rendered as JSON, plus the explicit
// block when the request asked for it.
type VerifyResponse struct {
	LocationID           uint64            `json:"location_id"`
	LocationName         *string           `json:"location_name,omitempty"`
	RegisteredTime       int64             `json:"registered_time"`
	PublicKeyFingerprint string            `json:"public_key_fingerprint,omitempty"`
	PublicationString    string            `json:"publication_string,omitempty"`
	Explicit             *ksi.ExplicitInfo `json:"explicit,omitempty"`
	Status               uint32            `json:"verification_status"`
	Errors               uint32            `json:"verification_errors"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	slog.Error("request error", "status", status, "message", message)
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeKSIError maps a ksi error to its GT_* code and an appropriate
// HTTP status. The flat GT_* string exists only at this boundary;
// everything inside the library works with the typed sentinels.
func writeKSIError(w http.ResponseWriter, code string, err error) {
	slog.Error("ksi request failed", "code", code, "error", err)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
}
