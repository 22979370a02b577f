package httpapi

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gt-ksi/ksi-go/ksi"
)

// HandleTimestampRequest builds a DER TimeStampReq over a document
// digest.
//
// @Summary Build a timestamp request
// @Tags Timestamp
// @Accept json
// @Produce json
// @Success 200 {object} httpapi.TimestampRequestResponse
// @Router /api/v1/timestamp/request [POST]
func HandleTimestampRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req TimestampRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse JSON: "+err.Error())
		return
	}

	digest, err := hex.DecodeString(req.HashHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hash hex: "+err.Error())
		return
	}

	der, err := ksi.BuildTimestampRequest(req.Algorithm, digest)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	slog.Info("timestamp request built", "algorithm", req.Algorithm, "der_len", len(der))
	writeJSON(w, http.StatusOK, TimestampRequestResponse{
		RequestDERB64: base64.StdEncoding.EncodeToString(der),
	})
}

// HandleTimestampCreate decodes a gateway TimeStampResp into a
// short-term token.
//
// @Summary Decode a timestamp response into a token
// @Tags Timestamp
// @Accept json
// @Produce json
// @Success 200 {object} httpapi.TimestampCreateResponse
// @Router /api/v1/timestamp/create [POST]
func HandleTimestampCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req TimestampCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse JSON: "+err.Error())
		return
	}

	der, err := base64.StdEncoding.DecodeString(req.ResponseDERB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid response base64: "+err.Error())
		return
	}

	ts, err := ksi.CreateFromResponse(der)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	tokenDER, err := ts.Encode()
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	slog.Info("timestamp token created", "token_len", len(tokenDER))
	writeJSON(w, http.StatusOK, TimestampCreateResponse{
		TokenDERB64: base64.StdEncoding.EncodeToString(tokenDER),
	})
}
