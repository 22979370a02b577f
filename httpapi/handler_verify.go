package httpapi

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gt-ksi/ksi-go/ksi"
)

// HandleVerify decodes and verifies a timestamp token, optionally
// checking it against a supplied document hash.
//
// @Summary Verify a timestamp token
// @Tags Timestamp
// @Accept json
// @Produce json
// @Success 200 {object} httpapi.VerifyResponse
// @Router /api/v1/timestamp/verify [POST]
func HandleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse JSON: "+err.Error())
		return
	}

	tokenDER, err := base64.StdEncoding.DecodeString(req.TokenDERB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token base64: "+err.Error())
		return
	}

	ts, err := ksi.Decode(tokenDER)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	var opts ksi.VerifyOptions
	if req.DocumentHashHex != "" {
		digest, err := hex.DecodeString(req.DocumentHashHex)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid document hash hex: "+err.Error())
			return
		}
		opts.DocumentHash = digest
		if req.DocumentHashAlgorithm != nil {
			opts.DocumentAlgorithm = *req.DocumentHashAlgorithm
		}
	}
	opts.Explicit = req.Explicit

	info, err := ksi.Verify(ts, opts)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	slog.Info("timestamp verified", "status", info.Status, "errors", info.Errors)
	writeJSON(w, http.StatusOK, VerifyResponse{
		LocationID:           info.LocationID,
		LocationName:         info.LocationName,
		RegisteredTime:       info.RegisteredTime,
		PublicKeyFingerprint: info.PublicKeyFingerprint,
		PublicationString:    info.PublicationString,
		Explicit:             info.Explicit,
		Status:               info.Status,
		Errors:               info.Errors,
	})
}
