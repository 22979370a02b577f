package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gt-ksi/ksi-go/ksi"
)

// HandleExtendRequest builds a DER CertTokenRequest for an existing
// short-term token.
//
// @Summary Build an extension request for a token
// @Tags Timestamp
// @Accept json
// @Produce json
// @Success 200 {object} httpapi.ExtendRequestResponse
// @Router /api/v1/timestamp/extend/request [POST]
func HandleExtendRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ExtendRequestRequest
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

	reqDER, err := ksi.BuildExtensionRequest(ts)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	slog.Info("extension request built", "der_len", len(reqDER))
	writeJSON(w, http.StatusOK, ExtendRequestResponse{
		RequestDERB64: base64.StdEncoding.EncodeToString(reqDER),
	})
}

// HandleExtend splices a gateway CertTokenResponse into a short-term
// token, producing a long-term one.
//
// @Summary Extend a token to long-term
// @Tags Timestamp
// @Accept json
// @Produce json
// @Success 200 {object} httpapi.ExtendResponse
// @Router /api/v1/timestamp/extend [POST]
func HandleExtend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse JSON: "+err.Error())
		return
	}

	tokenDER, err := base64.StdEncoding.DecodeString(req.TokenDERB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token base64: "+err.Error())
		return
	}
	responseDER, err := base64.StdEncoding.DecodeString(req.ResponseDERB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid response base64: "+err.Error())
		return
	}

	short, err := ksi.Decode(tokenDER)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	extended, err := ksi.Extend(short, responseDER)
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	extendedDER, err := extended.Encode()
	if err != nil {
		writeKSIError(w, ksi.Code(err), err)
		return
	}

	slog.Info("token extended", "token_len", len(extendedDER))
	writeJSON(w, http.StatusOK, ExtendResponse{
		TokenDERB64: base64.StdEncoding.EncodeToString(extendedDER),
	})
}
