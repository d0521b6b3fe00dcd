// Package httptransport exposes the registry over HTTP. Handlers are thin:
// they decode, resolve the caller, delegate to a domain service, and translate
// coded errors to status codes. Reads are public; mutations require a token.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"landledger/pkg/domainerrors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		resp.Message = de.Message
	}
	writeJSON(w, domainerrors.ToHTTPStatus(code), resp)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domainerrors.New(domainerrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
