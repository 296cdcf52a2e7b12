package handler

import (
	"encoding/json"
	"net/http"

	"auth-service/internal/token"
)

// JWKSHandler publishes the public half of the active signing key as an
// RFC 7517 key set.
type JWKSHandler struct {
	keys token.KeySource
}

func NewJWKSHandler(keys token.KeySource) *JWKSHandler {
	return &JWKSHandler{keys: keys}
}

func (h *JWKSHandler) Serve(w http.ResponseWriter, _ *http.Request) {
	set, err := token.PublicKeySet(h.keys)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(set)
}
