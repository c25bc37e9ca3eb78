package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mpraski/secret-vault/identity"
	"github.com/mpraski/secret-vault/vault"
)

type (
	SecretServer struct {
		vault *vault.Vault
	}

	secretPayload struct {
		Value string `json:"value"`
	}
)

func NewSecretServer(v *vault.Vault) *SecretServer {
	return &SecretServer{vault: v}
}

func (s *SecretServer) HandleSecret(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.ReadSecret(w, r)
	case http.MethodPut:
		s.WriteSecret(w, r)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *SecretServer) ReadSecret(w http.ResponseWriter, r *http.Request) {
	value, err := s.vault.Read(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(secretPayload{Value: value})
}

func (s *SecretServer) WriteSecret(w http.ResponseWriter, r *http.Request) {
	var payload secretPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := s.vault.Write(r.Context(), identity.FromContext(r.Context()), payload.Value); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps vault errors to responses. Rejected callers get the same
// body on both paths, carrying nothing about the secret's state.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrNotOwner):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, vault.ErrUnavailable):
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
