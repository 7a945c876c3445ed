package api

import (
	"encoding/json"
	"io"
	"net/http"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Log.Debug().Err(err).Msg("response encode failed")
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps structured error kinds onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindProcess, domain.KindProtocol:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind.String()})
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.KindValidation, "invalid id %q", raw)
	}
	return id, nil
}

// decode reads the JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Errorf(domain.KindValidation, "invalid request body: %w", err)
	}
	return nil
}

// readBody reads a raw JSON body, capped at 10 MiB.
func readBody(r *http.Request) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		return nil, domain.Errorf(domain.KindValidation, "read request body: %w", err)
	}
	return data, nil
}
