package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/fgeck/gomssql-backup/internal/services/operator"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	OK      bool                       `json:"ok"`
	Error   string                     `json:"error"`
	Details []operator.ValidationError `json:"details,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.ConnectionRequest](w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, s.operator.TestConnection(r.Context(), req))
}

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.ConnectionRequest](w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, s.operator.ListDatabases(r.Context(), req))
}

func (s *Server) backupDatabases(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.BackupRequest](w, r)
	if !ok {
		return
	}
	// A started batch runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	sendJSON(w, http.StatusOK, s.operator.BackupDatabases(ctx, req))
}

// sendJSON sends a JSON response.
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeRequest decodes and validates a request body, answering 400 on failure.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return req, false
	}

	if err := operator.ValidateRequest(req); err != nil {
		resp := errorResponse{Error: err.Error()}
		if verrs, ok := err.(*operator.ValidationErrors); ok {
			resp.Details = verrs.Errors
		}
		sendJSON(w, http.StatusBadRequest, resp)
		return req, false
	}

	return req, true
}
