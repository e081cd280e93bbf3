package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vidash/internal/api"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, api.Envelope[T]{Success: true, Data: data, Code: status})
}

func writePage[T any](w http.ResponseWriter, data T, page api.PageInfo) {
	writeJSON(w, http.StatusOK, api.Envelope[T]{Success: true, Data: data, Code: http.StatusOK, PageInfo: &page})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.Envelope[any]{
		Success: false,
		Message: message,
		Code:    status,
		Status:  http.StatusText(status),
	})
}

// decode reads a JSON body into dst and validates struct tags. It writes a
// 400 response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
