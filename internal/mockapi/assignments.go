package mockapi

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"vidash/internal/api"
)

func (s *Server) handleListAssignments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	assignments := slices.Clone(s.assignments)
	s.mu.Unlock()
	writeData(w, http.StatusOK, assignments)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	var req api.AssignRequest
	if !s.decode(w, r, &req) {
		return
	}
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.videoIndexLocked(videoID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	if _, ok := s.accountByIDLocked(req.UserID); !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if slices.ContainsFunc(s.assignments, func(a api.Assignment) bool { return a.VideoID == videoID }) {
		writeError(w, http.StatusConflict, "Video is already assigned to a user")
		return
	}

	assignment := api.Assignment{
		ID:         s.newID("asg"),
		VideoID:    videoID,
		UserID:     req.UserID,
		AssignedAt: s.timestamp(),
	}
	s.assignments = append(s.assignments, assignment)
	userID := req.UserID
	s.videos[idx].AssignedUserID = &userID
	s.recordLocked(claims.UserID, videoID, api.ActionAssigned)

	writeData(w, http.StatusCreated, assignment)
}

func (s *Server) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.assignments, func(a api.Assignment) bool { return a.ID == id })
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}
	videoID := s.assignments[idx].VideoID
	s.assignments = slices.Delete(s.assignments, idx, idx+1)
	if v := s.videoIndexLocked(videoID); v >= 0 {
		s.videos[v].AssignedUserID = nil
	}
	w.WriteHeader(http.StatusNoContent)
}
