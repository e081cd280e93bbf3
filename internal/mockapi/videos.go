package mockapi

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidash/internal/api"
)

func (s *Server) handleListVideos(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	videos := slices.Clone(s.videos)
	s.mu.Unlock()
	writeData(w, http.StatusOK, videos)
}

func (s *Server) handleUserVideos(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	s.mu.Lock()
	videos := make([]api.Video, 0)
	for _, a := range s.assignments {
		if a.UserID != claims.UserID {
			continue
		}
		if idx := s.videoIndexLocked(a.VideoID); idx >= 0 {
			videos = append(videos, s.videos[idx])
		}
	}
	s.mu.Unlock()
	writeData(w, http.StatusOK, videos)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := s.videoIndexLocked(id)
	var video api.Video
	if idx >= 0 {
		video = s.videos[idx]
	}
	s.mu.Unlock()
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	writeData(w, http.StatusOK, video)
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var update api.VideoUpdate
	if !s.decode(w, r, &update) {
		return
	}
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	idx := s.videoIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	if title := strings.TrimSpace(update.Title); title != "" {
		s.videos[idx].Title = title
	}
	if update.Description != "" {
		s.videos[idx].Description = update.Description
	}
	s.videos[idx].ModificationDate = s.timestamp()
	video := s.videos[idx]
	s.recordLocked(claims.UserID, id, api.ActionUpdated)
	s.mu.Unlock()

	writeData(w, http.StatusOK, video)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	idx := s.videoIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	s.recordLocked(claims.UserID, id, api.ActionDeleted)
	s.videos = slices.Delete(s.videos, idx, idx+1)
	s.assignments = slices.DeleteFunc(s.assignments, func(a api.Assignment) bool { return a.VideoID == id })
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := make([]api.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		role := ""
		if len(a.Roles) > 0 {
			role = a.Roles[0]
		}
		users = append(users, api.User{ID: a.ID, Username: a.Username, Role: role})
	}
	s.mu.Unlock()
	writeData(w, http.StatusOK, users)
}
