package mockapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"vidash/internal/api"
)

const defaultActivityPageSize = 10

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	page = max(page, 0)
	size, _ := strconv.Atoi(query.Get("size"))
	if size <= 0 {
		size = defaultActivityPageSize
	}
	action, err := api.ParseAction(query.Get("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	username := strings.ToLower(strings.TrimSpace(query.Get("username")))
	videoID := strings.TrimSpace(query.Get("videoId"))

	s.mu.Lock()
	matched := make([]api.ActivityLogEntry, 0, len(s.activity))
	for i := len(s.activity) - 1; i >= 0; i-- {
		entry := s.activity[i]
		if action != "" && entry.Action != action {
			continue
		}
		if username != "" && !strings.Contains(strings.ToLower(entry.Username), username) {
			continue
		}
		if videoID != "" && entry.VideoID != videoID {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.Unlock()

	total := len(matched)
	start := min(page*size, total)
	end := min(start+size, total)
	writePage(w, slices.Clone(matched[start:end]), api.PageInfo{
		CurrentPage:   page,
		TotalPages:    (total + size - 1) / size,
		TotalElements: int64(total),
		PageSize:      size,
	})
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var record api.ActivityRecord
	if !s.decode(w, r, &record) {
		return
	}
	if strings.TrimSpace(record.VideoID) == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}
	if record.Action == "" {
		record.Action = api.ActionViewed
	}
	claims := claimsFrom(r.Context())
	userID := record.UserID
	if userID == 0 {
		userID = claims.UserID
	}

	s.mu.Lock()
	s.recordLocked(userID, record.VideoID, record.Action)
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}
