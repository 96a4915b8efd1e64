package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	q, err := buildListQuery(r.URL.Query(), domain.DirectorSortFields)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.directors.List(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateDirector(w http.ResponseWriter, r *http.Request) {
	var req domain.DirectorInput
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	director, err := s.directors.Create(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/directors/"+director.ID)
	s.respondJSON(w, http.StatusCreated, director)
}

func (s *Server) handleGetDirector(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	director, err := s.directors.Get(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, director)
}

func (s *Server) handleUpdateDirector(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req domain.DirectorPatch
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	director, err := s.directors.Update(r.Context(), id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, director)
}

func (s *Server) handleDeleteDirector(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	director, err := s.directors.Delete(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, director)
}
