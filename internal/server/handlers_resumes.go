package server

import (
	"net/http"

	"github.com/saadk408/victry/internal/types"
)

// handleListResumes returns the caller's resumes, newest first.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resumes, err := s.resumes.List(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resumes)
}

// handleCreateResume creates a resume together with its sections.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.Resume
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.resumes.Create(r.Context(), caller, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleGetResume returns the assembled resume.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resume, err := s.resumes.Get(r.Context(), caller, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleUpdateResume applies a partial update. Sections present in the body
// are upserted row by row; absent sections are left alone.
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch types.ResumePatch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.resumes.Update(r.Context(), caller, id, &patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteResume deletes a resume and all of its sections.
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.resumes.Delete(r.Context(), caller, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicateResume copies a resume. The body is optional.
func (s *Server) handleDuplicateResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.DuplicateRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := types.Validate(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	copied, err := s.resumes.Duplicate(r.Context(), caller, id, req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, copied)
}

// handleTailorResume derives a resume tailored to a job description.
func (s *Server) handleTailorResume(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.TailorRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := types.Validate(&req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.resumes.Tailor(r.Context(), caller, id, req.JobDescriptionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(result.SkippedSections) > 0 {
		s.logger.Warn("tailored resume stored without some sections",
			"resume_id", result.Resume.ID,
			"skipped", result.SkippedSections,
			"request_id", RequestID(r.Context()),
		)
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleUpsertSection replaces the content of one section. Rows with an id
// are updated, rows without one are inserted.
func (s *Server) handleUpsertSection(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	section, err := types.ParseSection(r.PathValue("section"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.resumes.UpsertSection(r.Context(), caller, id, section, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteSectionItem removes one row from a list section.
func (s *Server) handleDeleteSectionItem(w http.ResponseWriter, r *http.Request) {
	caller, err := s.caller(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	section, err := types.ParseSection(r.PathValue("section"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.resumes.DeleteSectionItem(r.Context(), caller, id, section, itemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
