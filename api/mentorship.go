package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/mentorhub/internal/mentorship"
	"github.com/garnizeh/mentorhub/internal/schema"
	"github.com/garnizeh/mentorhub/pkg/models"
)

type MentorshipHandler struct {
	svc     *mentorship.Service
	schemas *schema.Loader
}

func NewMentorshipHandler(svc *mentorship.Service, schemas *schema.Loader) *MentorshipHandler {
	return &MentorshipHandler{svc: svc, schemas: schemas}
}

type mentorsResponse struct {
	FormattedUser []models.MentorListing `json:"formattedUser"`
}

type userRoleResponse struct {
	UserRole models.Role `json:"userRole"`
}

// requestMentorRequest names the target as userId; mentorId is accepted as an alias.
type requestMentorRequest struct {
	UserID   int64  `json:"userId"`
	MentorID int64  `json:"mentorId"`
	Note     string `json:"note"`
}

type respondRequest struct {
	UserID   int64         `json:"userId"`
	MentorID int64         `json:"mentorId"`
	Status   models.Status `json:"status"`
}

func (h *MentorshipHandler) ListMentors(w http.ResponseWriter, r *http.Request) {
	callerID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	mentors, err := h.svc.ListMentors(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, mentorsResponse{FormattedUser: mentors}, http.StatusOK)
}

func (h *MentorshipHandler) UserRole(w http.ResponseWriter, r *http.Request) {
	callerID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	role, err := h.svc.UserRole(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, userRoleResponse{UserRole: role}, http.StatusOK)
}

func (h *MentorshipHandler) RequestMentor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req requestMentorRequest
	if !decodeBody(w, r, h.schemas, "request_mentor", &req) {
		return
	}
	target := req.UserID
	if target == 0 {
		target = req.MentorID
	}

	if err := h.svc.RequestMentor(r.Context(), callerID, target, req.Note); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Mentor request sent successfully"}, http.StatusCreated)
}

func (h *MentorshipHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	callerID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	pending, err := h.svc.ListPendingRequests(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, pending, http.StatusOK)
}

func (h *MentorshipHandler) Respond(w http.ResponseWriter, r *http.Request) {
	callerID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req respondRequest
	if !decodeBody(w, r, h.schemas, "respond_mentorship", &req) {
		return
	}
	// only the authenticated mentor may decide
	if req.MentorID != 0 && req.MentorID != callerID {
		writeError(w, http.StatusForbidden, "cannot respond on behalf of another mentor")
		return
	}

	if err := h.svc.Respond(r.Context(), callerID, req.UserID, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Mentorship status updated successfully"}, http.StatusOK)
}

func (h *MentorshipHandler) Mentees(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	mentees, err := h.svc.GetMentees(r.Context(), mentorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, mentees, http.StatusOK)
}

func (h *MentorshipHandler) Mentor(w http.ResponseWriter, r *http.Request) {
	menteeID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	mentor, err := h.svc.GetMentor(r.Context(), menteeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, mentor, http.StatusOK)
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}
