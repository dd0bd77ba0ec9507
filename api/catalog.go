/*
catalog.go - Catalog, config, and readiness endpoints

PURPOSE:
  Thin CRUD over the supporting entities (schools, subjects, topics,
  family members, sync provider records), the persisted config entries,
  and the readiness check. Config writes go through SetConfig so the
  ledger picks up new values on the next settings load.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/ledger"
)

// =============================================================================
// CATALOG DTOS
// =============================================================================

type SchoolDTO struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type CreateSchoolRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type SubjectDTO struct {
	ID       int64  `json:"id"`
	SchoolID int64  `json:"school_id"`
	Name     string `json:"name"`
}

type CreateSubjectRequest struct {
	SchoolID int64  `json:"school_id"`
	Name     string `json:"name"`
}

type TopicDTO struct {
	ID          int64  `json:"id"`
	SubjectID   int64  `json:"subject_id"`
	Description string `json:"description"`
}

type CreateTopicRequest struct {
	SubjectID   int64  `json:"subject_id"`
	Description string `json:"description"`
}

type MemberDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"is_admin"`
	IsStudent bool   `json:"is_student"`
}

type CreateMemberRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"is_admin"`
	IsStudent bool   `json:"is_student"`
}

type ProviderDTO struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	SchoolID *int64 `json:"school_id,omitempty"`
	Active   bool   `json:"active"`
}

type CreateProviderRequest struct {
	Code     string `json:"code"`
	SchoolID *int64 `json:"school_id,omitempty"`
}

type ConfigEntryDTO struct {
	Key         string  `json:"key"`
	Value       *string `json:"value"`
	Description string  `json:"description,omitempty"`
	IsRequired  bool    `json:"is_required"`
}

func toConfigEntryDTO(e *catalog.ConfigEntry) *ConfigEntryDTO {
	if e == nil {
		return nil
	}
	return &ConfigEntryDTO{
		Key:         e.Key,
		Value:       e.Value,
		Description: e.Description,
		IsRequired:  e.IsRequired,
	}
}

// =============================================================================
// SCHOOLS, SUBJECTS, TOPICS
// =============================================================================

// CreateSchool handles POST /api/schools.
func (h *Handler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var req CreateSchoolRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	school := &catalog.School{Code: req.Code, Name: req.Name, Active: req.Active}
	if err := h.cat.CreateSchool(r.Context(), school); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create school", err)
		return
	}
	writeJSON(w, http.StatusCreated, SchoolDTO{
		ID: school.ID, Code: school.Code, Name: school.Name, Active: school.Active,
	})
}

// ListSchools handles GET /api/schools.
func (h *Handler) ListSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.cat.ListSchools(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list schools", err)
		return
	}
	out := make([]SchoolDTO, len(schools))
	for i, s := range schools {
		out[i] = SchoolDTO{ID: s.ID, Code: s.Code, Name: s.Name, Active: s.Active}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSubject handles POST /api/subjects.
func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	subject := &catalog.Subject{SchoolID: req.SchoolID, Name: req.Name}
	if err := h.cat.CreateSubject(r.Context(), subject); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create subject", err)
		return
	}
	writeJSON(w, http.StatusCreated, SubjectDTO{
		ID: subject.ID, SchoolID: subject.SchoolID, Name: subject.Name,
	})
}

// ListSubjects handles GET /api/subjects?school_id=N.
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.ParseInt(r.URL.Query().Get("school_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "school_id is required", err)
		return
	}
	subjects, err := h.cat.ListSubjects(r.Context(), schoolID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subjects", err)
		return
	}
	out := make([]SubjectDTO, len(subjects))
	for i, s := range subjects {
		out[i] = SubjectDTO{ID: s.ID, SchoolID: s.SchoolID, Name: s.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTopic handles POST /api/topics.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	topic := &catalog.SubjectTopic{SubjectID: req.SubjectID, Description: req.Description}
	if err := h.cat.CreateTopic(r.Context(), topic); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create topic", err)
		return
	}
	writeJSON(w, http.StatusCreated, TopicDTO{
		ID: topic.ID, SubjectID: topic.SubjectID, Description: topic.Description,
	})
}

// ListTopics handles GET /api/topics?subject_id=N.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(r.URL.Query().Get("subject_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "subject_id is required", err)
		return
	}
	topics, err := h.cat.ListTopics(r.Context(), subjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list topics", err)
		return
	}
	out := make([]TopicDTO, len(topics))
	for i, t := range topics {
		out[i] = TopicDTO{ID: t.ID, SubjectID: t.SubjectID, Description: t.Description}
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// MEMBERS AND PROVIDERS
// =============================================================================

// CreateMember handles POST /api/members.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	member := &catalog.FamilyMember{
		Name:      req.Name,
		Role:      catalog.MemberRole(req.Role),
		IsAdmin:   req.IsAdmin,
		IsStudent: req.IsStudent,
	}
	if err := h.cat.CreateMember(r.Context(), member); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberDTO{
		ID: member.ID, Name: member.Name, Role: string(member.Role),
		IsAdmin: member.IsAdmin, IsStudent: member.IsStudent,
	})
}

// ListMembers handles GET /api/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.cat.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members", err)
		return
	}
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		out[i] = MemberDTO{
			ID: m.ID, Name: m.Name, Role: string(m.Role),
			IsAdmin: m.IsAdmin, IsStudent: m.IsStudent,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateProvider handles POST /api/providers.
func (h *Handler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req CreateProviderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	provider := &catalog.SyncProvider{Code: req.Code, SchoolID: req.SchoolID}
	if err := h.cat.CreateProvider(r.Context(), provider); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create provider", err)
		return
	}
	writeJSON(w, http.StatusCreated, ProviderDTO{
		ID: provider.ID, Code: provider.Code,
		SchoolID: provider.SchoolID, Active: provider.Active,
	})
}

// ListProviders handles GET /api/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.cat.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list providers", err)
		return
	}
	out := make([]ProviderDTO, len(providers))
	for i, p := range providers {
		out[i] = ProviderDTO{ID: p.ID, Code: p.Code, SchoolID: p.SchoolID, Active: p.Active}
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// CONFIG AND READINESS
// =============================================================================

// ListConfig handles GET /api/config.
func (h *Handler) ListConfig(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cat.ListConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list config", err)
		return
	}
	out := make([]*ConfigEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = toConfigEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetConfig handles GET /api/config/{key}.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	entry, err := h.cat.ConfigEntryByKey(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get config entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "config entry not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toConfigEntryDTO(entry))
}

// SetConfig handles PUT /api/config/{key}.
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req SetConfigRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	entry, err := h.cat.SetConfig(r.Context(), key, req.Value, req.Description, req.IsRequired)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to set config entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigEntryDTO(entry))
}

// GradeMinutes handles GET /api/config/grade-minutes. Returns the
// effective grade-to-minutes mapping after config overlays.
func (h *Handler) GradeMinutes(w http.ResponseWriter, r *http.Request) {
	settings, err := ledger.LoadSettings(r.Context(), h.cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	out := make(map[int]int, len(settings.GradeMinutes))
	for value, minutes := range settings.GradeMinutes {
		out[int(value)] = minutes
	}
	writeJSON(w, http.StatusOK, out)
}

// GetReadiness handles GET /api/readiness.
func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	readiness, err := catalog.CheckReadiness(r.Context(), h.cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "readiness check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, readiness)
}
