package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type StructureHandler interface {
	// Pay components
	CreatePayComponent(w http.ResponseWriter, r *http.Request)
	ListPayComponents(w http.ResponseWriter, r *http.Request)

	// Versions
	Create(w http.ResponseWriter, r *http.Request)
	Supersede(w http.ResponseWriter, r *http.Request)
	GetByID(w http.ResponseWriter, r *http.Request)
	GetActive(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type structureHandlerImpl struct {
	structureService structure.StructureService
}

func NewStructureHandler(structureService structure.StructureService) StructureHandler {
	return &structureHandlerImpl{structureService: structureService}
}

// asOfParam reads the as_of query parameter, defaulting to today.
func asOfParam(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}
	return validator.IsValidDate(raw)
}

// urlID reads a UUID path parameter and answers 422 when it is malformed.
func urlID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := chi.URLParam(r, key)
	if !validator.IsValidUUID(id) {
		response.ValidationError(w, map[string]string{key: "must be a valid UUID"})
		return "", false
	}
	return id, true
}

// ========== PAY COMPONENTS ==========

func (h *structureHandlerImpl) CreatePayComponent(w http.ResponseWriter, r *http.Request) {
	var req structure.CreatePayComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.structureService.CreatePayComponent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pay component created successfully", result)
}

func (h *structureHandlerImpl) ListPayComponents(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active_only"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "Invalid active_only parameter", nil)
			return
		}
		activeOnly = parsed
	}

	result, err := h.structureService.ListPayComponents(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== VERSIONS ==========

func (h *structureHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req structure.CreateStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.structureService.CreateVersion(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure created successfully", result)
}

func (h *structureHandlerImpl) Supersede(w http.ResponseWriter, r *http.Request) {
	var req structure.SupersedeStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	req.BaseVersionID = id

	result, err := h.structureService.Supersede(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure version created successfully", result)
}

func (h *structureHandlerImpl) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.structureService.GetVersion(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *structureHandlerImpl) GetActive(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if validator.IsEmpty(name) {
		response.ValidationError(w, map[string]string{"name": "is required"})
		return
	}
	asOf, ok := asOfParam(r)
	if !ok {
		response.ValidationError(w, map[string]string{"as_of": "must be in YYYY-MM-DD format"})
		return
	}

	result, err := h.structureService.ResolveActive(r.Context(), name, asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *structureHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if validator.IsEmpty(name) {
		response.ValidationError(w, map[string]string{"name": "is required"})
		return
	}

	result, err := h.structureService.History(r.Context(), name)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *structureHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(r)
	if !ok {
		response.ValidationError(w, map[string]string{"as_of": "must be in YYYY-MM-DD format"})
		return
	}

	result, err := h.structureService.ListCurrent(r.Context(), asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
