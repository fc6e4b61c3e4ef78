package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
)

type AssignmentHandler interface {
	Assign(w http.ResponseWriter, r *http.Request)
	BulkReassign(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Current(w http.ResponseWriter, r *http.Request)
}

type assignmentHandlerImpl struct {
	assignmentService assignment.AssignmentService
}

func NewAssignmentHandler(assignmentService assignment.AssignmentService) AssignmentHandler {
	return &assignmentHandlerImpl{assignmentService: assignmentService}
}

func (h *assignmentHandlerImpl) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignment.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.assignmentService.Assign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary assigned successfully", result)
}

// BulkReassign always answers 200; per-employee failures are in the body.
func (h *assignmentHandlerImpl) BulkReassign(w http.ResponseWriter, r *http.Request) {
	var req assignment.BulkReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.assignmentService.BulkReassign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *assignmentHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := urlID(w, r, "employeeId")
	if !ok {
		return
	}
	result, err := h.assignmentService.History(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *assignmentHandlerImpl) Current(w http.ResponseWriter, r *http.Request) {
	asOf, ok := asOfParam(r)
	if !ok {
		response.ValidationError(w, map[string]string{"as_of": "must be in YYYY-MM-DD format"})
		return
	}

	employeeID, ok := urlID(w, r, "employeeId")
	if !ok {
		return
	}
	result, err := h.assignmentService.ActiveAt(r.Context(), employeeID, asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
