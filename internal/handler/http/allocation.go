package http

import (
	"log/slog"
	"net/http"

	"github.com/Cesar4422/proyecto-mau/internal/policy"
	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
)

// AllocationHandler serves allocation runs and policy administration.
type AllocationHandler struct {
	runner   AllocationRunner
	policies PolicyManager
	logger   *slog.Logger
}

// NewAllocationHandler creates a new allocation HTTP handler.
func NewAllocationHandler(runner AllocationRunner, policies PolicyManager, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{runner: runner, policies: policies, logger: logger}
}

// RunAllocationRequest is the JSON body for triggering a run.
type RunAllocationRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
}

// SetPolicyRequest is the JSON body for switching the active policy.
type SetPolicyRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// ActivePolicyResponse describes the policy allocation runs will use.
type ActivePolicyResponse struct {
	Name  string `json:"name"`
	Known bool   `json:"known"`
}

// Run handles POST /api/v1/allocations/run
func (h *AllocationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunAllocationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	summary, err := h.runner.RunAllocation(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}

// ListPolicies handles GET /api/v1/allocation-policies
func (h *AllocationHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policies.ListPolicies(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, policies)
}

// GetActivePolicy handles GET /api/v1/allocation-policies/active
func (h *AllocationHandler) GetActivePolicy(w http.ResponseWriter, r *http.Request) {
	name, err := h.policies.GetActivePolicy(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ActivePolicyResponse{Name: name, Known: policy.IsKnown(name)})
}

// SetActivePolicy handles PUT /api/v1/allocation-policies/active
func (h *AllocationHandler) SetActivePolicy(w http.ResponseWriter, r *http.Request) {
	var req SetPolicyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	p, err := h.policies.SetActivePolicy(r.Context(), req.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}
