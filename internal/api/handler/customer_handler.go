package handler

import (
	"enrollment-api/internal/api/handler/dto"
	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/infrastructure/monitoring"
	"enrollment-api/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// CreateCustomer handles POST /api/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.String("field", apperrors.FieldOf(err)))
		respondError(w, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateNewCustomer(r.Context(), input)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	monitoring.RecordCustomerCreated()
	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.Int64("customerID", created.CustomerID))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// GetCustomer handles GET /api/customers/{customerID}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received get customer request", slog.Int64("customerID", customerID))

	cust, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// LocateCustomer handles GET /api/customers/locate?accountNumber=&ssn=&birthdate=
func (h *CustomerHandler) LocateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received locate customer request")

	q := r.URL.Query()
	accountNumber, ssn, birthdate := q.Get("accountNumber"), q.Get("ssn"), q.Get("birthdate")
	if accountNumber == "" || ssn == "" || birthdate == "" {
		h.logger.WarnContext(r.Context(), "Missing locate query parameters")
		respondError(w, fmt.Errorf("%w: accountNumber, ssn and birthdate are required", apperrors.ErrInvalidArgument))
		return
	}

	cust, err := h.service.Locate(r.Context(), accountNumber, ssn, birthdate)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to locate customer", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if cust == nil {
		h.logger.InfoContext(r.Context(), "No customer matched the supplied identity")
		respondError(w, fmt.Errorf("%w: no customer matches the supplied identity", apperrors.ErrNotFound))
		return
	}

	h.logger.InfoContext(r.Context(), "Customer located", slog.Int64("customerID", cust.CustomerID))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// EnrollmentStats handles GET /api/customers/stats
func (h *CustomerHandler) EnrollmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.EnrollmentStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to compute enrollment stats", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewEnrollmentStatsResponse(stats))
}
