package handler

import (
	"context"
	"enrollment-api/internal/api/handler/dto"
	"enrollment-api/internal/domain/mfa"
	"enrollment-api/internal/infrastructure/monitoring"
	"enrollment-api/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
)

type mfaToggleFunc func(ctx context.Context, customerID int64, code string) (bool, error)

const (
	mfaEnabledMessage  = "MFA has been enabled successfully."
	mfaDisabledMessage = "MFA has been disabled successfully."
	invalidCodeMessage = "Invalid MFA code or customer not found."
)

type MFAHandler struct {
	service mfa.Service
	logger  *slog.Logger
}

func NewMFAHandler(s mfa.Service, l *slog.Logger) *MFAHandler {
	if s == nil {
		panic("mfa service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &MFAHandler{
		service: s,
		logger:  l.With("component", "MFAHandler"),
	}
}

// Setup handles POST /api/mfa/setup/{customerID}
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	res, err := h.service.Setup(r.Context(), customerID)
	monitoring.RecordMFAOperation("setup", monitoring.Outcome(err == nil, err))
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to set up MFA", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewMFASetupResponse(res))
}

// Verify handles POST /api/mfa/verify
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCodeRequest(w, r)
	if !ok {
		return
	}

	valid, err := h.service.VerifyCode(r.Context(), req.CustomerID, req.Code)
	monitoring.RecordMFAOperation("verify", monitoring.Outcome(valid, err))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to verify MFA code", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.MFAVerifyResponse{IsValid: valid})
}

// Enable handles POST /api/mfa/enable
func (h *MFAHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "enable", h.service.Enable, mfaEnabledMessage)
}

// Disable handles POST /api/mfa/disable
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "disable", h.service.Disable, mfaDisabledMessage)
}

func (h *MFAHandler) toggle(w http.ResponseWriter, r *http.Request, op string, fn mfaToggleFunc, message string) {
	req, ok := h.decodeCodeRequest(w, r)
	if !ok {
		return
	}

	done, err := fn(r.Context(), req.CustomerID, req.Code)
	monitoring.RecordMFAOperation(op, monitoring.Outcome(done, err))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to change MFA state", slog.String("operation", op), slog.Any("error", err))
		respondError(w, err)
		return
	}
	if !done {
		h.logger.WarnContext(r.Context(), "MFA state change rejected", slog.String("operation", op), slog.Int64("customerID", req.CustomerID))
		respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorDetail{Message: invalidCodeMessage}})
		return
	}

	respondJSON(w, http.StatusOK, dto.MFAToggleResponse{Success: true, Message: message})
}

// Status handles GET /api/mfa/status/{customerID}
func (h *MFAHandler) Status(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	st, err := h.service.Status(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to load MFA status", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewMFAStatusResponse(st))
}

// QRCode handles POST /api/mfa/qrcode
func (h *MFAHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	var req dto.QRCodeRequest
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

	respondJSON(w, http.StatusOK, dto.QRCodeResponse{QRCodeURL: h.service.ProvisioningURI(req.Secret, req.Email)})
}

// RedeemBackupCode handles POST /api/mfa/backup-codes/redeem
func (h *MFAHandler) RedeemBackupCode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCodeRequest(w, r)
	if !ok {
		return
	}

	valid, err := h.service.RedeemBackupCode(r.Context(), req.CustomerID, req.Code)
	monitoring.RecordMFAOperation("redeem_backup_code", monitoring.Outcome(valid, err))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to redeem backup code", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.MFAVerifyResponse{IsValid: valid})
}

func (h *MFAHandler) decodeCodeRequest(w http.ResponseWriter, r *http.Request) (dto.MFACodeRequest, bool) {
	var req dto.MFACodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return req, false
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.String("field", apperrors.FieldOf(err)))
		respondError(w, err)
		return req, false
	}
	return req, true
}
