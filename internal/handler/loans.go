package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/service"
	customError "github.com/prestamix/lending-engine/pkg/errors"
	"github.com/prestamix/lending-engine/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// CancelLoan handles POST /api/v1/loans/{loanId}/cancel
func (h *LoanHandler) CancelLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	loan, err := h.service.CancelLoan(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	schedule, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, schedule)
}

// GetOutstanding handles GET /api/v1/loans/{loanId}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	outstanding, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, outstanding)
}

// GetPayments handles GET /api/v1/loans/{loanId}/payments
func (h *LoanHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	payments, err := h.service.GetPayments(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

// GetInstallmentPayments handles GET /api/v1/installments/{installmentId}/payments
func (h *LoanHandler) GetInstallmentPayments(w http.ResponseWriter, r *http.Request) {
	installmentID, err := uuid.Parse(mux.Vars(r)["installmentId"])
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	payments, err := h.service.GetInstallmentPayments(r.Context(), installmentID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

// RegisterPayment handles POST /api/v1/installments/{installmentId}/payments
func (h *LoanHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	installmentID, err := uuid.Parse(mux.Vars(r)["installmentId"])
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	var request domain.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.RegisterPayment(r.Context(), installmentID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// writeBusinessError maps the stable error taxonomy onto HTTP statuses.
func writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *customError.BusinessError
	if !errors.As(err, &businessErr) {
		response.InternalServerError(w, "Unexpected error", err)
		return
	}

	status := http.StatusInternalServerError
	switch businessErr.Code {
	case customError.ErrCodeInvalidAmount,
		customError.ErrCodeInvalidTransactionType:
		status = http.StatusBadRequest
	case customError.ErrCodeLoanNotFound,
		customError.ErrCodeInstallmentNotFound,
		customError.ErrCodeContainerNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeLoanAlreadyExists,
		customError.ErrCodeInstallmentAlreadyPaid,
		customError.ErrCodeLoanCancelled,
		customError.ErrCodeConcurrentModification:
		status = http.StatusConflict
	case customError.ErrCodeUnappliedExcess:
		status = http.StatusUnprocessableEntity
	}

	response.ErrorWithCode(w, status, businessErr.Code, businessErr.Message, businessErr.Err)
}
