package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanAlreadyExists      = errors.New("loan already exists")
	ErrLoanCancelled          = errors.New("loan is cancelled")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrContainerNotFound      = errors.New("container not found")
	ErrInvalidTransactionType = errors.New("transaction type not allowed for container kind")
	ErrUnappliedExcess        = errors.New("payment exceeds what the loan can absorb")
	ErrConcurrentModification = errors.New("concurrent modification, retry the operation")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidAmount          = "INVALID_AMOUNT"
	ErrCodeInstallmentAlreadyPaid = "INSTALLMENT_ALREADY_PAID"
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists      = "LOAN_ALREADY_EXISTS"
	ErrCodeLoanCancelled          = "LOAN_CANCELLED"
	ErrCodeInstallmentNotFound    = "INSTALLMENT_NOT_FOUND"
	ErrCodeContainerNotFound      = "CONTAINER_NOT_FOUND"
	ErrCodeInvalidTransactionType = "INVALID_TRANSACTION_TYPE"
	ErrCodeUnappliedExcess        = "UNAPPLIED_EXCESS"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapInstallmentAlreadyPaid(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentAlreadyPaid,
		fmt.Sprintf("Installment %s is already fully paid", installmentID),
		ErrInstallmentAlreadyPaid,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapLoanCancelled(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanCancelled,
		fmt.Sprintf("Loan with ID %s is cancelled", loanID),
		ErrLoanCancelled,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %s not found", installmentID),
		ErrInstallmentNotFound,
	)
}

func WrapContainerNotFound(containerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeContainerNotFound,
		fmt.Sprintf("Container %s not found", containerID),
		ErrContainerNotFound,
	)
}

func WrapInvalidTransactionType(kind, txType string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransactionType,
		fmt.Sprintf("Transaction type %s is not allowed for %s containers", txType, kind),
		ErrInvalidTransactionType,
	)
}

func WrapUnappliedExcess(excess string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnappliedExcess,
		fmt.Sprintf("Payment leaves %s unapplied after the last installment", excess),
		ErrUnappliedExcess,
	)
}

func WrapConcurrentModification(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		"Operation conflicted with a concurrent change, retry",
		errors.Join(ErrConcurrentModification, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
