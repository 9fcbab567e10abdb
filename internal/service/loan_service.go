package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/repository"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

// LoanService owns the installment ledger: loan intake with a materialized
// schedule, cancellation, reads for the route UI, and payment registration
// with the distribution cascade.
type LoanService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	WalletRepo  repository.WalletRepository
	Cache       *BalanceCache
	Log         *logrus.Logger
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	walletRepo repository.WalletRepository,
	cache *BalanceCache,
	log *logrus.Logger,
) *LoanService {
	return &LoanService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		WalletRepo:  walletRepo,
		Cache:       cache,
		Log:         log,
	}
}

// CreateLoan persists a loan and its pre-materialized installment schedule.
// Amortization is the administration layer's concern; this only validates
// and stores what it is handed. When a disbursement container is given, the
// principal is posted off that collector wallet in the same transaction.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	existing, err := s.LoanRepo.GetByLoanID(ctx, request.LoanID)
	if err == nil && existing != nil {
		return nil, customError.WrapLoanAlreadyExists(request.LoanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	principal, err := domain.MoneyFromDecimal(request.Principal)
	if err != nil || !principal.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Principal.String())
	}

	now := time.Now()
	loan := &domain.Loan{
		ID:        uuid.New(),
		LoanID:    request.LoanID,
		ClientID:  request.ClientID,
		Principal: principal,
		Status:    domain.LoanStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	installments := make([]*domain.Installment, 0, len(request.Installments))
	seen := make(map[int]bool, len(request.Installments))
	for _, spec := range request.Installments {
		total, err := domain.MoneyFromDecimal(spec.TotalAmount)
		if err != nil || !total.IsPositive() {
			return nil, customError.WrapInvalidAmount(spec.TotalAmount.String())
		}
		if seen[spec.PaymentNumber] {
			return nil, customError.WrapInvalidAmount(fmt.Sprintf("duplicate payment number %d", spec.PaymentNumber))
		}
		seen[spec.PaymentNumber] = true

		installments = append(installments, &domain.Installment{
			ID:            uuid.New(),
			LoanID:        request.LoanID,
			PaymentNumber: spec.PaymentNumber,
			TotalAmount:   total,
			PaidAmount:    domain.NewMoney(0),
			Status:        domain.DeriveInstallmentStatus(0, total, spec.DueDate, now),
			DueDate:       spec.DueDate,
			CreatedAt:     now,
		})
	}

	var disbursement *domain.Draft
	if request.DisbursementContainerID != nil {
		container, err := s.WalletRepo.GetContainer(ctx, *request.DisbursementContainerID)
		if err != nil {
			return nil, err
		}
		if _, ok := domain.SignForType(container.Kind, domain.TxTypeLoanDisbursement); !ok {
			return nil, customError.WrapInvalidTransactionType(container.Kind, domain.TxTypeLoanDisbursement)
		}
		disbursement = &domain.Draft{
			ContainerID:   container.ID,
			Type:          domain.TxTypeLoanDisbursement,
			Amount:        principal,
			Signed:        principal.Neg(),
			Description:   fmt.Sprintf("Disbursement for loan %s", request.LoanID),
			RelatedUserID: &request.ClientID,
		}
	}

	posted, err := s.LoanRepo.CreateWithInstallments(ctx, loan, installments, disbursement)
	if err != nil {
		var businessErr *customError.BusinessError
		if errors.As(err, &businessErr) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if posted != nil {
		s.Cache.Set(ctx, posted.ContainerID, posted.BalanceAfter)
	}

	s.Log.WithFields(logrus.Fields{
		"loan_id":      loan.LoanID,
		"installments": len(installments),
	}).Info("loan created")

	return &domain.CreateLoanResponse{
		Loan:         loan,
		Installments: installments,
		Disbursement: posted,
	}, nil
}

// CancelLoan soft-closes a loan. Installments are never deleted; the loan
// status gates any further payment registration.
func (s *LoanService) CancelLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusCancelled {
		return loan, nil
	}

	if err := s.LoanRepo.UpdateStatus(ctx, loanID, domain.LoanStatusCancelled); err != nil {
		return nil, err
	}
	loan.Status = domain.LoanStatusCancelled

	s.Log.WithField("loan_id", loanID).Info("loan cancelled")
	return loan, nil
}

// GetSchedule returns a loan's installments with statuses recomputed from
// the derivation rule, so a stale materialized status never leaks out.
func (s *LoanService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	installments, err := s.LoanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	for _, installment := range installments {
		installment.Status = domain.DeriveInstallmentStatus(
			installment.PaidAmount, installment.TotalAmount, installment.DueDate, now,
		)
	}

	return &domain.ScheduleResponse{LoanID: loanID, Installments: installments}, nil
}

// GetOutstanding returns the sum of what the loan's installments still owe.
func (s *LoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	installments, err := s.LoanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	var outstanding domain.Money
	for _, installment := range installments {
		outstanding = outstanding.Add(installment.Outstanding())
	}

	return &domain.OutstandingResponse{
		LoanID:      loanID,
		Outstanding: outstanding.Decimal(),
	}, nil
}

// GetPayments returns a loan's immutable payment records.
func (s *LoanService) GetPayments(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// GetInstallmentPayments returns the payments applied to one installment.
func (s *LoanService) GetInstallmentPayments(ctx context.Context, installmentID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.LoanRepo.GetInstallment(ctx, installmentID); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.GetBySubLoanID(ctx, installmentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// RegisterPayment applies a field payment to an installment. The cascade is
// computed fully in memory and validated before anything is committed. The
// commit covers the installment updates, one payment row per touched
// installment, and a single collection posting for the original total on the
// collector's wallet, all in one database transaction.
func (s *LoanService) RegisterPayment(ctx context.Context, installmentID uuid.UUID, request *domain.RegisterPaymentRequest) (*domain.RegisterPaymentResponse, error) {
	amount, err := domain.MoneyFromDecimal(request.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	target, err := s.LoanRepo.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, err
	}

	loan, err := s.getLoan(ctx, target.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanStatusCancelled {
		return nil, customError.WrapLoanCancelled(loan.LoanID)
	}

	collector, err := s.WalletRepo.GetContainer(ctx, request.CollectorContainerID)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.SignForType(collector.Kind, domain.TxTypeCollection); !ok {
		return nil, customError.WrapInvalidTransactionType(collector.Kind, domain.TxTypeCollection)
	}

	installments, err := s.LoanRepo.GetInstallmentsByLoanID(ctx, target.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	paymentDate := now
	if request.PaymentDate != nil {
		paymentDate = *request.PaymentDate
	}

	result, err := Distribute(installments, installmentID, amount, now)
	if err != nil {
		return nil, err
	}
	if result.UnappliedExcess.IsPositive() {
		// The loan cannot absorb the receipt; nothing has been committed
		// and nothing will be. Routing excess elsewhere is the caller's
		// decision, not something this ledger invents installments for.
		return nil, customError.WrapUnappliedExcess(result.UnappliedExcess.String())
	}

	description := request.Description
	if description == "" {
		description = fmt.Sprintf("Payment on loan %s", loan.LoanID)
	}

	payments := make([]*domain.Payment, 0, len(result.Allocations))
	for _, allocation := range result.Allocations {
		payments = append(payments, &domain.Payment{
			ID:          uuid.New(),
			SubLoanID:   allocation.InstallmentID,
			LoanID:      loan.LoanID,
			Amount:      allocation.Applied,
			PaymentDate: paymentDate,
			Description: description,
			CreatedAt:   now,
		})
	}

	collection := &domain.Draft{
		ContainerID:   collector.ID,
		Type:          domain.TxTypeCollection,
		Amount:        amount,
		Signed:        amount,
		Description:   description,
		RelatedUserID: &loan.ClientID,
	}

	posted, err := s.LoanRepo.CommitDistribution(ctx, result.Allocations, payments, collection)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, posted.ContainerID, posted.BalanceAfter)

	// Close the loan once every installment is fully paid.
	var outstanding domain.Money
	for _, installment := range installments {
		outstanding = outstanding.Add(installment.Outstanding())
	}
	if outstanding == amount {
		if err := s.LoanRepo.UpdateStatus(ctx, loan.LoanID, domain.LoanStatusClosed); err != nil {
			s.Log.WithError(err).WithField("loan_id", loan.LoanID).Error("closing fully paid loan")
		}
	}

	s.Log.WithFields(logrus.Fields{
		"loan_id":      loan.LoanID,
		"amount":       amount.String(),
		"installments": len(result.Allocations),
	}).Info("payment registered")

	return &domain.RegisterPaymentResponse{
		Allocations: result.Allocations,
		Payments:    payments,
		Collection:  posted,
	}, nil
}

// MarkOverdueInstallments recomputes the materialized status of unpaid
// past-due installments. Invoked by the scheduler.
func (s *LoanService) MarkOverdueInstallments(ctx context.Context) (int64, error) {
	count, err := s.LoanRepo.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	if count > 0 {
		s.Log.WithField("count", count).Info("installments marked overdue")
	}
	return count, nil
}

func (s *LoanService) getLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}
