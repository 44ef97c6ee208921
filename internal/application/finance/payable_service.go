package finance

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayableService manages money owed to creditors and the payments made against it
type PayableService struct {
	payableRepo finance.PayableRepository
	uow         *unitofwork.Runner
	metrics     *telemetry.LedgerMetrics
	now         func() time.Time
}

// NewPayableService creates a new PayableService
func NewPayableService(payableRepo finance.PayableRepository, uow *unitofwork.Runner) *PayableService {
	return &PayableService{
		payableRepo: payableRepo,
		uow:         uow,
		now:         time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *PayableService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Create records a new payable
func (s *PayableService) Create(ctx context.Context, req CreatePayableRequest) (*PayableResponse, error) {
	var dateBorrowed time.Time
	if req.DateBorrowed != nil {
		dateBorrowed = *req.DateBorrowed
	}
	payable, err := finance.NewPayable(finance.Creditor{
		Name:  req.CreditorName,
		Phone: req.CreditorPhone,
		Email: req.CreditorEmail,
	}, req.Description, req.AmountBorrowed, dateBorrowed, req.DueDate)
	if err != nil {
		return nil, err
	}
	payable.Notes = req.Notes
	payable.SetCreatedBy(req.CreatedBy)
	payable.RefreshStatus(s.now())

	err = s.uow.Run(ctx, func(ctx context.Context) error {
		return s.payableRepo.Save(ctx, payable)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("payable created",
		zap.String("payable_id", payable.ID.String()),
		zap.String("creditor", payable.CreditorName),
		zap.String("amount_borrowed", payable.AmountBorrowed.StringFixed(2)))

	response := ToPayableResponse(payable, s.now())
	return &response, nil
}

// GetByID retrieves a payable with its payments
func (s *PayableService) GetByID(ctx context.Context, payableID uuid.UUID) (*PayableResponse, error) {
	payable, err := s.payableRepo.FindByID(ctx, payableID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	payable.RefreshStatus(now)
	response := ToPayableResponse(payable, now)
	return &response, nil
}

// List retrieves payables filtered by status, overdue flag and creditor search
func (s *PayableService) List(ctx context.Context, filter PayableListFilter) ([]PayableResponse, int64, error) {
	domainFilter := finance.PayableFilter{
		Filter: shared.Filter{
			Page:            filter.Page,
			PageSize:        filter.PageSize,
			OrderBy:         filter.OrderBy,
			OrderDir:        filter.OrderDir,
			Search:          filter.Search,
			IncludeInactive: filter.IncludeInactive,
		}.Normalize(),
		Status:      finance.PayableStatus(filter.Status),
		OverdueOnly: filter.Overdue,
	}

	payables, err := s.payableRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.payableRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	responses := make([]PayableResponse, len(payables))
	for i := range payables {
		payables[i].RefreshStatus(now)
		responses[i] = ToPayableListResponse(&payables[i], now)
	}
	return responses, total, nil
}

// Update changes creditor details, amount and schedule
func (s *PayableService) Update(ctx context.Context, payableID uuid.UUID, req UpdatePayableRequest) (*PayableResponse, error) {
	return s.mutate(ctx, payableID, func(p *finance.Payable) error {
		creditor := finance.Creditor{Name: p.CreditorName, Phone: p.CreditorPhone, Email: p.CreditorEmail}
		description, amount, dateBorrowed, dueDate, notes := p.Description, p.AmountBorrowed, p.DateBorrowed, p.DueDate, p.Notes
		if req.CreditorName != nil {
			creditor.Name = *req.CreditorName
		}
		if req.CreditorPhone != nil {
			creditor.Phone = *req.CreditorPhone
		}
		if req.CreditorEmail != nil {
			creditor.Email = *req.CreditorEmail
		}
		if req.Description != nil {
			description = *req.Description
		}
		if req.AmountBorrowed != nil {
			amount = *req.AmountBorrowed
		}
		if req.DateBorrowed != nil {
			dateBorrowed = *req.DateBorrowed
		}
		if req.DueDate != nil {
			dueDate = req.DueDate
		}
		if req.ClearDueDate {
			dueDate = nil
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		return p.Update(creditor, description, amount, dateBorrowed, dueDate, notes)
	})
}

// AddPayment records a payment; it may not exceed the remaining balance
func (s *PayableService) AddPayment(ctx context.Context, payableID uuid.UUID, req PayablePaymentRequest) (*PayableResponse, error) {
	var paymentDate time.Time
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	var payment finance.PayablePayment
	resp, err := s.mutate(ctx, payableID, func(p *finance.Payable) error {
		added, err := p.AddPayment(req.Amount, paymentDate, req.PaymentMethod, req.Reference, req.Notes)
		if err != nil {
			return err
		}
		added.CreatedBy = req.CreatedBy
		payment = *added
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PayablePaymentRecorded(ctx, payment.PaymentMethod, payment.Amount)
	logger.L(ctx).Info("payable payment recorded",
		zap.String("payable_id", payableID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("status", resp.Status))
	return resp, nil
}

// ListPayments returns the payments recorded against a payable
func (s *PayableService) ListPayments(ctx context.Context, payableID uuid.UUID) ([]PayablePaymentResponse, error) {
	payable, err := s.payableRepo.FindByID(ctx, payableID)
	if err != nil {
		return nil, err
	}
	return ToPayablePaymentResponses(payable.Payments), nil
}

// DeletePayment removes a payment and reverses its amount
func (s *PayableService) DeletePayment(ctx context.Context, payableID, paymentID uuid.UUID) (*PayableResponse, error) {
	resp, err := s.mutate(ctx, payableID, func(p *finance.Payable) error {
		_, err := p.DeletePayment(paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("payable payment deleted",
		zap.String("payable_id", payableID.String()),
		zap.String("payment_id", paymentID.String()))
	return resp, nil
}

// Cancel cancels a payable that has not been paid in full
func (s *PayableService) Cancel(ctx context.Context, payableID uuid.UUID, req CancelPayableRequest) (*PayableResponse, error) {
	var from finance.PayableStatus
	resp, err := s.mutate(ctx, payableID, func(p *finance.Payable) error {
		from = p.Status
		return p.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(ctx, "payable", string(from), resp.Status)
	logger.L(ctx).Info("payable cancelled", zap.String("payable_id", payableID.String()))
	return resp, nil
}

// Delete soft-deletes a payable, or removes it permanently when hard is set
// and no payment has been recorded.
func (s *PayableService) Delete(ctx context.Context, payableID uuid.UUID, hard bool) error {
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		payable, err := s.payableRepo.FindByIDForUpdate(ctx, payableID)
		if err != nil {
			return err
		}
		if hard {
			if err := payable.EnsureHardDeletable(); err != nil {
				return err
			}
			return s.payableRepo.Delete(ctx, payableID)
		}
		if err := payable.Deactivate(); err != nil {
			return err
		}
		return s.payableRepo.SaveWithLock(ctx, payable)
	}, unitofwork.Key("payable", payableID))
	if err != nil {
		return err
	}
	logger.L(ctx).Info("payable deleted", zap.String("payable_id", payableID.String()), zap.Bool("hard", hard))
	return nil
}

// Restore reverses a soft delete
func (s *PayableService) Restore(ctx context.Context, payableID uuid.UUID) (*PayableResponse, error) {
	return s.mutate(ctx, payableID, func(p *finance.Payable) error {
		return p.Restore()
	})
}

// MarkOverdue stores the OVERDUE status on every open payable whose due date
// has passed. Reads derive the status on the fly; this keeps the stored
// column current for reporting.
func (s *PayableService) MarkOverdue(ctx context.Context) (int64, error) {
	changed, err := s.payableRepo.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.uow.Invalidate(ctx)
	}
	logger.L(ctx).Info("overdue payables marked", zap.Int64("count", changed))
	return changed, nil
}

func (s *PayableService) mutate(ctx context.Context, payableID uuid.UUID, fn func(p *finance.Payable) error) (*PayableResponse, error) {
	var saved *finance.Payable
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		payable, err := s.payableRepo.FindByIDForUpdate(ctx, payableID)
		if err != nil {
			return err
		}
		if err := fn(payable); err != nil {
			return err
		}
		payable.RefreshStatus(s.now())
		if err := s.payableRepo.SaveWithLock(ctx, payable); err != nil {
			return err
		}
		saved = payable
		return nil
	}, unitofwork.Key("payable", payableID))
	if err != nil {
		return nil, err
	}
	response := ToPayableResponse(saved, s.now())
	return &response, nil
}
