package service

import (
	"errors"
	"log"
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrDuplicateTransaction = errors.New("transaction id already submitted")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPaymentNotPending    = errors.New("payment already reviewed")
	ErrInvalidOutcome       = errors.New("invalid review outcome")
)

// PaymentService handles the manual payment flow: a user submits a bank/UPI
// transaction id, an admin verifies it, and verification activates the plan.
type PaymentService struct {
	paymentRepo      *repository.PaymentRepository
	planRepo         *repository.PlanRepository
	subscriptionRepo *repository.SubscriptionRepository
	credits          *CreditService
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	planRepo *repository.PlanRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	credits *CreditService,
) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		credits:          credits,
	}
}

// Submit records a pending payment for admin review.
func (s *PaymentService) Submit(userID, planID uint, transactionID, screenshot string) (*models.Payment, error) {
	plan, err := s.planRepo.GetActiveByID(planID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.paymentRepo.GetByTransactionID(transactionID); err == nil {
		return nil, ErrDuplicateTransaction
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p := &models.Payment{
		UserID:        userID,
		PlanID:        planID,
		TransactionID: transactionID,
		Amount:        plan.Price,
		Screenshot:    screenshot,
		Status:        domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Review settles a pending payment. Only one review wins; a verified outcome
// activates the plan: normal plans create or extend a subscription, call
// plans allocate call credits.
func (s *PaymentService) Review(paymentID, adminID uint, outcome, notes string) (*models.Payment, error) {
	if outcome != domain.PaymentStatusVerified && outcome != domain.PaymentStatusRejected {
		return nil, ErrInvalidOutcome
	}
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	affected, err := s.paymentRepo.MarkReviewed(paymentID, outcome, notes, adminID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrPaymentNotPending
	}
	if outcome == domain.PaymentStatusVerified {
		if err := s.activate(payment, adminID); err != nil {
			// Payment stays verified; activation is retried manually.
			log.Printf("[PAYMENT] activation failed for payment %d: %v", paymentID, err)
			return nil, err
		}
	}
	return s.paymentRepo.GetByID(paymentID)
}

func (s *PaymentService) activate(payment *models.Payment, adminID uint) error {
	plan, err := s.planRepo.GetByID(payment.PlanID)
	if err != nil {
		return err
	}
	validity := time.Duration(plan.DurationMonths) * 30 * 24 * time.Hour

	if plan.Type == domain.PlanTypeCall {
		credits := 0
		if plan.CallCredits != nil {
			credits = *plan.CallCredits
		}
		_, err := s.credits.Allocate(payment.UserID, credits, &plan.ID, validity, nil,
			"payment "+payment.TransactionID)
		return err
	}

	now := time.Now()
	existing, err := s.subscriptionRepo.GetActiveForUser(payment.UserID, now)
	if err == nil {
		return s.subscriptionRepo.Extend(existing.ID, plan.ID, existing.ExpiresAt.Add(validity))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	sub := &models.Subscription{
		UserID:        payment.UserID,
		PlanID:        plan.ID,
		StartDate:     now,
		ExpiresAt:     now.Add(validity),
		PaymentMethod: "manual",
		TransactionID: payment.TransactionID,
		Status:        domain.SubscriptionStatusActive,
	}
	if err := s.subscriptionRepo.Create(sub); err != nil {
		return err
	}
	log.Printf("[PAYMENT] payment %d verified by admin %d, plan %q activated for user %d",
		payment.ID, adminID, plan.Name, payment.UserID)
	return nil
}

func (s *PaymentService) ListForUser(userID uint) ([]models.Payment, error) {
	return s.paymentRepo.ListForUser(userID)
}

// SubscriptionStatus is what the app uses to gate profile-detail views and
// the call button.
type SubscriptionStatus struct {
	HasSubscription bool                 `json:"has_subscription"`
	CanViewDetails  bool                 `json:"can_view_details"`
	CanMakeCalls    bool                 `json:"can_make_calls"`
	Subscription    *models.Subscription `json:"subscription,omitempty"`
	CallCredits     int                  `json:"call_credits"`
}

func (s *PaymentService) Status(userID uint) (*SubscriptionStatus, error) {
	out := &SubscriptionStatus{}
	sub, err := s.subscriptionRepo.GetActiveForUser(userID, time.Now())
	if err == nil {
		out.HasSubscription = true
		out.Subscription = sub
		out.CanViewDetails = sub.Plan.CanViewDetails
		out.CanMakeCalls = sub.Plan.CanMakeCalls
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	balance, err := s.credits.Balance(userID)
	if err != nil {
		return nil, err
	}
	out.CallCredits = balance
	if balance > 0 {
		out.CanMakeCalls = true
	}
	return out, nil
}
