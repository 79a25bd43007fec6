package service

import (
	"errors"
	"testing"
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"gorm.io/gorm"
)

func newPaymentService(db *gorm.DB) *PaymentService {
	return NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewPlanRepository(db),
		repository.NewSubscriptionRepository(db),
		newCreditService(db),
	)
}

func createPlan(t *testing.T, db *gorm.DB, name, planType string, callCredits *int) *models.Plan {
	t.Helper()
	p := &models.Plan{
		Name:           name,
		Price:          499,
		DurationMonths: 1,
		CallCredits:    callCredits,
		Type:           planType,
		CanViewDetails: planType == domain.PlanTypeNormal,
		CanMakeCalls:   planType == domain.PlanTypeCall,
		IsActive:       true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func TestSubmitRejectsDuplicateTransaction(t *testing.T) {
	db := openTestDB(t)
	svc := newPaymentService(db)
	user := createUser(t, db, "payer", "+911234500001")
	plan := createPlan(t, db, "Gold", domain.PlanTypeNormal, nil)

	if _, err := svc.Submit(user.ID, plan.ID, "TXN-1", ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := svc.Submit(user.ID, plan.ID, "TXN-1", "")
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("err = %v, want ErrDuplicateTransaction", err)
	}
}

func TestReviewVerifiedNormalPlanCreatesSubscription(t *testing.T) {
	db := openTestDB(t)
	svc := newPaymentService(db)
	user := createUser(t, db, "payer", "+911234500002")
	admin := createUser(t, db, "admin", "+911234500003")
	plan := createPlan(t, db, "Gold", domain.PlanTypeNormal, nil)

	payment, err := svc.Submit(user.ID, plan.ID, "TXN-2", "https://shot.example/1.png")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	reviewed, err := svc.Review(payment.ID, admin.ID, domain.PaymentStatusVerified, "looks good")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.PaymentStatusVerified {
		t.Errorf("status = %q", reviewed.Status)
	}
	if reviewed.VerifiedBy == nil || *reviewed.VerifiedBy != admin.ID {
		t.Errorf("verified_by = %v", reviewed.VerifiedBy)
	}

	status, err := svc.Status(user.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.HasSubscription || !status.CanViewDetails {
		t.Errorf("status = %+v, want active subscription with detail access", status)
	}
}

func TestReviewVerifiedCallPlanAllocatesCredits(t *testing.T) {
	db := openTestDB(t)
	svc := newPaymentService(db)
	user := createUser(t, db, "payer", "+911234500004")
	admin := createUser(t, db, "admin", "+911234500005")
	credits := 100
	plan := createPlan(t, db, "Talk 100", domain.PlanTypeCall, &credits)

	payment, err := svc.Submit(user.ID, plan.ID, "TXN-3", "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(payment.ID, admin.ID, domain.PaymentStatusVerified, ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	var alloc models.CallCredit
	if err := db.Where("user_id = ?", user.ID).First(&alloc).Error; err != nil {
		t.Fatalf("no allocation created: %v", err)
	}
	if alloc.CreditsRemaining != 100 {
		t.Errorf("remaining = %d, want 100", alloc.CreditsRemaining)
	}
	if alloc.PlanID == nil || *alloc.PlanID != plan.ID {
		t.Errorf("plan id = %v", alloc.PlanID)
	}

	status, _ := svc.Status(user.ID)
	if !status.CanMakeCalls || status.CallCredits != 100 {
		t.Errorf("status = %+v", status)
	}
}

func TestReviewIsSingleShot(t *testing.T) {
	db := openTestDB(t)
	svc := newPaymentService(db)
	user := createUser(t, db, "payer", "+911234500006")
	admin := createUser(t, db, "admin", "+911234500007")
	plan := createPlan(t, db, "Gold", domain.PlanTypeNormal, nil)

	payment, _ := svc.Submit(user.ID, plan.ID, "TXN-4", "")
	if _, err := svc.Review(payment.ID, admin.ID, domain.PaymentStatusRejected, "blurry screenshot"); err != nil {
		t.Fatalf("review: %v", err)
	}
	_, err := svc.Review(payment.ID, admin.ID, domain.PaymentStatusVerified, "second thoughts")
	if !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("err = %v, want ErrPaymentNotPending", err)
	}
	var subs int64
	db.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Count(&subs)
	if subs != 0 {
		t.Errorf("rejected payment created %d subscriptions", subs)
	}
}

func TestReviewVerifiedExtendsExistingSubscription(t *testing.T) {
	db := openTestDB(t)
	svc := newPaymentService(db)
	user := createUser(t, db, "payer", "+911234500008")
	admin := createUser(t, db, "admin", "+911234500009")
	plan := createPlan(t, db, "Gold", domain.PlanTypeNormal, nil)

	now := time.Now()
	existing := &models.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		StartDate: now.AddDate(0, 0, -10),
		ExpiresAt: now.AddDate(0, 0, 20),
		Status:    domain.SubscriptionStatusActive,
	}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	payment, _ := svc.Submit(user.ID, plan.ID, "TXN-5", "")
	if _, err := svc.Review(payment.ID, admin.ID, domain.PaymentStatusVerified, ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	var subs []models.Subscription
	db.Where("user_id = ?", user.ID).Find(&subs)
	if len(subs) != 1 {
		t.Fatalf("subscriptions = %d, want the existing one extended", len(subs))
	}
	if !subs[0].ExpiresAt.After(now.AddDate(0, 0, 45)) {
		t.Errorf("expiry not extended: %s", subs[0].ExpiresAt)
	}
}
