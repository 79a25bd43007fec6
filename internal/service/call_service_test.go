package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bandhan/config"
	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"
	"bandhan/internal/ws"
	"bandhan/pkg/exotel"

	"gorm.io/gorm"
)

type fakeGateway struct {
	configured  bool
	placeResult *exotel.PlaceCallResult
	placeErr    error
	status      *exotel.CallStatus
	statusErr   error
	placeCalls  int
	fetchCalls  int
}

func (f *fakeGateway) Configured() bool { return f.configured }

func (f *fakeGateway) PlaceCall(ctx context.Context, caller, receiver string, meta exotel.CallMetadata) (*exotel.PlaceCallResult, error) {
	f.placeCalls++
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.placeResult, nil
}

func (f *fakeGateway) FetchCallStatus(ctx context.Context, sid string) (*exotel.CallStatus, error) {
	f.fetchCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func newCallService(db *gorm.DB, cfg *config.Config, gw exotel.Gateway) *CallService {
	creditSvc := newCreditService(db)
	return NewCallService(
		cfg,
		gw,
		repository.NewCallRepository(db),
		repository.NewWebhookRepository(db),
		repository.NewMatchRepository(db),
		repository.NewBlockRepository(db),
		repository.NewUserRepository(db),
		repository.NewSettingRepository(db),
		creditSvc,
		ws.NewCallHub(),
	)
}

func matchUsers(t *testing.T, db *gorm.DB, a, b, admin uint) {
	t.Helper()
	if err := repository.NewMatchRepository(db).CreateBidirectional(a, b, admin); err != nil {
		t.Fatalf("match users: %v", err)
	}
}

func placedGateway() *fakeGateway {
	return &fakeGateway{
		configured:  true,
		placeResult: &exotel.PlaceCallResult{CallSid: "sid-123", Status: "in-progress"},
	}
}

func setupCallPair(t *testing.T, db *gorm.DB) (caller, receiver *models.User) {
	t.Helper()
	caller = createUser(t, db, "caller", "+911234567890")
	receiver = createUser(t, db, "receiver", "+919876543210")
	admin := createUser(t, db, "matcher", "+910000000001")
	matchUsers(t, db, caller.ID, receiver.ID, admin.ID)
	grantCredits(t, db, caller.ID, 10, 24*time.Hour)
	grantCredits(t, db, receiver.ID, 10, 24*time.Hour)
	return caller, receiver
}

func TestInitiateChecksGatewayConfig(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), &fakeGateway{configured: false})
	_, err := svc.Initiate(context.Background(), 1, 2)
	if !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("err = %v, want ErrGatewayNotConfigured", err)
	}
}

func TestInitiateRequiresCallerCredits(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	caller := createUser(t, db, "caller", "+911234567890")
	receiver := createUser(t, db, "receiver", "+919876543210")

	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, ErrNoCredits) {
		t.Fatalf("err = %v, want ErrNoCredits", err)
	}
}

func TestInitiateRequiresTargetCredits(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	caller := createUser(t, db, "caller", "+911234567890")
	receiver := createUser(t, db, "receiver", "+919876543210")
	grantCredits(t, db, caller.ID, 10, 24*time.Hour)

	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, ErrTargetNoCredits) {
		t.Fatalf("err = %v, want ErrTargetNoCredits", err)
	}
}

func TestInitiateRequiresMatch(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	caller := createUser(t, db, "caller", "+911234567890")
	receiver := createUser(t, db, "receiver", "+919876543210")
	grantCredits(t, db, caller.ID, 10, 24*time.Hour)
	grantCredits(t, db, receiver.ID, 10, 24*time.Hour)

	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, ErrNotMatched) {
		t.Fatalf("err = %v, want ErrNotMatched", err)
	}
}

func TestInitiateRespectsBlocks(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	caller, receiver := setupCallPair(t, db)

	block := &models.Block{BlockerID: receiver.ID, BlockedID: caller.ID}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("create block: %v", err)
	}
	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}

	// An admin can keep the block but re-allow calls.
	db.Model(block).Update("call_allowed", true)
	if _, err := svc.Initiate(context.Background(), caller.ID, receiver.ID); err != nil {
		t.Fatalf("call with call_allowed block: %v", err)
	}
}

func TestInitiateRequiresActiveUsers(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	caller, receiver := setupCallPair(t, db)
	db.Model(&models.User{}).Where("id = ?", receiver.ID).
		Update("status", domain.UserStatusInactive)

	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestInitiateCreatesSession(t *testing.T) {
	db := openTestDB(t)
	gw := placedGateway()
	svc := newCallService(db, testConfig(), gw)
	caller, receiver := setupCallPair(t, db)

	session, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if session.ProviderCallID != "sid-123" {
		t.Errorf("provider call id = %q", session.ProviderCallID)
	}
	if session.Status != domain.CallStatusInProgress {
		t.Errorf("status = %q, want in_progress", session.Status)
	}
	if session.CostPerMinute != 1 {
		t.Errorf("cost per minute snapshot = %v, want default 1", session.CostPerMinute)
	}
	if gw.placeCalls != 1 {
		t.Errorf("gateway called %d times", gw.placeCalls)
	}

	// One zero-credit call_initiated entry per participant.
	var entries []models.CreditLedgerEntry
	db.Where("call_session_id = ? AND action = ?", session.ID, domain.LedgerActionCallInitiated).Find(&entries)
	if len(entries) != 2 {
		t.Fatalf("call_initiated ledger entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Credits != 0 {
			t.Errorf("call_initiated entry credits = %d, want 0", e.Credits)
		}
	}
}

func TestInitiateGatewayFailure(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{configured: true, placeErr: exotel.ErrGateway}
	svc := newCallService(db, testConfig(), gw)
	caller, receiver := setupCallPair(t, db)

	_, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if !errors.Is(err, exotel.ErrGateway) {
		t.Fatalf("err = %v, want gateway error", err)
	}
	var n int64
	db.Model(&models.CallSession{}).Count(&n)
	if n != 0 {
		t.Errorf("failed placement created %d sessions", n)
	}
}

func initiateTestCall(t *testing.T, db *gorm.DB, svc *CallService) (*models.CallSession, *models.User, *models.User) {
	t.Helper()
	caller, receiver := setupCallPair(t, db)
	session, err := svc.Initiate(context.Background(), caller.ID, receiver.ID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return session, caller, receiver
}

func TestWebhookAnsweredTransition(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), &fakeGateway{
		configured:  true,
		placeResult: &exotel.PlaceCallResult{CallSid: "sid-123", Status: "initiated"},
	})
	session, _, _ := initiateTestCall(t, db, svc)

	err := svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:   session.ProviderCallID,
		EventType: domain.WebhookEventAnswered,
		Status:    "in-progress",
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusInProgress {
		t.Errorf("status = %q, want in_progress", after.Status)
	}
	if after.StartedAt == nil {
		t.Error("started_at not set")
	}
}

func TestWebhookCompletedSettlesOnce(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	session, caller, receiver := initiateTestCall(t, db, svc)

	payload := &exotel.WebhookPayload{
		CallSid:              session.ProviderCallID,
		EventType:            domain.WebhookEventTerminal,
		Status:               "completed",
		ConversationDuration: 125,
		RecordingURL:         "https://recordings.example/r1.mp3",
		Legs: []exotel.Leg{
			{Status: "completed", Duration: 125},
			{Status: "completed", Duration: 120},
		},
	}
	if err := svc.HandleWebhook(payload); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	// Duplicate delivery of the same terminal event.
	if err := svc.HandleWebhook(payload); err != nil {
		t.Fatalf("duplicate webhook: %v", err)
	}

	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusCompleted {
		t.Fatalf("status = %q, want completed", after.Status)
	}
	if after.DurationSeconds != 125 {
		t.Errorf("duration = %d, want 125", after.DurationSeconds)
	}
	// 125s bills 3 minutes at the default rate of 1.
	if after.Cost != 3 {
		t.Errorf("cost = %v, want 3", after.Cost)
	}
	if after.EndedAt == nil {
		t.Error("ended_at not set")
	}
	if after.RecordingURL != payload.RecordingURL {
		t.Errorf("recording url = %q", after.RecordingURL)
	}

	var logs []models.CallLog
	db.Where("call_session_id = ?", session.ID).Order("call_type DESC").Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("call logs = %d, want exactly one outgoing/incoming pair", len(logs))
	}
	if logs[0].CallType != domain.CallTypeOutgoing || logs[0].UserID != caller.ID {
		t.Errorf("outgoing log = %+v", logs[0])
	}
	if logs[1].CallType != domain.CallTypeIncoming || logs[1].UserID != receiver.ID {
		t.Errorf("incoming log = %+v", logs[1])
	}

	// Each participant debited 3 credits, once.
	for _, u := range []*models.User{caller, receiver} {
		var remaining int
		db.Model(&models.CallCredit{}).Where("user_id = ?", u.ID).
			Select("credits_remaining").Scan(&remaining)
		if remaining != 7 {
			t.Errorf("user %d remaining = %d, want 7", u.ID, remaining)
		}
	}

	var events int64
	db.Model(&models.WebhookEvent{}).Where("provider_call_id = ?", session.ProviderCallID).Count(&events)
	if events != 2 {
		t.Errorf("webhook events recorded = %d, want 2 (duplicate kept for audit)", events)
	}
	var processed int64
	db.Model(&models.WebhookEvent{}).
		Where("provider_call_id = ? AND processed = ?", session.ProviderCallID, true).Count(&processed)
	if processed != 2 {
		t.Errorf("processed events = %d, want 2", processed)
	}
}

func TestWebhookBusyCallHasNoLogsOrDebits(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	session, caller, _ := initiateTestCall(t, db, svc)

	err := svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:   session.ProviderCallID,
		EventType: domain.WebhookEventTerminal,
		Status:    "busy",
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}

	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusBusy {
		t.Fatalf("status = %q, want busy", after.Status)
	}
	var logs int64
	db.Model(&models.CallLog{}).Where("call_session_id = ?", session.ID).Count(&logs)
	if logs != 0 {
		t.Errorf("busy call wrote %d logs", logs)
	}
	var remaining int
	db.Model(&models.CallCredit{}).Where("user_id = ?", caller.ID).
		Select("credits_remaining").Scan(&remaining)
	if remaining != 10 {
		t.Errorf("busy call debited caller: remaining = %d", remaining)
	}
}

func TestWebhookUnknownStatusIsNotTerminal(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), &fakeGateway{
		configured:  true,
		placeResult: &exotel.PlaceCallResult{CallSid: "sid-123", Status: "ringing"},
	})
	session, _, _ := initiateTestCall(t, db, svc)

	err := svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:   session.ProviderCallID,
		EventType: domain.WebhookEventTerminal,
		Status:    "something-new",
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusUnknown {
		t.Fatalf("status = %q, want unknown", after.Status)
	}
	if after.Terminal() {
		t.Error("unknown must not be terminal")
	}
	if after.EndedAt != nil {
		t.Error("unknown set ended_at")
	}

	// A later real terminal event still settles the call.
	err = svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:              session.ProviderCallID,
		EventType:            domain.WebhookEventTerminal,
		Status:               "completed",
		ConversationDuration: 60,
	})
	if err != nil {
		t.Fatalf("second webhook: %v", err)
	}
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusCompleted {
		t.Errorf("status after recovery = %q, want completed", after.Status)
	}
	if after.Cost != 1 {
		t.Errorf("cost = %v, want 1 (exactly one minute)", after.Cost)
	}
}

func TestWebhookApplyFailureLeavesEventUnprocessed(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	session, _, _ := initiateTestCall(t, db, svc)

	// Make every session update fail, as a wedged database would.
	if err := db.Exec(`CREATE TRIGGER lock_sessions BEFORE UPDATE ON call_sessions
		BEGIN SELECT RAISE(ABORT, 'locked'); END`).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	payload := &exotel.WebhookPayload{
		CallSid:              session.ProviderCallID,
		EventType:            domain.WebhookEventTerminal,
		Status:               "completed",
		ConversationDuration: 30,
	}
	if err := svc.HandleWebhook(payload); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	var event models.WebhookEvent
	if err := db.Where("provider_call_id = ?", session.ProviderCallID).First(&event).Error; err != nil {
		t.Fatalf("event not recorded: %v", err)
	}
	if event.Processed {
		t.Error("failed application marked the event processed")
	}
	var after models.CallSession
	db.First(&after, session.ID)
	if after.Terminal() {
		t.Errorf("session settled despite failed transition: %s", after.Status)
	}

	// Once the database recovers, redelivery settles the call and is marked
	// processed.
	if err := db.Exec("DROP TRIGGER lock_sessions").Error; err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if err := svc.HandleWebhook(payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	var processed int64
	db.Model(&models.WebhookEvent{}).
		Where("provider_call_id = ? AND processed = ?", session.ProviderCallID, true).Count(&processed)
	if processed != 1 {
		t.Errorf("processed events = %d, want 1", processed)
	}
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusCompleted {
		t.Errorf("status = %q, want completed", after.Status)
	}
}

func TestWebhookForUnknownSessionIsRecordedAndDropped(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())

	err := svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:   "never-placed",
		EventType: domain.WebhookEventTerminal,
		Status:    "completed",
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	var n int64
	db.Model(&models.WebhookEvent{}).Where("provider_call_id = ?", "never-placed").Count(&n)
	if n != 1 {
		t.Errorf("event not recorded: count = %d", n)
	}
}

func TestDeductionTriggerDisablesInProcessDebit(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	cfg.Credit.HasDeductionTrigger = true
	svc := newCallService(db, cfg, placedGateway())
	session, caller, _ := initiateTestCall(t, db, svc)

	err := svc.HandleWebhook(&exotel.WebhookPayload{
		CallSid:              session.ProviderCallID,
		EventType:            domain.WebhookEventTerminal,
		Status:               "completed",
		ConversationDuration: 90,
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	var remaining int
	db.Model(&models.CallCredit{}).Where("user_id = ?", caller.ID).
		Select("credits_remaining").Scan(&remaining)
	if remaining != 10 {
		t.Errorf("trigger mode debited in-process: remaining = %d", remaining)
	}
	// Call logs are still written.
	var logs int64
	db.Model(&models.CallLog{}).Where("call_session_id = ?", session.ID).Count(&logs)
	if logs != 2 {
		t.Errorf("logs = %d, want 2", logs)
	}
}

func TestSweeperSettlesStuckCall(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{
		configured:  true,
		placeResult: &exotel.PlaceCallResult{CallSid: "sid-123", Status: "ringing"},
		status: &exotel.CallStatus{
			Status:   "completed",
			Duration: 40,
			Legs: []exotel.Leg{
				{Status: "completed", Duration: 40},
				{Status: "completed", Duration: 38},
			},
		},
	}
	cfg := testConfig()
	svc := newCallService(db, cfg, gw)
	session, caller, _ := initiateTestCall(t, db, svc)

	// Backdate the session so it looks stale.
	past := time.Now().Add(-10 * time.Minute)
	db.Model(&models.CallSession{}).Where("id = ?", session.ID).UpdateColumn("created_at", past)

	sweeper := NewSweeper(&cfg.Sweeper, svc)
	sweeper.SweepOnce(context.Background())

	if gw.fetchCalls != 1 {
		t.Fatalf("gateway polled %d times, want 1", gw.fetchCalls)
	}
	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusCompleted {
		t.Fatalf("status = %q, want completed", after.Status)
	}
	if after.DurationSeconds != 40 || after.Cost != 1 {
		t.Errorf("duration = %d cost = %v, want 40s for 1 credit", after.DurationSeconds, after.Cost)
	}
	var remaining int
	db.Model(&models.CallCredit{}).Where("user_id = ?", caller.ID).
		Select("credits_remaining").Scan(&remaining)
	if remaining != 9 {
		t.Errorf("caller remaining = %d, want 9", remaining)
	}

	// Settled sessions are not swept again.
	sweeper.SweepOnce(context.Background())
	if gw.fetchCalls != 1 {
		t.Errorf("terminal session polled again (%d fetches)", gw.fetchCalls)
	}
}

func TestSweeperSkipsFailedPolls(t *testing.T) {
	db := openTestDB(t)
	gw := &fakeGateway{
		configured:  true,
		placeResult: &exotel.PlaceCallResult{CallSid: "sid-123", Status: "ringing"},
		statusErr:   exotel.ErrGateway,
	}
	cfg := testConfig()
	svc := newCallService(db, cfg, gw)
	session, _, _ := initiateTestCall(t, db, svc)
	past := time.Now().Add(-10 * time.Minute)
	db.Model(&models.CallSession{}).Where("id = ?", session.ID).UpdateColumn("created_at", past)

	sweeper := NewSweeper(&cfg.Sweeper, svc)
	sweeper.SweepOnce(context.Background())

	var after models.CallSession
	db.First(&after, session.ID)
	if after.Status != domain.CallStatusRinging {
		t.Errorf("failed poll changed status to %q", after.Status)
	}
}

func TestSyncStatusAppliesTerminalState(t *testing.T) {
	db := openTestDB(t)
	gw := placedGateway()
	gw.status = &exotel.CallStatus{Status: "completed", Duration: 61}
	svc := newCallService(db, testConfig(), gw)
	session, caller, _ := initiateTestCall(t, db, svc)

	after, err := svc.SyncStatus(context.Background(), session.ProviderCallID, caller.ID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if after.Status != domain.CallStatusCompleted {
		t.Fatalf("status = %q, want completed", after.Status)
	}
	if after.Cost != 2 {
		t.Errorf("cost = %v, want 2 (61s rounds up)", after.Cost)
	}

	// Terminal sessions return without touching the gateway again.
	fetches := gw.fetchCalls
	if _, err := svc.SyncStatus(context.Background(), session.ProviderCallID, caller.ID); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if gw.fetchCalls != fetches {
		t.Error("terminal session polled the gateway")
	}
}

func TestSyncStatusScopedToParticipants(t *testing.T) {
	db := openTestDB(t)
	svc := newCallService(db, testConfig(), placedGateway())
	session, _, _ := initiateTestCall(t, db, svc)
	outsider := createUser(t, db, "outsider", "+917777777777")

	_, err := svc.SyncStatus(context.Background(), session.ProviderCallID, outsider.ID)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
