package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bandhan/config"
	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"
	"bandhan/internal/ws"
	"bandhan/pkg/exotel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGatewayNotConfigured = errors.New("telephony gateway not configured")
	ErrNoCredits            = errors.New("caller has no call credits")
	ErrTargetNoCredits      = errors.New("target user has no call credits")
	ErrUserNotFound         = errors.New("one or both users not found")
	ErrMissingPhone         = errors.New("phone number missing")
	ErrNotMatched           = errors.New("users are not matched")
	ErrBlocked              = errors.New("calls between these users are blocked")
	ErrSessionNotFound      = errors.New("call session not found")
)

// CallService brokers voice calls through the telephony gateway and settles
// them from webhook callbacks. A session's terminal transition happens
// exactly once regardless of how many duplicate callbacks arrive.
type CallService struct {
	cfg         *config.Config
	gateway     exotel.Gateway
	callRepo    *repository.CallRepository
	webhookRepo *repository.WebhookRepository
	matchRepo   *repository.MatchRepository
	blockRepo   *repository.BlockRepository
	userRepo    *repository.UserRepository
	settingRepo *repository.SettingRepository
	credits     *CreditService
	hub         *ws.CallHub
}

func NewCallService(
	cfg *config.Config,
	gateway exotel.Gateway,
	callRepo *repository.CallRepository,
	webhookRepo *repository.WebhookRepository,
	matchRepo *repository.MatchRepository,
	blockRepo *repository.BlockRepository,
	userRepo *repository.UserRepository,
	settingRepo *repository.SettingRepository,
	credits *CreditService,
	hub *ws.CallHub,
) *CallService {
	return &CallService{
		cfg:         cfg,
		gateway:     gateway,
		callRepo:    callRepo,
		webhookRepo: webhookRepo,
		matchRepo:   matchRepo,
		blockRepo:   blockRepo,
		userRepo:    userRepo,
		settingRepo: settingRepo,
		credits:     credits,
		hub:         hub,
	}
}

// Initiate places a call from caller to target. Preconditions are checked in
// a fixed order so clients get stable error codes: gateway configured, caller
// credits, target credits, phone numbers present, matched, not blocked.
func (s *CallService) Initiate(ctx context.Context, callerID, targetID uint) (*models.CallSession, error) {
	if !s.gateway.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	ok, err := s.credits.HasCredits(callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCredits
	}
	ok, err = s.credits.HasCredits(targetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTargetNoCredits
	}

	caller, err := s.userRepo.GetActiveByID(callerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetActiveByID(targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if caller.Phone == "" || target.Phone == "" {
		return nil, ErrMissingPhone
	}

	matched, err := s.matchRepo.Exists(callerID, targetID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotMatched
	}
	if block, err := s.blockRepo.GetBetween(callerID, targetID); err == nil {
		if !block.CallAllowed {
			return nil, ErrBlocked
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings, err := s.settingRepo.GetTelephony()
	if err != nil {
		return nil, err
	}

	meta := exotel.CallMetadata{
		UserID:       callerID,
		TargetUserID: targetID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	placed, err := s.gateway.PlaceCall(ctx, caller.Phone, target.Phone, meta)
	if err != nil {
		return nil, err
	}

	session := &models.CallSession{
		CallerID:       callerID,
		ReceiverID:     targetID,
		ProviderCallID: placed.CallSid,
		Status:         domain.NormalizeCallStatus(placed.Status),
		CostPerMinute:  settings.CostPerMinute,
		CallerNumber:   caller.Phone,
		ReceiverNumber: target.Phone,
		VirtualNumber:  s.cfg.Exotel.VirtualNumber,
	}
	if session.Status == domain.CallStatusUnknown || session.Terminal() {
		session.Status = domain.CallStatusInitiated
	}
	if err := s.callRepo.CreateSession(session); err != nil {
		return nil, err
	}

	s.appendInitiatedLedger(callerID, session.ID)
	s.appendInitiatedLedger(targetID, session.ID)
	log.Printf("[CALL] user %d -> user %d placed, sid=%s", callerID, targetID, placed.CallSid)
	s.hub.NotifyCallStatus(callerID, targetID, session.ID, session.ProviderCallID, session.Status, 0)
	return session, nil
}

func (s *CallService) appendInitiatedLedger(userID, sessionID uint) {
	entry := &models.CreditLedgerEntry{
		Action:        domain.LedgerActionCallInitiated,
		Credits:       0,
		UserID:        &userID,
		CallSessionID: &sessionID,
		Reason:        "call placed",
	}
	if err := s.credits.creditRepo.AppendLedger(entry); err != nil {
		log.Printf("[CALL] ledger write failed for session %d: %v", sessionID, err)
	}
}

// HandleWebhook processes one gateway callback. The raw event is recorded
// before any state change so the payload survives a crash; a callback for a
// session we never created is recorded and dropped.
func (s *CallService) HandleWebhook(payload *exotel.WebhookPayload) error {
	event := &models.WebhookEvent{
		EventID:        uuid.NewString(),
		ProviderCallID: payload.CallSid,
		EventType:      payload.EventType,
		Status:         payload.Status,
		Payload:        payload.Raw,
	}
	if err := s.webhookRepo.RecordEvent(event); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}

	session, err := s.callRepo.GetByProviderCallID(payload.CallSid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[WEBHOOK] no session for sid=%s, event=%s dropped", payload.CallSid, payload.EventType)
		return nil
	}
	if err != nil {
		return err
	}

	var applyErr error
	switch payload.EventType {
	case domain.WebhookEventAnswered:
		applyErr = s.applyAnswered(session)
	case domain.WebhookEventTerminal:
		applyErr = s.applyTerminal(session, payload.Status, payload.ConversationDuration, payload.RecordingURL, payload.Legs)
	default:
		log.Printf("[WEBHOOK] sid=%s unhandled event type %q", payload.CallSid, payload.EventType)
	}
	if applyErr != nil {
		// The event stays unprocessed; the sweeper settles the session later.
		log.Printf("[WEBHOOK] apply failed for sid=%s event=%s: %v", payload.CallSid, payload.EventType, applyErr)
		return nil
	}

	if err := s.webhookRepo.MarkProcessed(event.ID); err != nil {
		log.Printf("[WEBHOOK] mark processed failed for event %s: %v", event.EventID, err)
	}
	return nil
}

func (s *CallService) applyAnswered(session *models.CallSession) error {
	affected, err := s.callRepo.TransitionToInProgress(session.ID, time.Now())
	if err != nil {
		return fmt.Errorf("answered transition for session %d: %w", session.ID, err)
	}
	if affected == 0 {
		log.Printf("[WEBHOOK] answered ignored for session %d (status=%s)", session.ID, session.Status)
		return nil
	}
	s.hub.NotifyCallStatus(session.CallerID, session.ReceiverID, session.ID, session.ProviderCallID, domain.CallStatusInProgress, 0)
	return nil
}

// applyTerminal is the single settlement path for webhook events, status
// sync, and the sweeper. The conditional UPDATE means the first terminal
// event wins; only the winner writes call logs and debits credits.
func (s *CallService) applyTerminal(session *models.CallSession, providerStatus string, duration int, recordingURL string, legs []exotel.Leg) error {
	status := domain.NormalizeCallStatus(providerStatus)
	if status == domain.CallStatusUnknown {
		if _, err := s.callRepo.MarkUnknown(session.ID); err != nil {
			return fmt.Errorf("mark unknown for session %d: %w", session.ID, err)
		}
		return nil
	}
	if !domain.IsTerminalCallStatus(status) {
		log.Printf("[WEBHOOK] terminal event with non-terminal status %q for session %d", providerStatus, session.ID)
		return nil
	}

	update := repository.TerminalUpdate{
		Status:          status,
		DurationSeconds: duration,
		Cost:            session.CostFor(duration),
		RecordingURL:    recordingURL,
		EndedAt:         time.Now(),
	}
	if len(legs) > 0 {
		update.CallerLegStatus = legs[0].Status
		update.CallerLegDuration = legs[0].Duration
	}
	if len(legs) > 1 {
		update.ReceiverLegStatus = legs[1].Status
		update.ReceiverLegDuration = legs[1].Duration
	}

	affected, err := s.callRepo.TransitionToTerminal(session.ID, update)
	if err != nil {
		return fmt.Errorf("terminal transition for session %d: %w", session.ID, err)
	}
	if affected == 0 {
		seen, _ := s.webhookRepo.CountForCallEvent(session.ProviderCallID, domain.WebhookEventTerminal)
		log.Printf("[WEBHOOK] duplicate terminal event for session %d ignored (%d recorded)", session.ID, seen)
		return nil
	}

	log.Printf("[CALL] session %d settled: status=%s duration=%ds cost=%.2f", session.ID, status, duration, update.Cost)
	s.hub.NotifyCallStatus(session.CallerID, session.ReceiverID, session.ID, session.ProviderCallID, status, duration)

	if status == domain.CallStatusCompleted && duration > 0 {
		s.writeCallLogs(session, duration, update.Cost)
		s.debitParticipants(session, duration)
	}
	return nil
}

func (s *CallService) writeCallLogs(session *models.CallSession, duration int, cost float64) {
	outgoing := &models.CallLog{
		UserID:        session.CallerID,
		OtherUserID:   session.ReceiverID,
		CallSessionID: session.ID,
		CallType:      domain.CallTypeOutgoing,
		Duration:      duration,
		Cost:          cost,
	}
	incoming := &models.CallLog{
		UserID:        session.ReceiverID,
		OtherUserID:   session.CallerID,
		CallSessionID: session.ID,
		CallType:      domain.CallTypeIncoming,
		Duration:      duration,
		Cost:          cost,
	}
	if err := s.callRepo.CreateLogPair(outgoing, incoming); err != nil {
		log.Printf("[CALL] call log write failed for session %d: %v", session.ID, err)
	}
}

func (s *CallService) debitParticipants(session *models.CallSession, duration int) {
	if s.cfg.Credit.HasDeductionTrigger {
		log.Printf("[CALL] session %d: deduction trigger active, skipping in-process debit", session.ID)
		return
	}
	minutes := models.BilledMinutes(duration)
	reason := fmt.Sprintf("call %s, %ds", session.ProviderCallID, duration)
	sessionID := session.ID
	if taken, err := s.credits.Debit(session.CallerID, minutes, &sessionID, reason); err != nil {
		log.Printf("[CALL] caller debit failed for session %d: %v", session.ID, err)
	} else if taken < minutes {
		log.Printf("[CALL] caller %d debited %d of %d for session %d", session.CallerID, taken, minutes, session.ID)
	}
	if taken, err := s.credits.Debit(session.ReceiverID, minutes, &sessionID, reason); err != nil {
		log.Printf("[CALL] receiver debit failed for session %d: %v", session.ID, err)
	} else if taken < minutes {
		log.Printf("[CALL] receiver %d debited %d of %d for session %d", session.ReceiverID, taken, minutes, session.ID)
	}
}

// GetSession returns a session by id or provider sid, restricted to its
// participants.
func (s *CallService) GetSession(ref string, userID uint) (*models.CallSession, error) {
	session, err := s.callRepo.GetSessionForParticipant(ref, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// SyncStatus polls the gateway for the current state of a session and applies
// the result through the normal transition path. Used when the app suspects a
// missed webhook.
func (s *CallService) SyncStatus(ctx context.Context, sid string, userID uint) (*models.CallSession, error) {
	session, err := s.callRepo.GetSessionForParticipant(sid, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return session, nil
	}
	status, err := s.gateway.FetchCallStatus(ctx, session.ProviderCallID)
	if err != nil {
		return nil, err
	}
	if err := s.applyProviderStatus(session, status); err != nil {
		return nil, err
	}
	return s.callRepo.GetSession(session.ID)
}

// applyProviderStatus routes a polled gateway status through the same
// transitions webhooks use.
func (s *CallService) applyProviderStatus(session *models.CallSession, status *exotel.CallStatus) error {
	normalized := domain.NormalizeCallStatus(status.Status)
	switch {
	case normalized == domain.CallStatusInProgress:
		return s.applyAnswered(session)
	case domain.IsTerminalCallStatus(normalized):
		return s.applyTerminal(session, status.Status, status.Duration, status.RecordingURL, status.Legs)
	case normalized == domain.CallStatusUnknown:
		if _, err := s.callRepo.MarkUnknown(session.ID); err != nil {
			return fmt.Errorf("mark unknown for session %d: %w", session.ID, err)
		}
	}
	return nil
}

func (s *CallService) ListSessions(userID uint, limit, offset int) ([]models.CallSession, error) {
	return s.callRepo.ListSessionsForUser(userID, limit, offset)
}

func (s *CallService) ListLogs(userID uint, limit, offset int) ([]models.CallLog, error) {
	return s.callRepo.ListLogsForUser(userID, limit, offset)
}
