package repository

import (
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type CallRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) CreateSession(s *models.CallSession) error {
	return r.db.Create(s).Error
}

func (r *CallRepository) GetSession(id uint) (*models.CallSession, error) {
	var s models.CallSession
	err := r.db.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CallRepository) GetByProviderCallID(sid string) (*models.CallSession, error) {
	var s models.CallSession
	err := r.db.Where("provider_call_id = ?", sid).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionForParticipant looks a session up by numeric id or provider call
// id, restricted to calls the user took part in.
func (r *CallRepository) GetSessionForParticipant(ref string, userID uint) (*models.CallSession, error) {
	var s models.CallSession
	err := r.db.
		Where("(id = ? OR provider_call_id = ?) AND (caller_id = ? OR receiver_id = ?)",
			ref, ref, userID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TransitionToInProgress marks the answered event. Only a session still in a
// pre-answer state moves; affected rows 0 means the event arrived late.
func (r *CallRepository) TransitionToInProgress(id uint, startedAt time.Time) (int64, error) {
	res := r.db.Model(&models.CallSession{}).
		Where("id = ? AND status IN ?", id, []string{domain.CallStatusInitiated, domain.CallStatusRinging}).
		Updates(map[string]interface{}{
			"status":     domain.CallStatusInProgress,
			"started_at": startedAt,
		})
	return res.RowsAffected, res.Error
}

// TerminalUpdate carries everything a terminal transition writes in one
// statement.
type TerminalUpdate struct {
	Status          string
	DurationSeconds int
	Cost            float64
	RecordingURL    string
	EndedAt         time.Time

	CallerLegStatus     string
	CallerLegDuration   int
	ReceiverLegStatus   string
	ReceiverLegDuration int
}

// TransitionToTerminal applies a terminal status with a single conditional
// UPDATE. Sessions already terminal are untouched, so the first terminal
// event wins and duplicates report affected rows 0.
func (r *CallRepository) TransitionToTerminal(id uint, u TerminalUpdate) (int64, error) {
	res := r.db.Model(&models.CallSession{}).
		Where("id = ? AND status NOT IN ?", id, domain.TerminalCallStatuses).
		Updates(map[string]interface{}{
			"status":                u.Status,
			"duration_seconds":      u.DurationSeconds,
			"cost":                  u.Cost,
			"recording_url":         u.RecordingURL,
			"ended_at":              u.EndedAt,
			"caller_leg_status":     u.CallerLegStatus,
			"caller_leg_duration":   u.CallerLegDuration,
			"receiver_leg_status":   u.ReceiverLegStatus,
			"receiver_leg_duration": u.ReceiverLegDuration,
		})
	return res.RowsAffected, res.Error
}

// MarkUnknown records that the gateway could not account for the call. The
// session stays non-terminal and keeps no ended_at, so a later webhook or
// sweep can still settle it.
func (r *CallRepository) MarkUnknown(id uint) (int64, error) {
	res := r.db.Model(&models.CallSession{}).
		Where("id = ? AND status NOT IN ?", id, domain.TerminalCallStatuses).
		Update("status", domain.CallStatusUnknown)
	return res.RowsAffected, res.Error
}

// ListStale returns non-terminal sessions created before the cutoff, oldest
// first, for the sweeper. Staleness keys on created_at so a session parked in
// unknown keeps getting re-polled every sweep.
func (r *CallRepository) ListStale(createdBefore time.Time, limit int) ([]models.CallSession, error) {
	var out []models.CallSession
	err := r.db.
		Where("status NOT IN ? AND created_at < ?", domain.TerminalCallStatuses, createdBefore).
		Order("created_at ASC").Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *CallRepository) ListSessionsForUser(userID uint, limit, offset int) ([]models.CallSession, error) {
	var out []models.CallSession
	err := r.db.
		Where("caller_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *CallRepository) ListAllSessions(limit, offset int) ([]models.CallSession, error) {
	var out []models.CallSession
	err := r.db.Preload("Caller").Preload("Receiver").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *CallRepository) CountSessionsByStatus(status string) (int64, error) {
	var n int64
	err := r.db.Model(&models.CallSession{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// CreateLogPair writes the outgoing and incoming log rows for one completed
// call in a single transaction.
func (r *CallRepository) CreateLogPair(outgoing, incoming *models.CallLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(outgoing).Error; err != nil {
			return err
		}
		return tx.Create(incoming).Error
	})
}

func (r *CallRepository) ListLogsForUser(userID uint, limit, offset int) ([]models.CallLog, error) {
	var out []models.CallLog
	err := r.db.Preload("OtherUser").Preload("OtherUser.Profile").
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *CallRepository) ListAllLogs(limit, offset int) ([]models.CallLog, error) {
	var out []models.CallLog
	err := r.db.Preload("User").Preload("OtherUser").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}
