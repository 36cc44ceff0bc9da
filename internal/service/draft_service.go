package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"infoex/backend/config"
	"infoex/backend/internal/dto"
	pkgredis "infoex/backend/pkg/redis"
)

// ── draft errors ──

var (
	ErrDraftUnavailable = errors.New("el guardado de borradores no está disponible")
	ErrDraftNotFound    = errors.New("no hay borrador guardado")
)

// DraftService roster wizard drafts kept server-side so a half-filled roster survives a device change
type DraftService interface {
	Load(ctx context.Context, caller Caller, q *dto.DraftQuery) (*dto.RosterDraft, error)
	Save(ctx context.Context, caller Caller, q *dto.DraftQuery, req *dto.SaveDraftRequest) (*dto.RosterDraft, error)
	Clear(ctx context.Context, caller Caller, q *dto.DraftQuery) error
}

type draftService struct {
	cfg    *config.Config
	store  DraftStore
	logger *zap.Logger
	now    func() time.Time
}

// NewDraftService builds a DraftService; a nil store makes every call return ErrDraftUnavailable
func NewDraftService(cfg *config.Config, store DraftStore, logger *zap.Logger) DraftService {
	return &draftService{cfg: cfg, store: store, logger: logger, now: time.Now}
}

// draftKey one draft per (author, station, date)
func draftKey(userID, stationID, date string) string {
	return fmt.Sprintf("roster:%s:%s:%s", userID, stationID, date)
}

func (s *draftService) Load(ctx context.Context, caller Caller, q *dto.DraftQuery) (*dto.RosterDraft, error) {
	if s.store == nil {
		return nil, ErrDraftUnavailable
	}

	payload, err := s.store.LoadDraft(ctx, draftKey(caller.UserID, q.StationID, q.Date))
	if err != nil {
		if errors.Is(err, pkgredis.ErrDraftNotFound) {
			return nil, ErrDraftNotFound
		}
		s.logger.Error("load draft failed", zap.Error(err))
		return nil, ErrDraftUnavailable
	}

	var draft dto.RosterDraft
	if err := json.Unmarshal(payload, &draft); err != nil {
		// unreadable drafts are dropped
		s.logger.Warn("discarding corrupt draft", zap.String("user_id", caller.UserID), zap.Error(err))
		if err := s.store.DeleteDraft(ctx, draftKey(caller.UserID, q.StationID, q.Date)); err != nil {
			s.logger.Warn("drop corrupt draft failed", zap.String("user_id", caller.UserID), zap.Error(err))
		}
		return nil, ErrDraftNotFound
	}
	return &draft, nil
}

func (s *draftService) Save(ctx context.Context, caller Caller, q *dto.DraftQuery, req *dto.SaveDraftRequest) (*dto.RosterDraft, error) {
	if s.store == nil {
		return nil, ErrDraftUnavailable
	}
	if _, err := parseDate("date", q.Date); err != nil {
		return nil, err
	}

	draft := &dto.RosterDraft{
		StationID: q.StationID,
		Date:      q.Date,
		Step:      req.Step,
		Entries:   req.Entries,
		SavedAt:   formatTimestamp(s.now()),
	}
	if draft.Entries == nil {
		draft.Entries = []dto.RosterEntry{}
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveDraft(ctx, draftKey(caller.UserID, q.StationID, q.Date), payload, s.cfg.Feature.DraftTTL); err != nil {
		s.logger.Error("save draft failed", zap.Error(err))
		return nil, ErrDraftUnavailable
	}
	return draft, nil
}

func (s *draftService) Clear(ctx context.Context, caller Caller, q *dto.DraftQuery) error {
	if s.store == nil {
		return ErrDraftUnavailable
	}
	if err := s.store.DeleteDraft(ctx, draftKey(caller.UserID, q.StationID, q.Date)); err != nil {
		s.logger.Error("clear draft failed", zap.Error(err))
		return ErrDraftUnavailable
	}
	return nil
}
