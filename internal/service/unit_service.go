package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
	pkgerrors "infoex/backend/pkg/errors"
)

// ── unit errors ──

var (
	ErrUnitNotFound      = pkgerrors.NotFound("unidad", "")
	ErrStationNotFound   = pkgerrors.NotFound("caseta", "")
	ErrUnitNameExists    = errors.New("ya existe una unidad con ese nombre")
	ErrStationNameExists = errors.New("ya existe una caseta con ese nombre en la unidad")
	ErrUnitHasMembers    = errors.New("la unidad tiene personal asignado; reasígnalo antes de eliminarla")
)

// UnitService units (unidades) and their stations (casetas)
type UnitService interface {
	CreateUnit(ctx context.Context, req *dto.CreateUnitRequest, callerID string) (*dto.UnitResponse, error)
	GetUnit(ctx context.Context, id string) (*dto.UnitResponse, error)
	ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, error)
	UpdateUnit(ctx context.Context, id string, req *dto.UpdateUnitRequest, callerID string) (*dto.UnitResponse, error)
	DeleteUnit(ctx context.Context, id string, callerID string) error

	CreateStation(ctx context.Context, req *dto.CreateStationRequest, callerID string) (*dto.StationResponse, error)
	ListStations(ctx context.Context, unitID string) ([]dto.StationResponse, error)
	UpdateStation(ctx context.Context, id string, req *dto.UpdateStationRequest, callerID string) (*dto.StationResponse, error)
	DeleteStation(ctx context.Context, id string, callerID string) error
}

type unitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUnitService builds a UnitService
func NewUnitService(repo *repository.Repository, logger *zap.Logger) UnitService {
	return &unitService{repo: repo, logger: logger}
}

// ────────────────────── CreateUnit ──────────────────────

func (s *unitService) CreateUnit(ctx context.Context, req *dto.CreateUnitRequest, callerID string) (*dto.UnitResponse, error) {
	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.Unit.GetByName(ctx, name); err == nil {
		return nil, ErrUnitNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	unit := &model.Unit{
		Name:           name,
		Description:    req.Description,
		IsActive:       true,
		VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
	}
	if err := s.repo.Unit.Create(ctx, unit); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUnitNameExists
		}
		s.logger.Error("create unit failed", zap.Error(err))
		return nil, err
	}

	return s.toUnitResponse(unit, 0), nil
}

// ────────────────────── GetUnit ──────────────────────

func (s *unitService) GetUnit(ctx context.Context, id string) (*dto.UnitResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		s.logger.Error("load unit failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	count, err := s.repo.Unit.CountMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.toUnitResponse(unit, count), nil
}

// ────────────────────── ListUnits ──────────────────────

func (s *unitService) ListUnits(ctx context.Context, req *dto.UnitListRequest) ([]dto.UnitResponse, error) {
	units, err := s.repo.Unit.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("list units failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		count, err := s.repo.Unit.CountMembers(ctx, units[i].UnitID)
		if err != nil {
			return nil, err
		}
		result = append(result, *s.toUnitResponse(&units[i], count))
	}
	return result, nil
}

// ────────────────────── UpdateUnit ──────────────────────

func (s *unitService) UpdateUnit(ctx context.Context, id string, req *dto.UpdateUnitRequest, callerID string) (*dto.UnitResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	unit.Version = req.Version

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		existing, err := s.repo.Unit.GetByName(ctx, name)
		if err == nil && existing.UnitID != id {
			return nil, ErrUnitNameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		unit.Name = name
	}
	if req.Description != nil {
		unit.Description = *req.Description
	}
	if req.IsActive != nil {
		unit.IsActive = *req.IsActive
	}
	unit.UpdatedBy = &callerID

	if err := s.repo.Unit.Update(ctx, unit); err != nil {
		s.logger.Error("update unit failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetUnit(ctx, id)
}

// ────────────────────── DeleteUnit ──────────────────────

func (s *unitService) DeleteUnit(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Unit.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnitNotFound
		}
		return err
	}

	count, err := s.repo.Unit.CountMembers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUnitHasMembers
	}

	if err := s.repo.Unit.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete unit failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CreateStation ──────────────────────

func (s *unitService) CreateStation(ctx context.Context, req *dto.CreateStationRequest, callerID string) (*dto.StationResponse, error) {
	if _, err := s.repo.Unit.GetByID(ctx, req.UnitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if _, err := s.repo.Station.GetByName(ctx, req.UnitID, name); err == nil {
		return nil, ErrStationNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	station := &model.Station{
		UnitID:          req.UnitID,
		Name:            name,
		IsActive:        true,
		SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}},
	}
	if err := s.repo.Station.Create(ctx, station); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStationNameExists
		}
		s.logger.Error("create station failed", zap.Error(err))
		return nil, err
	}

	resp := toStationResponse(station)
	return &resp, nil
}

// ────────────────────── ListStations ──────────────────────

func (s *unitService) ListStations(ctx context.Context, unitID string) ([]dto.StationResponse, error) {
	if _, err := s.repo.Unit.GetByID(ctx, unitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	stations, err := s.repo.Station.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.StationResponse, 0, len(stations))
	for i := range stations {
		result = append(result, toStationResponse(&stations[i]))
	}
	return result, nil
}

// ────────────────────── UpdateStation ──────────────────────

func (s *unitService) UpdateStation(ctx context.Context, id string, req *dto.UpdateStationRequest, callerID string) (*dto.StationResponse, error) {
	station, err := s.repo.Station.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		existing, err := s.repo.Station.GetByName(ctx, station.UnitID, name)
		if err == nil && existing.StationID != id {
			return nil, ErrStationNameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		station.Name = name
	}
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}
	station.UpdatedBy = &callerID

	if err := s.repo.Station.Update(ctx, station); err != nil {
		s.logger.Error("update station failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toStationResponse(station)
	return &resp, nil
}

// ────────────────────── DeleteStation ──────────────────────

func (s *unitService) DeleteStation(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Station.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStationNotFound
		}
		return err
	}

	if err := s.repo.Station.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete station failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── internal helpers ──

func (s *unitService) toUnitResponse(unit *model.Unit, memberCount int64) *dto.UnitResponse {
	resp := &dto.UnitResponse{
		ID:          unit.UnitID,
		Name:        unit.Name,
		Description: unit.Description,
		IsActive:    unit.IsActive,
		MemberCount: memberCount,
		Version:     unit.Version,
		CreatedAt:   formatTimestamp(unit.CreatedAt),
		UpdatedAt:   formatTimestamp(unit.UpdatedAt),
	}
	for i := range unit.Stations {
		resp.Stations = append(resp.Stations, toStationResponse(&unit.Stations[i]))
	}
	return resp
}

func toStationResponse(st *model.Station) dto.StationResponse {
	return dto.StationResponse{
		ID:       st.StationID,
		UnitID:   st.UnitID,
		Name:     st.Name,
		IsActive: st.IsActive,
	}
}
