package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
)

// ── user errors ──

var (
	ErrUserSelfRoleChange  = errors.New("no puedes cambiar tu propio rol")
	ErrUserSelfDelete      = errors.New("no puedes eliminar tu propia cuenta")
	ErrNoPermission        = errors.New("no tienes permiso para esta operación")
	ErrStationUnitMismatch = errors.New("la caseta no pertenece a la unidad indicada")
)

// UserService account administration
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, caller Caller, id string) (*dto.UserDetailResponse, error)
	List(ctx context.Context, caller Caller, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow one parsed spreadsheet row
type ImportUserRow struct {
	Row         int
	Name        string
	Email       string
	Role        string
	UnitName    string
	StationName string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService builds a UserService
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	unitID, stationID, err := s.resolveAssignment(ctx, req.UnitID, req.StationID)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       string(hash),
		Role:               role,
		UnitID:             unitID,
		StationID:          stationID,
		MustChangePassword: true,
		VersionedModel:     model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	return &dto.CreateUserResponse{
		User:         toUserResponse(created),
		TempPassword: tempPassword,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, caller Caller, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !caller.CanAccessUser(user) {
		return nil, ErrNoPermission
	}

	return &dto.UserDetailResponse{
		UserResponse: toUserResponse(user),
		CreatedAt:    formatTimestamp(user.CreatedAt),
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, caller Caller, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:      req.Role,
		UnitID:    req.UnitID,
		StationID: req.StationID,
		Keyword:   req.Keyword,
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleJR:
		// jr only ever sees their own unit
		if caller.UnitID == "" {
			return []dto.UserResponse{}, 0, nil
		}
		filter.UnitID = caller.UnitID
	default:
		return nil, 0, ErrNoPermission
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}

	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// stale form
	user.Version = req.Version

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		existing, err := s.repo.User.GetByEmail(ctx, email)
		if err == nil && existing.UserID != id {
			return nil, ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = email
	}
	if req.UnitID != nil || req.StationID != nil {
		unitRef := req.UnitID
		if unitRef == nil {
			unitRef = user.UnitID
		}
		stationRef := req.StationID
		if stationRef == nil && deref(unitRef) == user.UnitRef() {
			stationRef = user.StationID
		}
		unitID, stationID, err := s.resolveAssignment(ctx, unitRef, stationRef)
		if err != nil {
			return nil, err
		}
		user.UnitID = unitID
		user.StationID = stationID
	}

	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("update user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(updated)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete user failed", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfRoleChange
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	user.Role = role
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("assign role failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("role assigned", zap.String("user_id", id), zap.String("role", string(role)), zap.String("by", callerID))

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("reset password failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrInvalidRole       = errors.New("rol no válido")
	ErrImportNoData      = errors.New("el fichero no contiene filas de datos (la primera fila es la cabecera)")
	ErrImportTooManyRows = fmt.Errorf("el fichero supera el máximo de %d filas", maxImportRows)
	ErrImportBadHeader   = errors.New("faltan columnas obligatorias en la cabecera (Nombre/Email)")
)

// ParseImportFile reads the first sheet of an xlsx upload
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el fichero Excel: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer la hoja: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// header columns may come in any order
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:         i + 1,
			Name:        cell(row, "name"),
			Email:       cell(row, "email"),
			Role:        cell(row, "role"),
			UnitName:    cell(row, "unit"),
			StationName: cell(row, "station"),
		}

		if item.Name == "" && item.Email == "" && item.Role == "" && item.UnitName == "" && item.StationName == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex maps header labels to column indexes
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":    -1,
		"email":   -1,
		"role":    -1,
		"unit":    -1,
		"station": -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "nombre", "name":
			idx["name"] = i
		case "email", "correo":
			idx["email"] = i
		case "rol", "role":
			idx["role"] = i
		case "unidad", "unit":
			idx["unit"] = i
		case "caseta", "station":
			idx["station"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	units, err := s.repo.Unit.List(ctx, false)
	if err != nil {
		s.logger.Error("load units failed", zap.Error(err))
		return nil, err
	}
	unitMap := make(map[string]*model.Unit, len(units))
	for i := range units {
		unitMap[strings.ToLower(units[i].Name)] = &units[i]
	}
	stationCache := make(map[string]map[string]*model.Station)

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// phase 1: validate every row without writing
	type validatedRow struct {
		row      ImportUserRow
		user     model.User
		password string
	}
	var validRows []validatedRow
	seen := make(map[string]int)

	for _, row := range rows {
		if row.Name == "" || row.Email == "" {
			fail(row.Row, "faltan campos obligatorios (Nombre, Email)")
			continue
		}

		email := normalizeEmail(row.Email)
		if first, dup := seen[email]; dup {
			fail(row.Row, fmt.Sprintf("email repetido en la fila %d: %s", first, email))
			continue
		}

		role := model.RoleBF
		if row.Role != "" {
			r, err := model.ParseRole(strings.ToLower(row.Role))
			if err != nil {
				fail(row.Row, fmt.Sprintf("rol no válido: %s", row.Role))
				continue
			}
			role = r
		}

		var unitID, stationID *string
		if row.UnitName != "" {
			unit, ok := unitMap[strings.ToLower(row.UnitName)]
			if !ok {
				fail(row.Row, fmt.Sprintf("unidad no encontrada: %s", row.UnitName))
				continue
			}
			unitID = &unit.UnitID

			if row.StationName != "" {
				stations, err := s.stationsOf(ctx, unit.UnitID, stationCache)
				if err != nil {
					return nil, err
				}
				st, ok := stations[strings.ToLower(row.StationName)]
				if !ok {
					fail(row.Row, fmt.Sprintf("caseta no encontrada en %s: %s", unit.Name, row.StationName))
					continue
				}
				stationID = &st.StationID
			}
		} else if row.StationName != "" {
			fail(row.Row, "la caseta requiere indicar la unidad")
			continue
		}

		if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
			fail(row.Row, fmt.Sprintf("el email ya existe: %s", email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		password, err := generateTempPassword(10)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "no se pudo generar la contraseña")
			continue
		}

		seen[email] = row.Row
		validRows = append(validRows, validatedRow{
			row: row,
			user: model.User{
				Name:               row.Name,
				Email:              email,
				PasswordHash:       string(hash),
				Role:               role,
				UnitID:             unitID,
				StationID:          stationID,
				MustChangePassword: true,
				VersionedModel:     model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
			},
			password: password,
		})
	}

	// phase 2: create every valid row in one transaction
	if len(validRows) > 0 {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for i := range validRows {
				vr := &validRows[i]
				if err := tx.User.Create(ctx, &vr.user); err != nil {
					s.logger.Error("import write failed, rolling back",
						zap.Int("row", vr.row.Row), zap.Error(err))
					return fmt.Errorf("fila %d: no se pudo guardar, se ha deshecho toda la importación: %w", vr.row.Row, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, vr := range validRows {
			resp.Success++
			resp.Created = append(resp.Created, dto.CreatedUser{Email: vr.user.Email, TempPassword: vr.password})
		}
	}

	s.logger.Info("user import finished",
		zap.Int("total", resp.Total), zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))

	return resp, nil
}

// ── internal helpers ──

// resolveAssignment checks the unit and station exist and agree. A station without
// a unit implies the station's unit.
func (s *userService) resolveAssignment(ctx context.Context, unitID, stationID *string) (*string, *string, error) {
	if unitID != nil && *unitID == "" {
		unitID = nil
	}
	if stationID != nil && *stationID == "" {
		stationID = nil
	}

	if stationID != nil {
		st, err := s.repo.Station.GetByID(ctx, *stationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrStationNotFound
			}
			return nil, nil, err
		}
		if unitID == nil {
			unitID = &st.UnitID
		} else if *unitID != st.UnitID {
			return nil, nil, ErrStationUnitMismatch
		}
	}

	if unitID != nil {
		if _, err := s.repo.Unit.GetByID(ctx, *unitID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrUnitNotFound
			}
			return nil, nil, err
		}
	}

	return unitID, stationID, nil
}

func (s *userService) stationsOf(ctx context.Context, unitID string, cache map[string]map[string]*model.Station) (map[string]*model.Station, error) {
	if m, ok := cache[unitID]; ok {
		return m, nil
	}
	stations, err := s.repo.Station.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Station, len(stations))
	for i := range stations {
		m[strings.ToLower(stations[i].Name)] = &stations[i]
	}
	cache[unitID] = m
	return m, nil
}

// generateTempPassword random password with at least one letter and one digit
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 6 {
		length = 10
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
