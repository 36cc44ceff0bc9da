package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

// UserFilter list filters; zero values are ignored
type UserFilter struct {
	Role      string
	UnitID    string
	StationID string
	Keyword   string
}

// UserRepository user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	BatchCreate(ctx context.Context, users []model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// LockByID reads the row with SELECT ... FOR UPDATE; only meaningful inside a transaction
	LockByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.User, error)
	ListByStation(ctx context.Context, stationID string) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo builds a UserRepository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) BatchCreate(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&users, 100).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Preload("Station").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) LockByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"name":                 user.Name,
			"email":                user.Email,
			"password_hash":        user.PasswordHash,
			"role":                 user.Role,
			"unit_id":              user.UnitID,
			"station_id":           user.StationID,
			"must_change_password": user.MustChangePassword,
			"updated_by":           user.UpdatedBy,
			"updated_at":           gorm.Expr("NOW()"),
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.UnitID != "" {
		db = db.Where("unit_id = ?", filter.UnitID)
	}
	if filter.StationID != "" {
		db = db.Where("station_id = ?", filter.StationID)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		db = db.Where("(name ILIKE ? OR email ILIKE ?)", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Unit").Preload("Station").
		Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListByUnit(ctx context.Context, unitID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Station").
		Where("unit_id = ?", unitID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByStation(ctx context.Context, stationID string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
