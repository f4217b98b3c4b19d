package users

import (
	"context"
	"errors"
	"time"

	"github.com/docuforge/docuforge/internal/models"
	"gorm.io/gorm"
)

// UserModel is the relational row of a user.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;size:320;not null"`
	FullName     string    `gorm:"size:200"`
	CompanyName  string    `gorm:"size:200"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// GormRepository implements Repository on Postgres.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&UserModel{}); err != nil {
		return nil, storeErr("migrate users", err)
	}
	return &GormRepository{db: db}, nil
}

func (g *GormRepository) Create(ctx context.Context, u *models.User) error {
	row := UserModel(*u)
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return storeErr("insert user", err)
	}
	return nil
}

func (g *GormRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var row UserModel
	if err := g.db.WithContext(ctx).First(&row, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get user", err)
	}
	u := models.User(row)
	return &u, nil
}

func (g *GormRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return g.first(ctx, "id = ?", id)
}

func (g *GormRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return g.first(ctx, "email = ?", email)
}

func (g *GormRepository) UpdateProfile(ctx context.Context, id string, p Profile) (*models.User, error) {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.FullName != nil {
		updates["full_name"] = *p.FullName
	}
	if p.CompanyName != nil {
		updates["company_name"] = *p.CompanyName
	}
	res := g.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, storeErr("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return g.Get(ctx, id)
}

func (g *GormRepository) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id)
	if res.Error != nil {
		return storeErr("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
