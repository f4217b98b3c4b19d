package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/form"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateModel is the relational row for a template. Fields are stored as
// JSONB next to the plain-text body.
type TemplateModel struct {
	ID          string                               `gorm:"primaryKey"`
	Name        string                               `gorm:"not null;index"`
	Description string                               `gorm:"type:text"`
	Category    string                               `gorm:"index"`
	Type        string                               `gorm:"not null;index"`
	Fields      datatypes.JSONType[[]form.FieldSpec] `gorm:"type:jsonb"`
	Body        string                               `gorm:"type:text;not null"`
	Active      bool                                 `gorm:"not null;index"`
	CreatedAt   time.Time                            `gorm:"not null"`
	UpdatedAt   time.Time                            `gorm:"not null;index"`
}

func (TemplateModel) TableName() string { return "document_templates" }

// GormRepo stores templates in Postgres through gorm.
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo migrates the templates table and returns the repository.
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&TemplateModel{}); err != nil {
		return nil, storeErr("migrate templates", err)
	}
	return &GormRepo{db: db}, nil
}

func (g *GormRepo) List(ctx context.Context, activeOnly bool) ([]doctemplate.Spec, error) {
	tx := g.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	return g.find(tx)
}

func (g *GormRepo) Get(ctx context.Context, id string) (*doctemplate.Spec, error) {
	var row TemplateModel
	if err := g.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctemplate.ErrNotFound
		}
		return nil, storeErr("get template", err)
	}
	s := templateFromModel(row)
	return &s, nil
}

func (g *GormRepo) ListByType(ctx context.Context, t doctemplate.Type, activeOnly bool) ([]doctemplate.Spec, error) {
	tx := g.db.WithContext(ctx).Where("type = ?", string(t)).Order("updated_at DESC").Order("id ASC")
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	return g.find(tx)
}

func (g *GormRepo) Upsert(ctx context.Context, s *doctemplate.Spec) error {
	now := time.Now().UTC()
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	row := templateToModel(*s)
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category", "type", "fields", "body", "active", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return storeErr("upsert template", err)
	}
	return nil
}

func (g *GormRepo) find(tx *gorm.DB) ([]doctemplate.Spec, error) {
	var rows []TemplateModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, storeErr("list templates", err)
	}
	out := make([]doctemplate.Spec, 0, len(rows))
	for _, r := range rows {
		out = append(out, templateFromModel(r))
	}
	return out, nil
}

func templateToModel(s doctemplate.Spec) TemplateModel {
	return TemplateModel{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Type:        string(s.Type),
		Fields:      datatypes.NewJSONType(s.Fields),
		Body:        s.Body,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func templateFromModel(m TemplateModel) doctemplate.Spec {
	return doctemplate.Spec{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Type:        doctemplate.Type(m.Type),
		Fields:      m.Fields.Data(),
		Body:        m.Body,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
