package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentModel is the relational row of a document; the value snapshot is
// kept as JSONB.
type DocumentModel struct {
	ID         string                                `gorm:"primaryKey"`
	OwnerID    string                                `gorm:"not null;index"`
	TemplateID *string                               `gorm:"index"`
	Title      string                                `gorm:"not null"`
	Content    string                                `gorm:"type:text;not null"`
	Data       datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	Status     string                                `gorm:"not null;index"`
	FileURL    *string                               `gorm:"type:text"`
	CreatedAt  time.Time                             `gorm:"not null;index"`
	UpdatedAt  time.Time                             `gorm:"not null"`
}

func (DocumentModel) TableName() string { return "documents" }

// GormRepo implements Repository on Postgres.
type GormRepo struct {
	db *gorm.DB
}

func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&DocumentModel{}); err != nil {
		return nil, storeErr("migrate documents", err)
	}
	return &GormRepo{db: db}, nil
}

func (g *GormRepo) Create(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	row := documentToModel(d)
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storeErr("insert document", err)
	}
	return nil
}

func (g *GormRepo) Get(ctx context.Context, ownerID, id string) (*document.Document, error) {
	var row DocumentModel
	if err := g.db.WithContext(ctx).First(&row, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, document.ErrNotFound
		}
		return nil, storeErr("get document", err)
	}
	return documentFromModel(row), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (g *GormRepo) List(ctx context.Context, ownerID string, f document.Filters) ([]*document.Document, error) {
	tx := g.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}
	if f.TemplateIDs != nil {
		if len(f.TemplateIDs) == 0 {
			return []*document.Document{}, nil
		}
		tx = tx.Where("template_id IN ?", f.TemplateIDs)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		tx = tx.Where("(title ILIKE ? OR content ILIKE ?)", pattern, pattern)
	}
	limit, offset := f.Page()
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []DocumentModel
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, storeErr("list documents", err)
	}
	out := make([]*document.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, documentFromModel(r))
	}
	return out, nil
}

func (g *GormRepo) Update(ctx context.Context, ownerID, id string, p document.Patch) (*document.Document, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Data != nil {
		updates["data"] = datatypes.NewJSONType(p.Data.Raw())
	}
	if p.Content != nil {
		updates["content"] = *p.Content
	}
	if p.Status != nil {
		updates["status"] = string(*p.Status)
	}
	if p.FileURL != nil {
		updates["file_url"] = *p.FileURL
	}
	res := g.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if res.Error != nil {
		return nil, storeErr("update document", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, document.ErrNotFound
	}
	return g.Get(ctx, ownerID, id)
}

func (g *GormRepo) Delete(ctx context.Context, ownerID, id string) error {
	res := g.db.WithContext(ctx).Delete(&DocumentModel{}, "id = ? AND owner_id = ?", id, ownerID)
	if res.Error != nil {
		return storeErr("delete document", res.Error)
	}
	if res.RowsAffected == 0 {
		return document.ErrNotFound
	}
	return nil
}

func (g *GormRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res := g.db.WithContext(ctx).Delete(&DocumentModel{}, "owner_id = ?", ownerID)
	if res.Error != nil {
		return 0, storeErr("delete owner documents", res.Error)
	}
	return res.RowsAffected, nil
}

func documentToModel(d *document.Document) DocumentModel {
	return DocumentModel{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		TemplateID: d.TemplateID,
		Title:      d.Title,
		Content:    d.Content,
		Data:       datatypes.NewJSONType(d.Data.Raw()),
		Status:     string(d.Status),
		FileURL:    d.FileURL,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func documentFromModel(m DocumentModel) *document.Document {
	return &document.Document{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		TemplateID: m.TemplateID,
		Title:      m.Title,
		Content:    m.Content,
		Data:       form.Parse(nil, m.Data.Data()),
		Status:     document.Status(m.Status),
		FileURL:    m.FileURL,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
