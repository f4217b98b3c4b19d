package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument is the stored shape: the raw value snapshot replaces the
// typed map.
type mongoDocument struct {
	document.Document `bson:",inline"`
	Data              map[string]string `bson:"data"`
}

func (md mongoDocument) toDocument() *document.Document {
	d := md.Document
	d.Data = form.Parse(nil, md.Data)
	return &d
}

// MongoRepo implements Repository on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, storeErr("create document indexes", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Create(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	if _, err := m.col.InsertOne(ctx, mongoDocument{Document: *d, Data: d.Data.Raw()}); err != nil {
		return storeErr("insert document", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, ownerID, id string) (*document.Document, error) {
	var md mongoDocument
	err := m.col.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&md)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrNotFound
		}
		return nil, storeErr("get document", err)
	}
	return md.toDocument(), nil
}

func (m *MongoRepo) List(ctx context.Context, ownerID string, f document.Filters) ([]*document.Document, error) {
	filter := bson.M{"ownerId": ownerID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.TemplateIDs != nil {
		filter["templateId"] = bson.M{"$in": f.TemplateIDs}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"title": re}, bson.M{"content": re}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	limit, offset := f.Page()
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("list documents", err)
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var md mongoDocument
		if err := cur.Decode(&md); err != nil {
			return nil, storeErr("decode document", err)
		}
		out = append(out, md.toDocument())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("list documents", err)
	}
	return out, nil
}

func (m *MongoRepo) Update(ctx context.Context, ownerID, id string, p document.Patch) (*document.Document, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Data != nil {
		set["data"] = p.Data.Raw()
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.FileURL != nil {
		set["fileUrl"] = *p.FileURL
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var md mongoDocument
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "ownerId": ownerID}, bson.M{"$set": set}, opts).Decode(&md)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrNotFound
		}
		return nil, storeErr("update document", err)
	}
	return md.toDocument(), nil
}

func (m *MongoRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return storeErr("delete document", err)
	}
	if res.DeletedCount == 0 {
		return document.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, storeErr("delete owner documents", err)
	}
	return res.DeletedCount, nil
}
