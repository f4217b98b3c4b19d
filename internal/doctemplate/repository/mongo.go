package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores templates in a MongoDB collection keyed by template id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "type", Value: 1}, {Key: "isActive", Value: 1}, {Key: "updatedAt", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, storeErr("create template index", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) List(ctx context.Context, activeOnly bool) ([]doctemplate.Spec, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*doctemplate.Spec, error) {
	var s doctemplate.Spec
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, doctemplate.ErrNotFound
		}
		return nil, storeErr("get template", err)
	}
	return &s, nil
}

func (m *MongoRepo) ListByType(ctx context.Context, t doctemplate.Type, activeOnly bool) ([]doctemplate.Spec, error) {
	filter := bson.M{"type": t}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}})
	return m.find(ctx, filter, opts)
}

func (m *MongoRepo) Upsert(ctx context.Context, s *doctemplate.Spec) error {
	now := time.Now().UTC()
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	set := bson.M{
		"name":        s.Name,
		"description": s.Description,
		"category":    s.Category,
		"type":        s.Type,
		"fields":      s.Fields,
		"template":    s.Body,
		"isActive":    s.Active,
		"updatedAt":   s.UpdatedAt,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": s.CreatedAt}}
	if _, err := m.col.UpdateOne(ctx, bson.M{"_id": s.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return storeErr("upsert template", err)
	}
	return nil
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]doctemplate.Spec, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("list templates", err)
	}
	defer cur.Close(ctx)
	out := []doctemplate.Spec{}
	for cur.Next(ctx) {
		var s doctemplate.Spec
		if err := cur.Decode(&s); err != nil {
			return nil, storeErr("decode template", err)
		}
		out = append(out, s)
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("list templates", err)
	}
	return out, nil
}
