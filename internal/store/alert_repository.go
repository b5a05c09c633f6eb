package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

const alertCollection = "emergencies"

// AlertRepo implements domain.AlertStore backed by MongoDB. Both queries
// are bounded and sorted most-recent-first; the engine only ever reads a
// small connect-time window.
type AlertRepo struct {
	collection *mongo.Collection
}

func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{collection: db.database.Collection(alertCollection)}
}

type alertDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Type      string             `bson:"type"`
	Title     string             `bson:"title"`
	Priority  string             `bson:"priority"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (r *AlertRepo) ActiveAlerts(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	filter := bson.M{"status": bson.M{"$in": bson.A{"active", "responded"}}}
	return r.find(ctx, filter, limit)
}

func (r *AlertRepo) CriticalAlerts(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	filter := bson.M{
		"priority": string(domain.PriorityCritical),
		"status":   bson.M{"$ne": "resolved"},
	}
	return r.find(ctx, filter, limit)
}

func (r *AlertRepo) find(ctx context.Context, filter bson.M, limit int) ([]domain.AlertRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("alert query failed: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []alertDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("alert decode failed: %w", err)
	}

	records := make([]domain.AlertRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, domain.AlertRecord{
			ID:        doc.ID.Hex(),
			Type:      doc.Type,
			Title:     doc.Title,
			Priority:  domain.Priority(doc.Priority),
			Status:    doc.Status,
			CreatedAt: doc.CreatedAt,
		})
	}
	return records, nil
}
