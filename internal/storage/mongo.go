package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoDB archives records as documents, next to the NOTAM collections
// maintained by AIS loaders.
type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// mongoRecord is the stored document shape.
type mongoRecord struct {
	ID       string    `bson:"_id"`
	Source   string    `bson:"source"`
	NotamID  string    `bson:"notam_id,omitempty"`
	RawText  string    `bson:"raw_text"`
	ParsedAt time.Time `bson:"parsed_at"`
	Circles  int       `bson:"circles"`
	Polygons int       `bson:"polygons"`
	Skipped  int       `bson:"skipped"`
	Geohash  string    `bson:"geohash,omitempty"`
	Result   string    `bson:"result"`
}

// OpenMongo connects to MongoDB and pings the primary.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(10*time.Second).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoDB{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (d *MongoDB) Backend() string { return "mongo" }

// Close disconnects the client.
func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// Save inserts a record.
func (d *MongoDB) Save(ctx context.Context, r *Record) error {
	doc := mongoRecord{
		ID:       r.ID.String(),
		Source:   r.Source,
		NotamID:  r.NotamID,
		RawText:  r.RawText,
		ParsedAt: r.ParsedAt.UTC(),
		Circles:  r.Circles,
		Polygons: r.Polygons,
		Skipped:  r.Skipped,
		Geohash:  r.Geohash,
		Result:   string(r.Result),
	}
	if _, err := d.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (d *MongoDB) Recent(ctx context.Context, limit int) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "parsed_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := d.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []mongoRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	records := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("parse record id: %w", err)
		}
		records = append(records, &Record{
			ID:       id,
			Source:   doc.Source,
			NotamID:  doc.NotamID,
			RawText:  doc.RawText,
			ParsedAt: doc.ParsedAt.UTC(),
			Circles:  doc.Circles,
			Polygons: doc.Polygons,
			Skipped:  doc.Skipped,
			Geohash:  doc.Geohash,
			Result:   []byte(doc.Result),
		})
	}

	return records, nil
}
