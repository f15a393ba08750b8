package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/models"
)

type MongoDB struct {
	client    *mongo.Client
	database  *mongo.Database
	downloads *mongo.Collection
}

func NewMongoDB(cfg *config.MongoConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)

	mongodb := &MongoDB{
		client:    client,
		database:  db,
		downloads: db.Collection("downloads"),
	}

	if err := mongodb.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongodb, nil
}

func (m *MongoDB) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "content_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "url", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "platform", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "downloaded_at", Value: -1}},
		},
	}

	if _, err := m.downloads.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create downloads indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) Save(ctx context.Context, rec *models.DownloadRecord) error {
	filter := bson.D{{Key: "content_id", Value: rec.ContentID}}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.downloads.ReplaceOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("failed to save download record: %w", err)
	}
	return nil
}

func (m *MongoDB) GetByContentID(ctx context.Context, contentID string) (*models.DownloadRecord, error) {
	var rec models.DownloadRecord
	err := m.downloads.FindOne(ctx, bson.D{{Key: "content_id", Value: contentID}}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load download record: %w", err)
	}
	return &rec, nil
}

func (m *MongoDB) List(ctx context.Context, opts models.PaginationOptions) ([]models.DownloadRecord, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	total, err := m.downloads.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count download records: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "downloaded_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := m.downloads.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list download records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.DownloadRecord, 0, limit)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode download records: %w", err)
	}
	return records, int(total), nil
}

func (m *MongoDB) Delete(ctx context.Context, contentID string) error {
	res, err := m.downloads.DeleteOne(ctx, bson.D{{Key: "content_id", Value: contentID}})
	if err != nil {
		return fmt.Errorf("failed to delete download record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
