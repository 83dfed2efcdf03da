package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
)

// ReportArchive stores end-of-day summaries.
type ReportArchive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// blobDocument is one persisted ledger blob.
type blobDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// MongoDBRepository persists the ledger blobs and archives daily reports.
type MongoDBRepository struct {
	client      *mongo.Client
	dbName      string
	blobColl    string
	reportsColl string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:      client,
		dbName:      dbName,
		blobColl:    "ledger_blobs",
		reportsColl: "daily_reports",
	}, nil
}

// Get implements kv.Backend.
func (r *MongoDBRepository) Get(ctx context.Context, key string) ([]byte, error) {
	collection := r.client.Database(r.dbName).Collection(r.blobColl)

	var doc blobDocument
	err := collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load blob %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

// Put implements kv.Backend; the whole document is replaced.
func (r *MongoDBRepository) Put(ctx context.Context, key string, value []byte) error {
	collection := r.client.Database(r.dbName).Collection(r.blobColl)

	doc := blobDocument{Key: key, Value: string(value)}
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

// SaveDailyReport upserts the summary for the report's date.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	collection := r.client.Database(r.dbName).Collection(r.reportsColl)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": report.Date}, report, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert daily report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
