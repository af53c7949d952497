package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/safescanx/safescanx/internal/domain/scans"
)

const collection = "scans"

// Connect opens a client and verifies the deployment is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx2, nil); err != nil {
		return nil, err
	}
	return cli, nil
}

type ScanRepository struct {
	col *mongo.Collection
}

func NewScanRepository(cli *mongo.Client, dbName string) *ScanRepository {
	return &ScanRepository{col: cli.Database(dbName).Collection(collection)}
}

// Save appends one document; records are create-once so plain InsertOne.
func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return &domain.StoreError{Op: "mongo insert", Err: err}
	}
	return nil
}

func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord
	err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "mongo find", Err: err}
	}
	return &rec, nil
}

func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scannedAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &domain.StoreError{Op: "mongo find", Err: err}
	}
	defer cur.Close(ctx)

	var out []*domain.ScanRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, &domain.StoreError{Op: "mongo decode", Err: err}
	}
	return out, nil
}
