// Copyright 2025 Easy Patent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mongo provides a MongoDB-backed patent repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/storage"
)

const (
	// DefaultURI is the connection string used when none is configured.
	DefaultURI = "mongodb://localhost:27017/"

	// DefaultDatabase is the database name used when none is configured.
	DefaultDatabase = "patent_db"

	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "patents"

	// DefaultTimeout bounds connection and per-operation round trips.
	DefaultTimeout = 10 * time.Second
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// DefaultConfig returns a config pointing at a local MongoDB instance.
func DefaultConfig() Config {
	return Config{
		URI:        DefaultURI,
		Database:   DefaultDatabase,
		Collection: DefaultCollection,
		Timeout:    DefaultTimeout,
	}
}

// normalize fills zero-valued fields with defaults.
func (c Config) normalize() Config {
	defaults := DefaultConfig()
	if c.URI == "" {
		c.URI = defaults.URI
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.Collection == "" {
		c.Collection = defaults.Collection
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// patentDoc is the BSON shape of a stored patent record.
type patentDoc struct {
	PatentNumber string    `bson:"patentNumber"`
	Abstract     string    `bson:"abstract"`
	Keyword      string    `bson:"keyword"`
	FetchedAt    time.Time `bson:"fetchedAt"`
	InsertedAt   time.Time `bson:"insertedAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func docFromRecord(record *core.PatentRecord) patentDoc {
	return patentDoc{
		PatentNumber: record.PatentNumber,
		Abstract:     record.Abstract,
		Keyword:      record.Keyword,
		FetchedAt:    record.FetchedAt,
		InsertedAt:   record.InsertedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func (d patentDoc) toRecord() *core.PatentRecord {
	return &core.PatentRecord{
		PatentNumber: d.PatentNumber,
		Abstract:     d.Abstract,
		Keyword:      d.Keyword,
		FetchedAt:    d.FetchedAt,
		InsertedAt:   d.InsertedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// PatentRepository implements storage.PatentRepository for MongoDB.
type PatentRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *slog.Logger
}

var _ storage.PatentRepository = (*PatentRepository)(nil)

// NewPatentRepository connects to MongoDB, verifies the connection and
// ensures a unique index on the patent number.
func NewPatentRepository(ctx context.Context, config Config) (storage.PatentRepository, error) {
	config = config.normalize()

	connectCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "patentNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(connectCtx, indexModel); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating patent number index: %w", err)
	}

	return &PatentRepository{
		client:     client,
		collection: collection,
		timeout:    config.Timeout,
		logger:     slog.Default(),
	}, nil
}

// UpsertPatents inserts or replaces records keyed by patent number.
// The original InsertedAt survives a replace; UpdatedAt always moves.
func (r *PatentRepository) UpsertPatents(ctx context.Context, records ...*core.PatentRecord) error {
	now := time.Now().UTC()

	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}

		opCtx, cancel := context.WithTimeout(ctx, r.timeout)

		filter := bson.M{"patentNumber": record.PatentNumber}

		var existing patentDoc
		err := r.collection.FindOne(opCtx, filter).Decode(&existing)
		switch {
		case err == nil:
			record.InsertedAt = existing.InsertedAt
		case errors.Is(err, mongo.ErrNoDocuments):
			record.InsertedAt = now
		default:
			cancel()
			return fmt.Errorf("%w: %v", storage.ErrWriteFailed, err)
		}
		record.UpdatedAt = now

		_, err = r.collection.ReplaceOne(opCtx, filter, docFromRecord(record),
			options.Replace().SetUpsert(true))
		cancel()
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, record.PatentNumber)
			}
			return fmt.Errorf("%w: %v", storage.ErrWriteFailed, err)
		}
	}
	return nil
}

// GetPatent retrieves a single record by patent number.
func (r *PatentRepository) GetPatent(ctx context.Context, patentNumber string) (*core.PatentRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc patentDoc
	err := r.collection.FindOne(opCtx, bson.M{"patentNumber": patentNumber}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

// GetAllPatents retrieves every stored record. Order is unspecified.
func (r *PatentRepository) GetAllPatents(ctx context.Context) ([]*core.PatentRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(opCtx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(opCtx)

	var records []*core.PatentRecord
	for cursor.Next(opCtx) {
		var doc patentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, doc.toRecord())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// CountPatents returns the number of stored records.
func (r *PatentRepository) CountPatents(ctx context.Context) (int, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.collection.CountDocuments(opCtx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Close disconnects from MongoDB.
func (r *PatentRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}
