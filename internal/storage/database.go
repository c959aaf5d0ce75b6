package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// mongoArticle is the document shape stored in MongoDB. The numeric id is
// kept as _id so API ids stay integers across backends.
type mongoArticle struct {
	ID           int64     `bson:"_id"`
	Title        string    `bson:"title"`
	Content      string    `bson:"content"`
	URL          string    `bson:"url"`
	OriginalDate time.Time `bson:"original_date"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (m mongoArticle) article() types.Article {
	return types.Article{
		ID:           m.ID,
		Title:        m.Title,
		Content:      m.Content,
		URL:          m.URL,
		OriginalDate: m.OriginalDate.UTC(),
		Status:       types.Status(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// MongoStorage keeps articles in a MongoDB collection.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
	counterKey string
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: err}
	}

	db := client.Database(database)
	return &MongoStorage{
		client:     client,
		collection: db.Collection(collection),
		counters:   db.Collection("counters"),
		counterKey: collection,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) List(ctx context.Context) ([]types.Article, error) {
	cur, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, s.wrap("list", err)
	}
	defer cur.Close(ctx)

	var docs []mongoArticle
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.wrap("list", err)
	}

	out := make([]types.Article, len(docs))
	for i, d := range docs {
		out[i] = d.article()
	}
	return out, nil
}

func (s *MongoStorage) Get(ctx context.Context, id int64) (*types.Article, error) {
	var doc mongoArticle
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.wrap("get", fmt.Errorf("%w: id %d", types.ErrNotFound, id))
	}
	if err != nil {
		return nil, s.wrap("get", err)
	}
	a := doc.article()
	return &a, nil
}

func (s *MongoStorage) Create(ctx context.Context, in types.NewArticle) (*types.Article, error) {
	if err := in.Validate(); err != nil {
		return nil, s.wrap("create", err)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, s.wrap("create", err)
	}

	a := newRecord(in, time.Now().UTC())
	a.ID = id

	doc := mongoArticle{
		ID:           a.ID,
		Title:        a.Title,
		Content:      a.Content,
		URL:          a.URL,
		OriginalDate: a.OriginalDate,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, s.wrap("create", err)
	}

	s.logger.Debug("article stored in mongodb", "id", id)
	return &a, nil
}

// Update applies the patch with a status guard in the filter, so a
// concurrent status change between read and write is not overwritten.
func (s *MongoStorage) Update(ctx context.Context, id int64, patch types.ArticlePatch) (*types.Article, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := patch.Apply(*current)
	if err != nil {
		return nil, s.wrap("update", err)
	}
	next.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": id, "status": string(current.Status)}
	update := bson.M{"$set": bson.M{
		"title":         next.Title,
		"content":       next.Content,
		"url":           next.URL,
		"original_date": next.OriginalDate.UTC(),
		"status":        string(next.Status),
		"updated_at":    next.UpdatedAt,
	}}

	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, s.wrap("update", err)
	}
	if res.MatchedCount == 0 {
		return nil, s.wrap("update", fmt.Errorf("%w: article %d changed concurrently", types.ErrInvalidTransition, id))
	}
	return &next, nil
}

func (s *MongoStorage) Delete(ctx context.Context, id int64) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return s.wrap("delete", err)
	}
	if res.DeletedCount == 0 {
		return s.wrap("delete", fmt.Errorf("%w: id %d", types.ErrNotFound, id))
	}
	return nil
}

func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// nextID increments the per-collection sequence in the counters collection.
func (s *MongoStorage) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.counterKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStorage) wrap(op string, err error) error {
	return &types.StorageError{Backend: "mongodb", Op: op, Err: err}
}
