package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/types"
)

// MongoStorage writes articles to a MongoDB collection, one document per
// article tagged with its run and country.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	runID      string
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(uri, database, collection, runID string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		runID:      runID,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(result.Articles) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, len(result.Articles))
	for i, a := range result.Articles {
		docs[i] = map[string]any{
			"run_id":    s.runID,
			"country":   result.Country,
			"cutoff":    result.Cutoff,
			"source":    a.Source,
			"title":     a.Title,
			"url":       a.URL,
			"published": a.Published,
			"full_text": a.FullText,
			"stored_at": now,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count += len(docs)
	s.logger.Debug("articles stored in mongodb", "country", result.Country, "count", len(docs), "total", s.count)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_articles", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- SQLite ---

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL,
	country   TEXT NOT NULL,
	cutoff    TEXT NOT NULL,
	source    TEXT NOT NULL,
	title     TEXT NOT NULL,
	url       TEXT NOT NULL,
	published TEXT,
	full_text TEXT,
	stored_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_run_country ON articles (run_id, country);`

// SQLiteStorage writes articles to an embedded SQLite database, one row
// per article. The driver is pure Go, so no cgo toolchain is needed.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	runID  string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the SQLite database and
// ensures the articles schema exists.
func NewSQLiteStorage(path, runID string, logger *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		path:   path,
		runID:  runID,
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) SaveCountry(result *engine.CountryResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	stmt, err := tx.Prepare(`INSERT INTO articles
		(run_id, country, cutoff, source, title, url, published, full_text, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, a := range result.Articles {
		if _, err := stmt.Exec(s.runID, result.Country, result.Cutoff, a.Source, a.Title, a.URL, a.Published, a.FullText, now); err != nil {
			tx.Rollback()
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count += len(result.Articles)
	s.logger.Debug("articles stored in sqlite", "country", result.Country, "count", len(result.Articles), "total", s.count)
	return nil
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "path", s.path, "total_articles", s.count)
	return s.db.Close()
}
