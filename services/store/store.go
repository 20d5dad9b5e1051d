// Package store is the shared document backend for the household collections.
// It keeps the contract the rest of the app is written against: named
// collections of JSON documents supporting add, field-level merge update,
// delete and ordered listing, plus live subscriptions that deliver the full
// collection snapshot after every committed change. Mirrors never patch state
// incrementally; the snapshot feed is the single source of truth.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sourcegraph/conc"
)

// Collection names used by the application.
const (
	CollectionWatchItems = "watch_items"
	CollectionPlans      = "plans"
	CollectionGoals      = "goals"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrCollectionRequired = errors.New("collection name is required")
	ErrClosed             = errors.New("store is closed")
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Document is one stored entry of a collection. Body is the JSON document as
// written by the owning service.
type Document struct {
	ID        string          `json:"id"`
	Body      json.RawMessage `json:"body"`
	SortKey   float64         `json:"sortKey"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot is the complete contents of one collection at a point in time,
// ordered by sort key then creation time.
type Snapshot struct {
	Collection string     `json:"collection"`
	Docs       []Document `json:"docs"`
}

type subscriber struct {
	id int
	ch chan Snapshot
}

// Store persists collections in sqlite and fans committed snapshots out to
// live subscribers in commit order.
type Store struct {
	db *sql.DB

	// writeMu serialises mutations so snapshot notifications are delivered
	// in the order changes were committed.
	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string][]subscriber
	nextID int
	closed bool
}

// Open opens (creating if necessary) the document database at path and runs
// pending migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path not provided")
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:   db,
		subs: make(map[string][]subscriber),
	}, nil
}

// Close tears down all subscriptions and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, subs := range s.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	s.subs = make(map[string][]subscriber)
	s.mu.Unlock()

	return s.db.Close()
}

// Add inserts a new document with a server-assigned id and timestamps, then
// notifies subscribers with the resulting snapshot. The assigned id is also
// stamped into the body's top-level "id" field so snapshots carry it.
func (s *Store) Add(ctx context.Context, collection string, body any, sortKey float64) (Document, error) {
	if strings.TrimSpace(collection) == "" {
		return Document{}, ErrCollectionRequired
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, fmt.Errorf("document body must be a JSON object: %w", err)
	}
	fields["id"] = id
	if raw, err = json.Marshal(fields); err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}

	doc := Document{
		ID:        id,
		Body:      raw,
		SortKey:   sortKey,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, sort_key, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		collection, doc.ID, string(doc.Body), doc.SortKey, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}

	s.notify(ctx, collection)
	return doc, nil
}

// Update merges the provided fields into the stored document body. Fields not
// present in patch are left exactly as stored; an absent field is never a
// tombstone. Top-level keys whose patch value is JSON null clear the field.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) (Document, error) {
	if strings.TrimSpace(collection) == "" {
		return Document{}, ErrCollectionRequired
	}
	if len(patch) == 0 {
		return s.Get(ctx, collection, id)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.getLocked(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}

	var body map[string]any
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		return Document{}, fmt.Errorf("decode stored document: %w", err)
	}
	for key, value := range patch {
		body[key] = value
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("encode merged document: %w", err)
	}

	doc.Body = raw
	doc.UpdatedAt = time.Now().UTC()
	if v, ok := patch["sortKey"]; ok {
		if f, ok := toFloat(v); ok {
			doc.SortKey = f
		}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, sort_key = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(doc.Body), doc.SortKey, doc.UpdatedAt, collection, id)
	if err != nil {
		return Document{}, fmt.Errorf("update document: %w", err)
	}

	s.notify(ctx, collection)
	return doc, nil
}

// Delete removes a document and notifies subscribers.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if strings.TrimSpace(collection) == "" {
		return ErrCollectionRequired
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection)
	return nil
}

// Get returns a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	if strings.TrimSpace(collection) == "" {
		return Document{}, ErrCollectionRequired
	}
	return s.getLocked(ctx, collection, id)
}

func (s *Store) getLocked(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, body, sort_key, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	var doc Document
	var body string
	if err := row.Scan(&doc.ID, &body, &doc.SortKey, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	doc.Body = json.RawMessage(body)
	return doc, nil
}

// List returns the full collection ordered by sort key, then creation time.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, ErrCollectionRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body, sort_key, created_at, updated_at FROM documents WHERE collection = ? ORDER BY sort_key, created_at, id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var doc Document
		var body string
		if err := rows.Scan(&doc.ID, &body, &doc.SortKey, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Body = json.RawMessage(body)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Subscribe opens a live snapshot feed for one collection. The current
// snapshot is delivered immediately; every committed change delivers a fresh
// full snapshot. Slow consumers only ever lose intermediate snapshots, never
// the latest one. The returned cancel func tears the subscription down and
// closes the channel.
func (s *Store) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	if strings.TrimSpace(collection) == "" {
		return nil, nil, ErrCollectionRequired
	}

	// Serialise with mutations so the initial snapshot cannot be delivered
	// out of order with a concurrent commit's notification.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.snapshot(ctx, collection)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	s.nextID++
	sub := subscriber{id: s.nextID, ch: make(chan Snapshot, 8)}
	s.subs[collection] = append(s.subs[collection], sub)
	s.mu.Unlock()

	sub.ch <- snap

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		subs := s.subs[collection]
		for i, candidate := range subs {
			if candidate.id == sub.id {
				s.subs[collection] = append(subs[:i], subs[i+1:]...)
				close(candidate.ch)
				return
			}
		}
	}

	return sub.ch, cancel, nil
}

// notify reads the post-commit snapshot and fans it out to subscribers.
// Called with writeMu held so deliveries happen in commit order.
func (s *Store) notify(ctx context.Context, collection string) {
	snap, err := s.snapshot(ctx, collection)
	if err != nil {
		log.Printf("[store] snapshot for %s failed: %v", collection, err)
		return
	}

	// Hold mu through the fan-out so a concurrent cancel cannot close a
	// channel mid-delivery. Deliveries never block (stale backlog is
	// dropped), so the critical section stays short.
	s.mu.Lock()
	defer s.mu.Unlock()

	var wg conc.WaitGroup
	for _, sub := range s.subs[collection] {
		ch := sub.ch
		wg.Go(func() { deliver(ch, snap) })
	}
	wg.Wait()
}

// deliver pushes snap onto ch, dropping the channel's stale backlog instead
// of blocking. The latest snapshot always wins.
func deliver(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (s *Store) snapshot(ctx context.Context, collection string) (Snapshot, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Collection: collection, Docs: docs}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
