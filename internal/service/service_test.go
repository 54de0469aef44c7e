package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository/sqlite"
)

// Service tests run against the real SQLite layer on an in-memory
// database, so they cover the service rules and the SQL they drive in
// one pass.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeStore is an in-memory ObjectStore: every upload gets a fresh
// object name, deletions are recorded for assertions.
type fakeStore struct {
	uploads int
	deleted []string
}

const fakeStorePrefix = "http://store.test/media/"

func (f *fakeStore) UploadImage(_ context.Context, kind, _ string, _ io.Reader, _ int64) (string, error) {
	f.uploads++
	return fmt.Sprintf("%s%s/img-%d", fakeStorePrefix, kind, f.uploads), nil
}

func (f *fakeStore) DeleteImage(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	return nil
}

func (f *fakeStore) ObjectNameFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, fakeStorePrefix) {
		return ""
	}
	return strings.TrimPrefix(rawURL, fakeStorePrefix)
}

// recorder captures published live events for assertions.
type recorder struct {
	events []recordedEvent
}

type recordedEvent struct {
	Topic  string
	Action string
	ID     string
}

func (r *recorder) Publish(topic, action, id string) {
	r.events = append(r.events, recordedEvent{Topic: topic, Action: action, ID: id})
}

func (r *recorder) has(topic, action string) bool {
	for _, e := range r.events {
		if e.Topic == topic && e.Action == action {
			return true
		}
	}
	return false
}

// seedUser creates an account and forces it into the given role. The
// first call in a test becomes the founder first, so the role override
// keeps tests independent of creation order.
func seedUser(t *testing.T, db *sqlite.DB, username string, role model.Role) *model.User {
	t.Helper()
	ctx := context.Background()

	u := &model.User{Username: username, Email: username + "@example.com"}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	if u.Role != role {
		if err := db.SetRole(ctx, u.ID, role); err != nil {
			t.Fatalf("failed to set role for %s: %v", username, err)
		}
		u.Role = role
	}
	return u
}

func banUser(t *testing.T, db *sqlite.DB, id string) {
	t.Helper()
	if err := db.SetBanned(context.Background(), id, true); err != nil {
		t.Fatalf("failed to ban user %s: %v", id, err)
	}
}
