package handler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository/sqlite"
	"github.com/sakif/community-hub/internal/service"
)

// Handler tests run the full stack below the router: real services on
// an in-memory database, identity injected straight into the request
// context.

type testEnv struct {
	db     *sqlite.DB
	logger *slog.Logger
	events live.Publisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testEnv{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		events: live.NopPublisher{},
	}
}

func (e *testEnv) seedUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	ctx := context.Background()

	u := &model.User{Username: username, Email: username + "@example.com"}
	if err := e.db.CreateUser(ctx, u); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	if u.Role != role {
		if err := e.db.SetRole(ctx, u.ID, role); err != nil {
			t.Fatalf("failed to set role for %s: %v", username, err)
		}
		u.Role = role
	}
	return u
}

func (e *testEnv) postService() *service.PostService {
	return service.NewPostService(e.db, e.db, e.events, e.logger)
}

func (e *testEnv) userService() *service.UserService {
	return service.NewUserService(e.db, nil, e.events, e.logger)
}

func (e *testEnv) submissionService() *service.SubmissionService {
	return service.NewSubmissionService(e.db, e.db, e.db, e.events, e.logger)
}

func (e *testEnv) sectionService() *service.SectionService {
	return service.NewSectionService(e.db, e.db, e.events, e.logger)
}
