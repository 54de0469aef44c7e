package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository/sqlite"
)

func newPostService(t *testing.T) (*PostService, *sqlite.DB, *recorder) {
	t.Helper()
	db := newTestDB(t)
	events := &recorder{}
	return NewPostService(db, db, events, testLogger()), db, events
}

func TestCreatePost_StaffOnly(t *testing.T) {
	svc, db, events := newPostService(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin", model.RoleAdmin)
	member := seedUser(t, db, "member", model.RoleMember)

	post, err := svc.Create(ctx, admin.ID, "Welcome", "First post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if post.AuthorUsername != "admin" {
		t.Errorf("author = %s, want admin", post.AuthorUsername)
	}
	if !events.has(live.TopicPosts, "created") {
		t.Error("expected a posts created event")
	}

	_, err = svc.Create(ctx, member.ID, "Hi", "I am new")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("member post error = %v, want ErrForbidden", err)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	svc, db, _ := newPostService(t)
	admin := seedUser(t, db, "admin", model.RoleAdmin)

	if _, err := svc.Create(context.Background(), admin.ID, "  ", "body"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank title error = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(context.Background(), admin.ID, "title", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank content error = %v, want ErrValidation", err)
	}
}

func TestAddComment_AnyActiveUser(t *testing.T) {
	svc, db, events := newPostService(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin", model.RoleAdmin)
	member := seedUser(t, db, "member", model.RoleMember)

	post, err := svc.Create(ctx, admin.ID, "Welcome", "First post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	comment, err := svc.AddComment(ctx, member.ID, post.ID, "nice!")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if comment.AuthorUsername != "member" {
		t.Errorf("comment author = %s", comment.AuthorUsername)
	}
	if !events.has(live.TopicPosts, "updated") {
		t.Error("expected a posts updated event")
	}
}

func TestAddComment_BannedDenied(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin", model.RoleAdmin)
	member := seedUser(t, db, "member", model.RoleMember)
	banUser(t, db, member.ID)

	post, err := svc.Create(ctx, admin.ID, "Welcome", "First post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.AddComment(ctx, member.ID, post.ID, "nice!")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("banned comment error = %v, want ErrForbidden", err)
	}
}

func TestToggleReaction(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin", model.RoleAdmin)
	member := seedUser(t, db, "member", model.RoleMember)

	post, err := svc.Create(ctx, admin.ID, "Welcome", "First post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	set, err := svc.ToggleReaction(ctx, member.ID, post.ID, "🔥")
	if err != nil {
		t.Fatalf("ToggleReaction() error = %v", err)
	}
	if !set {
		t.Error("first toggle should set the reaction")
	}

	set, err = svc.ToggleReaction(ctx, member.ID, post.ID, "🔥")
	if err != nil {
		t.Fatalf("ToggleReaction() error = %v", err)
	}
	if set {
		t.Error("second toggle should clear the reaction")
	}
}

func TestDeletePost_AuthorOrStaff(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	founder := seedUser(t, db, "founder", model.RoleFounder)
	admin := seedUser(t, db, "admin", model.RoleAdmin)

	post, err := svc.Create(ctx, admin.ID, "Mine", "body")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another staff member may remove it.
	if err := svc.Delete(ctx, founder.ID, post.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.GetPostByID(ctx, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted post lookup error = %v, want ErrNotFound", err)
	}
}
