package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/model"
)

func TestReviewApplication_ApprovePromotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")
	applicant := createTestUser(t, db, "bob")
	reviewer := createTestUser(t, db, "carol")

	app := &model.Application{
		ApplicantID: applicant.ID,
		Status:      model.ApplicationPending,
		Answers:     []string{"yes", "no"},
	}
	if err := db.CreateApplication(ctx, app); err != nil {
		t.Fatalf("CreateApplication() error = %v", err)
	}

	now := time.Now()
	if err := db.ReviewApplication(ctx, app.ID, model.ApplicationApproved, reviewer.ID, now, true); err != nil {
		t.Fatalf("ReviewApplication() error = %v", err)
	}

	got, _ := db.GetApplicationByID(ctx, app.ID)
	if got.Status != model.ApplicationApproved || got.ReviewedBy != reviewer.ID || got.ReviewedAt == nil {
		t.Errorf("review not recorded: %+v", got)
	}

	// The promotion is part of the same transaction.
	u, _ := db.GetUserByID(ctx, applicant.ID)
	if u.Role != model.RolePartner {
		t.Errorf("applicant role = %s, want partner", u.Role)
	}
}

func TestReviewApplication_DenyLeavesRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")
	applicant := createTestUser(t, db, "bob")
	reviewer := createTestUser(t, db, "carol")

	app := &model.Application{ApplicantID: applicant.ID, Status: model.ApplicationPending, Answers: []string{"a"}}
	db.CreateApplication(ctx, app)

	if err := db.ReviewApplication(ctx, app.ID, model.ApplicationDenied, reviewer.ID, time.Now(), false); err != nil {
		t.Fatalf("ReviewApplication() error = %v", err)
	}

	u, _ := db.GetUserByID(ctx, applicant.ID)
	if u.Role != model.RoleMember {
		t.Errorf("denied applicant role = %s, want member", u.Role)
	}
}

func TestReviewApplication_DoubleReview(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")
	applicant := createTestUser(t, db, "bob")
	reviewer := createTestUser(t, db, "carol")

	app := &model.Application{ApplicantID: applicant.ID, Status: model.ApplicationPending}
	db.CreateApplication(ctx, app)
	db.ReviewApplication(ctx, app.ID, model.ApplicationDenied, reviewer.ID, time.Now(), false)

	err := db.ReviewApplication(ctx, app.ID, model.ApplicationApproved, reviewer.ID, time.Now(), true)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second review error = %v, want ErrConflict", err)
	}
}

func TestHasPendingApplication(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")
	applicant := createTestUser(t, db, "bob")

	has, err := db.HasPendingApplication(ctx, applicant.ID)
	if err != nil || has {
		t.Fatalf("HasPendingApplication() = %v, %v; want false, nil", has, err)
	}

	db.CreateApplication(ctx, &model.Application{ApplicantID: applicant.ID, Status: model.ApplicationPending})
	has, _ = db.HasPendingApplication(ctx, applicant.ID)
	if !has {
		t.Errorf("pending application not detected")
	}
}

func TestReplaceQuestions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	qs, err := db.ReplaceQuestions(ctx, []string{"Why?", "What do you make?"})
	if err != nil {
		t.Fatalf("ReplaceQuestions() error = %v", err)
	}
	if len(qs) != 2 || qs[0].Position != 0 || qs[1].Position != 1 {
		t.Fatalf("questions = %+v", qs)
	}

	// Replacement swaps the whole list.
	qs, err = db.ReplaceQuestions(ctx, []string{"Only one now"})
	if err != nil {
		t.Fatalf("second ReplaceQuestions() error = %v", err)
	}
	stored, _ := db.ListQuestions(ctx)
	if len(stored) != 1 || stored[0].Prompt != "Only one now" {
		t.Errorf("stored questions = %+v", stored)
	}
}

func TestResetTokenSingleUse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	if err := db.CreateResetToken(ctx, "tok1", u.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateResetToken() error = %v", err)
	}

	userID, err := db.ConsumeResetToken(ctx, "tok1")
	if err != nil || userID != u.ID {
		t.Fatalf("ConsumeResetToken() = %q, %v; want %q, nil", userID, err, u.ID)
	}

	// Second use fails.
	if _, err := db.ConsumeResetToken(ctx, "tok1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("reused token error = %v, want ErrNotFound", err)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	db.CreateResetToken(ctx, "old", u.ID, time.Now().Add(-time.Minute))
	if _, err := db.ConsumeResetToken(ctx, "old"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired token error = %v, want ErrNotFound", err)
	}
}
