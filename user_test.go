package authredis

import (
	"context"
	"testing"
	"time"
)

func TestCreateUserAssignsIDAndWritesEmailIndex(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	created, err := adapter.CreateUser(ctx, testUser("alice@example.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated user id")
	}

	byID, err := adapter.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Fatalf("unexpected user by id: %+v", byID)
	}

	byEmail, err := adapter.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("email index points at %+v, want id %s", byEmail, created.ID)
	}
}

func TestGetUserMissingReturnsNil(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()

	user, err := adapter.GetUser(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	user, err = adapter.GetUserByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing user by email: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user by email, got %+v", user)
	}
}

func TestGetUserIdempotentReads(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	created, err := adapter.CreateUser(ctx, testUser("alice@example.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := adapter.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := adapter.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first.Email != second.Email || first.Name != second.Name || !first.EmailVerified.Equal(*second.EmailVerified) {
		t.Fatalf("reads differ: %+v vs %+v", first, second)
	}
}

func TestUpdateUserMergePreservesUnrelatedFields(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	created, err := adapter.CreateUser(ctx, testUser("alice@example.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	verified := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	updated, err := adapter.UpdateUser(ctx, User{
		ID:            created.ID,
		EmailVerified: &verified,
		Extra:         map[string]any{"theme": "dark"},
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}

	if updated.Name != "Alice" || updated.Email != "alice@example.com" {
		t.Fatalf("merge dropped unrelated fields: %+v", updated)
	}
	if !updated.EmailVerified.Equal(verified) {
		t.Fatalf("emailVerified not overwritten: %v", updated.EmailVerified)
	}
	if updated.Extra["locale"] != "en-AU" || updated.Extra["theme"] != "dark" {
		t.Fatalf("extra fields not merged: %+v", updated.Extra)
	}

	stored, err := adapter.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("re-read user: %v", err)
	}
	if stored.Extra["theme"] != "dark" {
		t.Fatalf("merge not persisted: %+v", stored.Extra)
	}
}

func TestUpdateUserMissingMergesAgainstEmptyBase(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	updated, err := adapter.UpdateUser(ctx, User{ID: "ghost", Name: "Ghost"})
	if err != nil {
		t.Fatalf("update missing user: %v", err)
	}
	if updated == nil || updated.ID != "ghost" || updated.Name != "Ghost" {
		t.Fatalf("unexpected merge result: %+v", updated)
	}

	stored, err := adapter.GetUser(ctx, "ghost")
	if err != nil {
		t.Fatalf("re-read user: %v", err)
	}
	if stored == nil || stored.Name != "Ghost" {
		t.Fatalf("merged record not stored: %+v", stored)
	}
}

func TestUpdateUserEmailChangeDropsStaleIndex(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	created, err := adapter.CreateUser(ctx, testUser("old@example.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := adapter.UpdateUser(ctx, User{ID: created.ID, Email: "new@example.com"}); err != nil {
		t.Fatalf("update email: %v", err)
	}

	stale, err := adapter.GetUserByEmail(ctx, "old@example.com")
	if err != nil {
		t.Fatalf("lookup stale email: %v", err)
	}
	if stale != nil {
		t.Fatalf("stale email index still resolves: %+v", stale)
	}

	fresh, err := adapter.GetUserByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("lookup new email: %v", err)
	}
	if fresh == nil || fresh.ID != created.ID {
		t.Fatalf("new email index missing: %+v", fresh)
	}
}

func TestDeleteUserRemovesRecordIndexesAndPointerTargets(t *testing.T) {
	adapter, rdb, _, done := newAdapterTest(t, Options{})
	defer done()
	ctx := context.Background()

	created, err := adapter.CreateUser(ctx, testUser("alice@example.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := adapter.LinkAccount(ctx, testAccountFor(created.ID, "github", "42")); err != nil {
		t.Fatalf("link account: %v", err)
	}
	if _, err := adapter.LinkAccount(ctx, testAccountFor(created.ID, "gitlab", "7")); err != nil {
		t.Fatalf("link second account: %v", err)
	}
	if _, err := adapter.CreateSession(ctx, testSessionFor(created.ID, "tok-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := adapter.CreateSession(ctx, testSessionFor(created.ID, "tok-2")); err != nil {
		t.Fatalf("create second session: %v", err)
	}

	if err := adapter.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if user, _ := adapter.GetUser(ctx, created.ID); user != nil {
		t.Fatalf("user survived delete: %+v", user)
	}
	if user, _ := adapter.GetUserByEmail(ctx, "alice@example.com"); user != nil {
		t.Fatalf("email index survived delete: %+v", user)
	}
	if user, _ := adapter.GetUserByAccount(ctx, "github", "42"); user != nil {
		t.Fatalf("account survived delete: %+v", user)
	}
	if sess, u, _ := adapter.GetSessionAndUser(ctx, "tok-2"); sess != nil || u != nil {
		t.Fatalf("session survived delete: %+v %+v", sess, u)
	}

	keys, err := rdb.Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("delete left keys behind: %v", keys)
	}
}

func TestDeleteUserMissingIsNoop(t *testing.T) {
	adapter, _, _, done := newAdapterTest(t, Options{})
	defer done()

	if err := adapter.DeleteUser(context.Background(), "ghost"); err != nil {
		t.Fatalf("delete missing user: %v", err)
	}
}
