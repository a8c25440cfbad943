package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// setupTestPendingAuthStore creates a test Redis client and PendingAuthStore
func setupTestPendingAuthStore(t *testing.T) (*PendingAuthStore, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewPendingAuthStore(client)

	return store, mr, func() {
		client.Close()
		mr.Close()
	}
}

// createTestPending creates a pending authorization with default values
func createTestPending(state, userID string) *driven.PendingAuth {
	return &driven.PendingAuth{
		State:       state,
		Service:     "gdrive",
		UserID:      userID,
		RedirectURI: "https://agents.example.com/api/v1/oauth/callback",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	}
}

func TestPendingAuthStore_SaveAndConsume(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	pending := createTestPending("state-abc", "u1")
	if err := store.Save(ctx, pending); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetAndDelete(ctx, "gdrive", "state-abc")
	if err != nil {
		t.Fatalf("GetAndDelete: %v", err)
	}
	if got == nil {
		t.Fatal("expected pending authorization")
	}
	if got.UserID != "u1" || got.Service != "gdrive" {
		t.Errorf("got %+v", got)
	}
}

func TestPendingAuthStore_SingleUse(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, createTestPending("state-abc", "u1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := store.GetAndDelete(ctx, "gdrive", "state-abc")
	if err != nil {
		t.Fatalf("first GetAndDelete: %v", err)
	}
	if first == nil {
		t.Fatal("first consume should succeed")
	}

	second, err := store.GetAndDelete(ctx, "gdrive", "state-abc")
	if err != nil {
		t.Fatalf("second GetAndDelete: %v", err)
	}
	if second != nil {
		t.Error("second consume must return nothing")
	}
}

func TestPendingAuthStore_UnknownState(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()

	got, err := store.GetAndDelete(context.Background(), "gdrive", "never-issued")
	if err != nil {
		t.Fatalf("GetAndDelete: %v", err)
	}
	if got != nil {
		t.Error("unknown state must return nothing")
	}
}

func TestPendingAuthStore_WrongServiceDoesNotConsume(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	pending := createTestPending("state-abc", "u1")
	pending.Service = "github"
	if err := store.Save(ctx, pending); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetAndDelete(ctx, "gdrive", "state-abc")
	if err != nil {
		t.Fatalf("GetAndDelete: %v", err)
	}
	if got != nil {
		t.Error("another service's flow must not be consumed")
	}

	// The owning service can still complete the flow afterwards.
	still, err := store.GetAndDelete(ctx, "github", "state-abc")
	if err != nil {
		t.Fatalf("owning GetAndDelete: %v", err)
	}
	if still == nil || still.UserID != "u1" {
		t.Fatalf("got %+v", still)
	}
}

func TestPendingAuthStore_GetByUser(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, createTestPending("state-abc", "u1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByUser(ctx, "gdrive", "u1")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got == nil || got.State != "state-abc" {
		t.Fatalf("got %+v", got)
	}

	// GetByUser does not consume the record.
	again, err := store.GetByUser(ctx, "gdrive", "u1")
	if err != nil {
		t.Fatalf("second GetByUser: %v", err)
	}
	if again == nil {
		t.Error("GetByUser must not consume the record")
	}

	none, err := store.GetByUser(ctx, "gdrive", "someone-else")
	if err != nil {
		t.Fatalf("GetByUser other user: %v", err)
	}
	if none != nil {
		t.Error("other user must not see the flow")
	}
}

func TestPendingAuthStore_SaveReplacesPreviousFlow(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, createTestPending("state-old", "u1")); err != nil {
		t.Fatalf("Save old: %v", err)
	}
	if err := store.Save(ctx, createTestPending("state-new", "u1")); err != nil {
		t.Fatalf("Save new: %v", err)
	}

	// The superseded state must not complete.
	old, err := store.GetAndDelete(ctx, "gdrive", "state-old")
	if err != nil {
		t.Fatalf("GetAndDelete old: %v", err)
	}
	if old != nil {
		t.Error("superseded flow must be invalidated")
	}

	current, err := store.GetByUser(ctx, "gdrive", "u1")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if current == nil || current.State != "state-new" {
		t.Fatalf("got %+v", current)
	}
}

func TestPendingAuthStore_TTLExpiry(t *testing.T) {
	store, mr, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	pending := createTestPending("state-abc", "u1")
	pending.ExpiresAt = time.Now().Add(time.Minute)
	if err := store.Save(ctx, pending); err != nil {
		t.Fatalf("Save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := store.GetAndDelete(ctx, "gdrive", "state-abc")
	if err != nil {
		t.Fatalf("GetAndDelete: %v", err)
	}
	if got != nil {
		t.Error("expired flow must return nothing")
	}
}

func TestPendingAuthStore_Delete(t *testing.T) {
	store, _, cleanup := setupTestPendingAuthStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, createTestPending("state-abc", "u1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "gdrive", "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := store.GetByUser(ctx, "gdrive", "u1")
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got != nil {
		t.Error("deleted flow must be gone")
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, "gdrive", "u1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
