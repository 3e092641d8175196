package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	keys        map[string]bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]bool{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "lh:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.lastDeleted = key
	}
	return nil
}

func TestClaimOnlyOnce(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	claimed, err := manager.Claim(context.Background(), "enrollment-worker", eventID)
	if err != nil || !claimed {
		t.Fatalf("expected first claim to succeed claimed=%v err=%v", claimed, err)
	}

	expectedKey := "lh:idempotency:evt:processed:enrollment-worker:" + eventID.String()
	if store.lastKey != expectedKey {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}

	claimed, err = manager.Claim(context.Background(), "enrollment-worker", eventID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Fatal("expected second claim to be refused")
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	if _, err := manager.Claim(context.Background(), "enrollment-worker", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := manager.Release(context.Background(), "enrollment-worker", eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	expected := "lh:idempotency:evt:processed:enrollment-worker:" + eventID.String()
	if store.lastDeleted != expected {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
	claimed, err := manager.Claim(context.Background(), "enrollment-worker", eventID)
	if err != nil || !claimed {
		t.Fatalf("expected claim after release, claimed=%v err=%v", claimed, err)
	}
}

func TestClaimErrors(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("boom")
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.Claim(context.Background(), "enrollment-worker", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected consumer name to be required")
	}
	if _, err := manager.Claim(context.Background(), "enrollment-worker", uuid.Nil); err == nil {
		t.Fatal("expected event id to be required")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected nil store to be rejected")
	}
}
