package credstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	s, err := NewRedisStore(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Current on empty store err = %v", err)
	}
	if err := s.Save(ctx, Credential{Username: "Alice", Token: "t1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, Credential{Username: "bob", Token: "t2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c, err := s.Load(ctx, "alice")
	if err != nil || c.Token != "t1" {
		t.Fatalf("Load alice = %+v, %v", c, err)
	}
	cur, err := s.Current(ctx)
	if err != nil || cur.Username != "bob" {
		t.Fatalf("Current = %+v, %v", cur, err)
	}

	if err := RememberSession(ctx, s, "alice", "abc123"); err != nil {
		t.Fatalf("RememberSession: %v", err)
	}
	c, _ = s.Load(ctx, "ALICE")
	if c.LastSession != "ABC123" {
		t.Fatalf("last session = %q", c.LastSession)
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after delete err = %v", err)
	}
	if err := s.Save(ctx, Credential{Username: " ", Token: "x"}); err == nil {
		t.Fatalf("empty username accepted")
	}
	if err := RememberSession(ctx, s, "nobody", "X"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RememberSession unknown user err = %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	exerciseStore(t, s)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(nil, time.Hour))
}

func TestRedisStore_Expires(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Credential{Username: "alice", Token: "t1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired credential still loads: %v", err)
	}
	if _, err := s.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired current still loads: %v", err)
	}
}

func TestMemoryStore_Expires(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewMemoryStore(fc, time.Minute)
	ctx := context.Background()
	if err := s.Save(ctx, Credential{Username: "alice", Token: "t1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fc.Advance(59 * time.Second)
	if _, err := s.Load(ctx, "alice"); err != nil {
		t.Fatalf("Load before expiry: %v", err)
	}
	fc.Advance(2 * time.Second)
	if _, err := s.Current(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired credential still current: %v", err)
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "::not a url", time.Hour); err == nil {
		t.Fatalf("expected parse error")
	}
}
