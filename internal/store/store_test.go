package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestFileDatabaseUsesWAL.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assessai.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(dir, "env", "custom.db")
		t.Setenv("ASSESSAI_DB", want)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("ASSESSAI_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		want := filepath.Join(dir, "assessai", "assessai.db")
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	})
}

func TestKVGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.KV().Get(context.Background(), "local", "userActivities")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestKVPutGetOverwrite(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	if err := kv.Put(ctx, "local", "userStreak", []byte(`{"currentStreak":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, "local", "userStreak", []byte(`{"currentStreak":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := kv.Get(ctx, "local", "userStreak")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"currentStreak":2}` {
		t.Errorf("value = %s, want overwritten value", got)
	}
}

func TestKVNamespacesAreIsolated(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	if err := kv.Put(ctx, "alice", "userActivities", []byte(`[1]`)); err != nil {
		t.Fatalf("put alice: %v", err)
	}
	if err := kv.Put(ctx, "bob", "userActivities", []byte(`[2]`)); err != nil {
		t.Fatalf("put bob: %v", err)
	}

	if err := kv.Delete(ctx, "alice", "userActivities", "userStreak"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "alice", "userActivities"); ok {
		t.Error("alice's key should be deleted")
	}
	if v, ok, _ := kv.Get(ctx, "bob", "userActivities"); !ok || string(v) != "[2]" {
		t.Errorf("bob's key should survive, got %s ok=%v", v, ok)
	}

	ns, err := kv.Namespaces(ctx)
	if err != nil {
		t.Fatalf("namespaces: %v", err)
	}
	if len(ns) != 1 || ns[0] != "bob" {
		t.Errorf("namespaces = %v, want [bob]", ns)
	}
}

func TestKVPutAllAndEntries(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	err := kv.PutAll(ctx, "local", map[string][]byte{
		"userActivities": []byte(`[]`),
		"userStreak":     []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("put all: %v", err)
	}
	if err := kv.Put(ctx, "other", "userStreak", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	entries, err := kv.Entries(ctx, "userStreak")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Namespace != "local" || entries[1].Namespace != "other" {
		t.Errorf("entries not ordered by namespace: %+v", entries)
	}
	if time.Since(entries[0].UpdatedAt) > time.Minute {
		t.Errorf("updated_at = %v, want recent", entries[0].UpdatedAt)
	}
}

func TestLLMEventAppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, p := range []string{"writing-feedback", "speaking-feedback", "writing-feedback"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock-model",
			Purpose:      p,
			InputTokens:  100,
			OutputTokens: 50,
			LatencyMs:    20,
			Success:      true,
			RequestBody:  "[user]\nhello",
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	if all[0].ID <= all[1].ID {
		t.Errorf("events not newest first: %d then %d", all[0].ID, all[1].ID)
	}

	writing, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "writing-feedback", Limit: 1})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(writing) != 1 || writing[0].Purpose != "writing-feedback" {
		t.Errorf("purpose filter = %+v", writing)
	}

	got, err := repo.GetLLMEvent(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !got.Success || got.RequestBody != "[user]\nhello" {
		t.Errorf("get = %+v", got)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing event")
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "recommendations", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "recommendations", InputTokens: 20, OutputTokens: 5, LatencyMs: 300, Success: true},
		{Provider: "openai", Model: "gpt-4o", Purpose: "writing-feedback", InputTokens: 7, OutputTokens: 3, LatencyMs: 50, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	rec := byPurpose[0]
	if rec.Purpose != "recommendations" || rec.Calls != 2 || rec.InputTokens != 30 || rec.AvgLatencyMs != 200 {
		t.Errorf("recommendations usage = %+v", rec)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" || byModel[0].OutputTokens != 10 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestPruneLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "m", Success: true}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := repo.PruneLLMEvents(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune old: %v", err)
	}
	if n != 0 {
		t.Errorf("pruned %d recent events, want 0", n)
	}

	n, err = repo.PruneLLMEvents(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("prune all: %v", err)
	}
	if n != 3 {
		t.Errorf("pruned %d, want 3", n)
	}
}
