package store

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSessionMapping(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.SessionFor("0xabc"); ok {
		t.Fatal("SessionFor() on empty store should miss")
	}

	if err := s.SaveSession("0xabc", "thread_123"); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	// Mapping must be stable across repeated lookups.
	for i := 0; i < 3; i++ {
		sessionID, ok := s.SessionFor("0xabc")
		if !ok {
			t.Fatal("SessionFor() should hit after SaveSession")
		}
		if sessionID != "thread_123" {
			t.Errorf("SessionFor() = %q, want thread_123", sessionID)
		}
	}
}

func TestSessionMappingSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s1.SaveSession("0xdef", "thread_456"); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sessionID, ok := s2.SessionFor("0xdef")
	if !ok || sessionID != "thread_456" {
		t.Errorf("SessionFor() after reopen = (%q, %v), want (thread_456, true)", sessionID, ok)
	}
}

func TestRecentThreads(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveSession("0xaaa", "thread_a"); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	recent, err := s.RecentThreads(time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("RecentThreads() error = %v", err)
	}
	if len(recent) != 1 || recent[0] != "0xaaa" {
		t.Errorf("RecentThreads() = %v, want [0xaaa]", recent)
	}

	// A cutoff in the future excludes the thread.
	recent, err = s.RecentThreads(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RecentThreads() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("RecentThreads(future cutoff) = %v, want empty", recent)
	}
}

func TestProfileCache(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.Profile("alice"); ok {
		t.Fatal("Profile() on empty store should miss")
	}

	payload := json.RawMessage(`{"profile":{"username":"alice","followerCount":42}}`)
	if err := s.SaveProfile("alice", payload); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, ok := s.Profile("alice")
	if !ok {
		t.Fatal("Profile() should hit after SaveProfile")
	}
	var decoded struct {
		Profile struct {
			Username      string `json:"username"`
			FollowerCount int    `json:"followerCount"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("cached profile is not valid JSON: %v", err)
	}
	if decoded.Profile.Username != "alice" || decoded.Profile.FollowerCount != 42 {
		t.Errorf("Profile() = %+v, want alice/42", decoded.Profile)
	}
}

func TestSummariesAppendOnly(t *testing.T) {
	s := newTestStore(t)

	entries := []SummaryEntry{
		{Date: "2026-08-30", ThreadID: "0x1", Summary: "first"},
		{Date: "2026-08-31", ThreadID: "0x2", Summary: "second"},
		{Date: "2026-08-31", ThreadID: "0x3", Summary: "third"},
	}
	for _, entry := range entries {
		if err := s.AppendSummary(entry); err != nil {
			t.Fatalf("AppendSummary() error = %v", err)
		}
	}

	all, err := s.Summaries()
	if err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Summaries() returned %d entries, want 3", len(all))
	}
	if all[0].Summary != "first" || all[2].Summary != "third" {
		t.Errorf("Summaries() order not preserved: %+v", all)
	}

	today, err := s.SummariesOn("2026-08-31")
	if err != nil {
		t.Fatalf("SummariesOn() error = %v", err)
	}
	if len(today) != 2 {
		t.Errorf("SummariesOn(2026-08-31) returned %d entries, want 2", len(today))
	}
}

func TestPersonalPrompts(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.PersonalPrompt(3621); ok {
		t.Fatal("PersonalPrompt() on empty store should miss")
	}
	if err := s.SetPersonalPrompt(3621, "always answer in haiku"); err != nil {
		t.Fatalf("SetPersonalPrompt() error = %v", err)
	}
	prompt, ok := s.PersonalPrompt(3621)
	if !ok || prompt != "always answer in haiku" {
		t.Errorf("PersonalPrompt() = (%q, %v), want stored prompt", prompt, ok)
	}
}
