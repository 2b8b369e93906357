// Package store implements the bot's flat-file persistence: the Farcaster
// thread → assistant session mapping, recent-thread activity timestamps,
// cached user profiles, digest summary entries, and per-FID personal
// prompts. Each dataset is one JSON file, read fully into memory, mutated,
// and rewritten fully on every change.
//
// A single mutex serializes all access. That is acceptable only because the
// deployment runs one process instance; concurrent processes would race on
// the whole-file rewrites (last-writer-wins).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Data file names inside the store directory.
const (
	threadsFile   = "threadMappings.json"
	recentFile    = "recent_threads.json"
	profilesFile  = "userProfiles.json"
	summariesFile = "daily_summary.json"
	promptsFile   = "personal_prompts.json"
)

// SummaryEntry is one digest summary appended by the daily summarizer.
// Entries are append-only; duplicates for the same date are possible and
// tolerated by readers.
type SummaryEntry struct {
	Date      string `json:"date"`
	ThreadID  string `json:"farcasterThreadId"`
	SessionID string `json:"openaiThreadId,omitempty"`
	Summary   string `json:"summary"`
}

// recentEntry records the last time a thread saw activity.
type recentEntry struct {
	Timestamp time.Time `json:"timestamp"`
}

// Store is the flat-file JSON store.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates the store directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// SessionFor returns the assistant session mapped to a Farcaster thread.
// A hit refreshes the thread's recent-activity timestamp.
func (s *Store) SessionFor(threadID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mappings := map[string]string{}
	if err := s.load(threadsFile, &mappings); err != nil {
		return "", false
	}
	sessionID, ok := mappings[threadID]
	if ok {
		s.touchRecentLocked(threadID)
	}
	return sessionID, ok
}

// SaveSession persists the thread → session mapping and refreshes the
// thread's recent-activity timestamp. Mappings are never deleted.
func (s *Store) SaveSession(threadID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mappings := map[string]string{}
	if err := s.load(threadsFile, &mappings); err != nil {
		return err
	}
	mappings[threadID] = sessionID
	if err := s.save(threadsFile, mappings); err != nil {
		return err
	}
	s.touchRecentLocked(threadID)
	return nil
}

// RecentThreads returns thread ids whose last activity is at or after cutoff.
func (s *Store) RecentThreads(cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := map[string]recentEntry{}
	if err := s.load(recentFile, &recent); err != nil {
		return nil, err
	}
	var ids []string
	for id, entry := range recent {
		if !entry.Timestamp.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// touchRecentLocked records the current time as the thread's last activity.
// Failures are swallowed: recency is advisory, not load-bearing.
func (s *Store) touchRecentLocked(threadID string) {
	recent := map[string]recentEntry{}
	if err := s.load(recentFile, &recent); err != nil {
		return
	}
	recent[threadID] = recentEntry{Timestamp: time.Now().UTC()}
	_ = s.save(recentFile, recent)
}

// Profile returns the cached profile payload for a username.
// Profiles have no TTL; staleness is an accepted tradeoff.
func (s *Store) Profile(username string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := map[string]json.RawMessage{}
	if err := s.load(profilesFile, &profiles); err != nil {
		return nil, false
	}
	profile, ok := profiles[username]
	return profile, ok
}

// SaveProfile caches a profile payload under a username.
func (s *Store) SaveProfile(username string, profile json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := map[string]json.RawMessage{}
	if err := s.load(profilesFile, &profiles); err != nil {
		return err
	}
	profiles[username] = profile
	return s.save(profilesFile, profiles)
}

// AppendSummary appends a digest summary entry. The list is append-only.
func (s *Store) AppendSummary(entry SummaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summaries []SummaryEntry
	if err := s.load(summariesFile, &summaries); err != nil {
		return err
	}
	summaries = append(summaries, entry)
	return s.save(summariesFile, summaries)
}

// Summaries returns all digest summary entries in append order.
func (s *Store) Summaries() ([]SummaryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summaries []SummaryEntry
	if err := s.load(summariesFile, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SummariesOn returns entries for the given date (YYYY-MM-DD).
func (s *Store) SummariesOn(date string) ([]SummaryEntry, error) {
	all, err := s.Summaries()
	if err != nil {
		return nil, err
	}
	var matched []SummaryEntry
	for _, entry := range all {
		if entry.Date == date {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// PersonalPrompt returns the custom instruction stored for a FID.
func (s *Store) PersonalPrompt(fid int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts := map[string]string{}
	if err := s.load(promptsFile, &prompts); err != nil {
		return "", false
	}
	prompt, ok := prompts[strconv.FormatInt(fid, 10)]
	return prompt, ok
}

// SetPersonalPrompt stores a custom instruction for a FID.
func (s *Store) SetPersonalPrompt(fid int64, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts := map[string]string{}
	if err := s.load(promptsFile, &prompts); err != nil {
		return err
	}
	prompts[strconv.FormatInt(fid, 10)] = prompt
	return s.save(promptsFile, prompts)
}

// load reads a JSON file into out. A missing file is not an error: the
// caller's zero value stands for an empty dataset.
func (s *Store) load(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// save rewrites a JSON file in full, pretty-printed for hand inspection.
func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
