package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"discover-release/pkg/storage"
)

// Outcome classifies what happened to a single object entry during the run.
type Outcome int

const (
	// OutcomeMigrated means the entry was copied (or confirmed present) at the
	// destination and removed from the source.
	OutcomeMigrated Outcome = iota
	// OutcomeAlreadyAbsent means the source object disappeared before the copy;
	// a previous run already handled it.
	OutcomeAlreadyAbsent
	// OutcomeFailed means the entry could not be migrated; it stays at the
	// source for the next run.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMigrated:
		return "migrated"
	case OutcomeAlreadyAbsent:
		return "already_absent"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EntryResult records the outcome for one listed entry.
type EntryResult struct {
	Entry   storage.ObjectEntry
	Outcome Outcome
	// Reason is set for failed entries only.
	Reason string
}

// CopyRecord is one line of the release manifest. Field names are part of
// the manifest contract consumed by downstream catalog tooling.
type CopyRecord struct {
	SourceBucket  string `json:"source_bucket"`
	SourceKey     string `json:"source_key"`
	SourceVersion string `json:"source_version,omitempty"`
	TargetBucket  string `json:"target_bucket"`
	TargetKey     string `json:"target_key"`
	TargetVersion string `json:"target_version,omitempty"`
}

// Report accumulates per-entry outcomes from concurrent workers and derives
// the run verdict. Safe for concurrent use.
type Report struct {
	mu        sync.Mutex
	started   time.Time
	finished  time.Time
	results   []EntryResult
	copies    []CopyRecord
	truncated bool
	fatal     error
}

func newReport() *Report {
	return &Report{started: time.Now()}
}

func (r *Report) Record(result EntryResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *Report) RecordCopy(record CopyRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copies = append(r.copies, record)
}

// MarkTruncated notes that listing stopped before the source was exhausted,
// so a clean drain still cannot mean the prefix is empty.
func (r *Report) MarkTruncated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.truncated = true
}

// SetFatal records the error that aborted the run. Only the first fatal
// error is kept; later ones are echoes of the same abort.
func (r *Report) SetFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal == nil {
		r.fatal = err
	}
}

func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now()
}

func (r *Report) Fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal
}

func (r *Report) Truncated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.truncated
}

// Counts returns the per-outcome totals.
func (r *Report) Counts() (total, migrated, alreadyAbsent, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total = len(r.results)
	for _, res := range r.results {
		switch res.Outcome {
		case OutcomeMigrated:
			migrated++
		case OutcomeAlreadyAbsent:
			alreadyAbsent++
		case OutcomeFailed:
			failed++
		}
	}
	return total, migrated, alreadyAbsent, failed
}

// Failures returns a copy of the failed entry results.
func (r *Report) Failures() []EntryResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failures []EntryResult
	for _, res := range r.results {
		if res.Outcome == OutcomeFailed {
			failures = append(failures, res)
		}
	}
	return failures
}

func (r *Report) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

// Succeeded reports whether the run fully released the prefix: no fatal
// error, no truncation, and every entry migrated or already absent.
func (r *Report) Succeeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fatal != nil || r.truncated {
		return false
	}
	for _, res := range r.results {
		if res.Outcome == OutcomeFailed {
			return false
		}
	}
	return true
}

// FailureReason summarizes why the run did not succeed, for the exit message.
func (r *Report) FailureReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fatal != nil {
		return r.fatal.Error()
	}
	if r.truncated {
		return "listing did not complete before the run stopped"
	}

	failed := 0
	for _, res := range r.results {
		if res.Outcome == OutcomeFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Sprintf("%d object(s) failed to migrate", failed)
	}
	return ""
}

// ManifestJSON renders the copy records as the manifest body. An empty run
// produces an empty JSON array, not null.
func (r *Report) ManifestJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.copies) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(r.copies)
}
