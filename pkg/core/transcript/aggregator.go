// Package transcript merges locally-produced utterances, incrementally
// revised remote segments, and manual text input into one ordered,
// de-duplicated transcript.
package transcript

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Origin identifies who produced a transcript entry.
type Origin string

const (
	OriginLocalUser   Origin = "local_user"
	OriginRemoteAgent Origin = "remote_agent"
)

// Entry is one utterance shown in the chat view.
type Entry struct {
	// ID is opaque and stable per logical utterance.
	ID string `json:"id"`

	Origin Origin `json:"origin"`
	Text   string `json:"text"`

	CreatedAt time.Time `json:"created_at"`

	// RevisionSeq disambiguates successive updates to the same entry.
	// It is monotonic per ID and never regresses.
	RevisionSeq uint64 `json:"revision_seq"`

	// Final marks the entry complete. Finality is sticky: a late partial
	// can never un-finalize a completed line.
	Final bool `json:"final"`
}

type stored struct {
	entry Entry
	seq   uint64 // insertion order, breaks CreatedAt ties
}

// Aggregator is a last-writer-wins-by-revision map keyed by entry ID,
// rendered through a stable sort. Merging is commutative and idempotent,
// so entries may arrive in any interleaving of local and remote paths.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string]*stored
	nextSeq uint64
	now     func() time.Time
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		entries: make(map[string]*stored),
		now:     time.Now,
	}
}

// Upsert inserts the entry or merges it into the stored one with the
// same ID. The incoming entry wins only when its revision is at least
// the stored revision; a partial never replaces a final entry.
func (a *Aggregator) Upsert(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now()
	}

	existing, ok := a.entries[entry.ID]
	if !ok {
		a.entries[entry.ID] = &stored{entry: entry, seq: a.nextSeq}
		a.nextSeq++
		return
	}

	if existing.entry.Final && !entry.Final {
		return
	}
	if entry.RevisionSeq < existing.entry.RevisionSeq {
		return
	}

	existing.entry.Text = entry.Text
	existing.entry.Final = entry.Final
	existing.entry.RevisionSeq = entry.RevisionSeq
}

// Append adds a finalized entry with no external id, generating a fresh
// synthetic one. Used for locally finalized utterances and typed input.
// Returns the generated id.
func (a *Aggregator) Append(origin Origin, text string) string {
	id := uuid.NewString()
	a.Upsert(Entry{
		ID:     id,
		Origin: origin,
		Text:   text,
		Final:  true,
	})
	return id
}

// List returns entries sorted by CreatedAt ascending, stable for equal
// timestamps by insertion order. The entries are copied out under the
// lock; concurrent Upserts never touch the returned slice.
func (a *Aggregator) List() []Entry {
	a.mu.Lock()
	items := make([]stored, 0, len(a.entries))
	for _, s := range a.entries {
		items = append(items, *s)
	}
	a.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].entry.CreatedAt.Equal(items[j].entry.CreatedAt) {
			return items[i].seq < items[j].seq
		}
		return items[i].entry.CreatedAt.Before(items[j].entry.CreatedAt)
	})

	out := make([]Entry, len(items))
	for i, s := range items {
		out[i] = s.entry
	}
	return out
}

// Len returns the number of distinct entries.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Reset clears all state. Called when a new session starts.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = make(map[string]*stored)
	a.nextSeq = 0
}
