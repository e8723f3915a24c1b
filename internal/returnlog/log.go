// Package returnlog tracks the history of "document returned to sender"
// events for a journalpost. The log lives in the supplementary metadata
// store under the "retur" codec prefix; entries are appended or, while
// unlocked, replaced, but never deleted.
package returnlog

import (
	"time"

	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	dErrors "dokflyt/pkg/domain-errors"
)

// Entry is a single return event.
type Entry struct {
	Description string    `json:"beskrivelse"`
	Date        time.Time `json:"dato"`
	// Locked entries are permanently immutable. Entries lock once a
	// distribution event for the return cycle is confirmed, so later
	// amendments cannot rewrite history that already produced downstream
	// effects.
	Locked bool `json:"laast"`
}

// Log is the return history of one journalpost.
type Log struct {
	codec   metadata.Codec
	entries []Entry
}

// Load decodes the return log from the journalpost's metadata pairs. A
// missing log decodes to an empty one.
func Load(codec metadata.Codec, pairs metadata.Pairs) (*Log, error) {
	log := &Log{codec: codec}
	if _, err := codec.Decode(journalpost.KeyReturnLog, pairs, &log.entries); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt return log")
	}
	return log, nil
}

// Entries returns a copy of the current entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasEntryOn reports whether any entry, locked or not, carries the given
// date (calendar day).
func (l *Log) HasEntryOn(date time.Time) bool {
	for _, e := range l.entries {
		if sameDay(e.Date, date) {
			return true
		}
	}
	return false
}

// Append adds a new entry at the end of the log.
func (l *Log) Append(description string, date time.Time, locked bool) {
	l.entries = append(l.entries, Entry{Description: description, Date: date, Locked: locked})
}

// LockEntries marks every current entry locked. Invoked once a distribution
// event for the document's current return cycle is confirmed. The invocation
// policy for the confirmation hook is still pending product decision, so no
// orchestration path calls this yet.
func (l *Log) LockEntries() {
	for i := range l.entries {
		l.entries[i].Locked = true
	}
}

// ReplaceLatestUnlocked replaces the most recently appended entry in place.
// Only that entry may ever be replaced, and only while unlocked.
func (l *Log) ReplaceLatestUnlocked(description string, date time.Time) error {
	if len(l.entries) == 0 {
		return dErrors.New(dErrors.CodeValidation, "return log has no entries to replace")
	}
	last := len(l.entries) - 1
	if l.entries[last].Locked {
		return dErrors.New(dErrors.CodeValidation, "cannot edit a locked return log entry")
	}
	l.entries[last] = Entry{Description: description, Date: date}
	return nil
}

// MissingEntryForLatestReturn reports whether the document has an open
// return cycle with no matching log entry yet. With an explicit return date
// recorded, the entry must match that date; otherwise any entry dated after
// the document's own date counts.
func (l *Log) MissingEntryForLatestReturn(jp *journalpost.Journalpost) bool {
	if jp.ReturnCount == 0 {
		return false
	}
	if returned, ok := jp.LatestReturnDate(); ok {
		return !l.HasEntryOn(returned)
	}
	docDate, ok := jp.Date(journalpost.DateDocument)
	if !ok {
		return len(l.entries) == 0
	}
	for _, e := range l.entries {
		if e.Date.After(docDate) {
			return false
		}
	}
	return true
}

// Apply re-encodes the log into the given metadata pairs, replacing the
// previous chunks in place.
func (l *Log) Apply(pairs metadata.Pairs) (metadata.Pairs, error) {
	out, err := l.codec.Replace(journalpost.KeyReturnLog, pairs, l.entries)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode return log")
	}
	return out, nil
}

// SyntheticDescription is the entry text used when the system records a
// return the caseworker never described, keyed on how the document went out.
func SyntheticDescription(ch journalpost.Channel) string {
	switch ch {
	case journalpost.ChannelDigitalMailbox, journalpost.ChannelNavNo:
		return "Automatisk registrert: digital distribusjon feilet"
	default:
		return "Automatisk registrert: returpost mottatt"
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
