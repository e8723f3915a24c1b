package returnlog

import (
	"time"

	"dokflyt/internal/journalpost"
	dErrors "dokflyt/pkg/domain-errors"
)

// Edit is a user-requested change to the return log carried by an amendment
// command. A nil EntryIndex creates a new entry; a non-nil index replaces an
// existing one.
type Edit struct {
	EntryIndex  *int
	Description string
	Date        time.Time
}

// ValidateEdits checks amendment return-log edits against the rules:
// no entry dated before the document date, no edits to locked entries, no
// edits at all without an open return cycle, and no dates in the future.
func ValidateEdits(jp *journalpost.Journalpost, log *Log, edits []Edit, now time.Time) error {
	entries := log.Entries()
	for _, edit := range edits {
		if edit.Date.After(now) {
			return dErrors.New(dErrors.CodeValidation, "return date cannot be after the current date")
		}
		if edit.EntryIndex == nil {
			if docDate, ok := jp.Date(journalpost.DateDocument); ok && edit.Date.Before(docDate) {
				return dErrors.New(dErrors.CodeValidation, "return date cannot precede the document date")
			}
			continue
		}
		if jp.ReturnCount == 0 {
			return dErrors.New(dErrors.CodeValidation, "journalpost has no open return cycle")
		}
		idx := *edit.EntryIndex
		if idx < 0 || idx >= len(entries) {
			return dErrors.Newf(dErrors.CodeValidation, "return log has no entry %d", idx)
		}
		if entries[idx].Locked {
			return dErrors.New(dErrors.CodeValidation, "cannot edit a locked return log entry")
		}
		if idx != len(entries)-1 {
			return dErrors.New(dErrors.CodeValidation, "only the latest return log entry can be edited")
		}
	}
	return nil
}

// ApplyEdits mutates the log according to pre-validated edits. Replacements
// run before appends so an edit always targets the entry it was validated
// against.
func ApplyEdits(log *Log, edits []Edit) error {
	for _, edit := range edits {
		if edit.EntryIndex == nil {
			continue
		}
		if err := log.ReplaceLatestUnlocked(edit.Description, edit.Date); err != nil {
			return err
		}
	}
	for _, edit := range edits {
		if edit.EntryIndex == nil {
			log.Append(edit.Description, edit.Date, false)
		}
	}
	return nil
}
