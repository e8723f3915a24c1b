package journalpost

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dErrors "dokflyt/pkg/domain-errors"
)

// IsJournalized reports whether the document has passed journalization.
func (j *Journalpost) IsJournalized() bool {
	switch j.Status {
	case StatusJournalized, StatusFinalized, StatusDispatched:
		return true
	}
	return false
}

// CanDispatch validates the dispatch eligibility invariant: an outgoing
// document with exactly one case link, a theme, a recipient, and Finalized
// status.
func (j *Journalpost) CanDispatch() error {
	if j.Type != TypeOutgoing {
		return dErrors.New(dErrors.CodeValidation, "only outgoing journalposts can be distributed")
	}
	if j.Case == nil {
		return dErrors.New(dErrors.CodeValidation, "journalpost must carry exactly one case link before dispatch")
	}
	if j.Theme == "" {
		return dErrors.New(dErrors.CodeValidation, "journalpost has no theme")
	}
	if j.Sender == nil || j.Sender.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "journalpost has no recipient id")
	}
	if j.Status != StatusFinalized {
		return dErrors.Newf(dErrors.CodeValidation, "journalpost in status %s cannot be distributed", j.Status)
	}
	return nil
}

// Date returns the first dated event of the given type.
func (j *Journalpost) Date(t DateType) (time.Time, bool) {
	for _, d := range j.Dates {
		if d.Type == t {
			return d.Date, true
		}
	}
	return time.Time{}, false
}

// LatestReturnDate returns the most recent return date in the dated-event
// list, if any is recorded.
func (j *Journalpost) LatestReturnDate() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, d := range j.Dates {
		if d.Type == DateReturn && (!found || d.Date.After(latest)) {
			latest = d.Date
			found = true
		}
	}
	return latest, found
}

// Fingerprint returns the content fingerprint of the primary document, used
// to find journalposts sharing the same underlying document.
func (j *Journalpost) Fingerprint() string {
	if len(j.Documents) == 0 {
		return ""
	}
	return j.Documents[0].Fingerprint
}

// SharesDocumentsWith reports whether the other journalpost carries the same
// document fingerprints, which identifies a duplicate of this record.
func (j *Journalpost) SharesDocumentsWith(other *Journalpost) bool {
	if len(j.Documents) == 0 || len(j.Documents) != len(other.Documents) {
		return false
	}
	for i, d := range j.Documents {
		if d.Fingerprint == "" || d.Fingerprint != other.Documents[i].Fingerprint {
			return false
		}
	}
	return true
}

// DeriveEksternReferanse builds the external reference id for a duplicate of
// this journalpost, unique per duplication so the archive never collapses
// re-distributions into the original.
func (j *Journalpost) DeriveEksternReferanse() string {
	return fmt.Sprintf("%s-%s", j.ID, uuid.NewString()[:8])
}
