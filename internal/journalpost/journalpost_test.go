package journalpost

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dokflyt/pkg/domain-errors"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"MOTTATT", "JOURNALFOERT", "FERDIGSTILT", "EKSPEDERT", "FEILREGISTRERT"} {
		st, err := ParseStatus(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, Status(valid), st)
	}

	_, err := ParseStatus("UKJENT")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestStatus_CanAdvanceTo(t *testing.T) {
	assert.True(t, StatusReceived.CanAdvanceTo(StatusJournalized))
	assert.True(t, StatusReceived.CanAdvanceTo(StatusFinalized))
	assert.True(t, StatusFinalized.CanAdvanceTo(StatusDispatched))

	assert.False(t, StatusDispatched.CanAdvanceTo(StatusFinalized), "status only moves forward")
	assert.False(t, StatusJournalized.CanAdvanceTo(StatusJournalized))
	assert.False(t, StatusMisregistered.CanAdvanceTo(StatusReceived), "misregistered is outside the ordering")
	assert.False(t, StatusReceived.CanAdvanceTo(StatusMisregistered), "misregistration only via deviation")
}

func dispatchable() *Journalpost {
	return &Journalpost{
		ID:     "453871201",
		Status: StatusFinalized,
		Type:   TypeOutgoing,
		Theme:  "BID",
		Case:   &Case{ID: "2405595", Theme: "BID"},
		Sender: &Party{ID: "12345678901", Name: "Ola Nordmann"},
	}
}

func TestCanDispatch(t *testing.T) {
	require.NoError(t, dispatchable().CanDispatch())

	t.Run("incoming rejected", func(t *testing.T) {
		jp := dispatchable()
		jp.Type = TypeIncoming
		assert.True(t, dErrors.HasCode(jp.CanDispatch(), dErrors.CodeValidation))
	})

	t.Run("missing case link rejected", func(t *testing.T) {
		jp := dispatchable()
		jp.Case = nil
		assert.True(t, dErrors.HasCode(jp.CanDispatch(), dErrors.CodeValidation))
	})

	t.Run("missing recipient rejected", func(t *testing.T) {
		jp := dispatchable()
		jp.Sender = nil
		assert.True(t, dErrors.HasCode(jp.CanDispatch(), dErrors.CodeValidation))
	})

	t.Run("not finalized rejected", func(t *testing.T) {
		jp := dispatchable()
		jp.Status = StatusJournalized
		assert.True(t, dErrors.HasCode(jp.CanDispatch(), dErrors.CodeValidation))
	})
}

func TestLatestReturnDate(t *testing.T) {
	jp := &Journalpost{Dates: []RelevantDate{
		{Type: DateDocument, Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{Type: DateReturn, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Type: DateReturn, Date: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
	}}

	got, ok := jp.LatestReturnDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), got)

	_, ok = (&Journalpost{}).LatestReturnDate()
	assert.False(t, ok)
}

func TestSharesDocumentsWith(t *testing.T) {
	a := &Journalpost{Documents: []Document{{ID: "d1", Fingerprint: "fp-1"}, {ID: "d2", Fingerprint: "fp-2"}}}
	b := &Journalpost{Documents: []Document{{ID: "d9", Fingerprint: "fp-1"}, {ID: "d8", Fingerprint: "fp-2"}}}
	c := &Journalpost{Documents: []Document{{ID: "d9", Fingerprint: "fp-9"}, {ID: "d8", Fingerprint: "fp-2"}}}

	assert.True(t, a.SharesDocumentsWith(b))
	assert.False(t, a.SharesDocumentsWith(c))
	assert.False(t, a.SharesDocumentsWith(&Journalpost{}))

	blank := &Journalpost{Documents: []Document{{ID: "d1"}}}
	assert.False(t, blank.SharesDocumentsWith(blank), "empty fingerprints never match")
}

func TestDeriveEksternReferanse(t *testing.T) {
	jp := &Journalpost{ID: "201028011"}

	ref1 := jp.DeriveEksternReferanse()
	ref2 := jp.DeriveEksternReferanse()

	assert.True(t, strings.HasPrefix(ref1, "201028011-"))
	assert.NotEqual(t, ref1, ref2, "each duplication gets a fresh reference")
}
