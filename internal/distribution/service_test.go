package distribution

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dokflyt/internal/archive"
	archivemocks "dokflyt/internal/archive/mocks"
	"dokflyt/internal/dispatch"
	dispatchmocks "dokflyt/internal/dispatch/mocks"
	"dokflyt/internal/journalpost"
	"dokflyt/internal/metadata"
	"dokflyt/internal/person"
	personmocks "dokflyt/internal/person/mocks"
	dErrors "dokflyt/pkg/domain-errors"
)

type fixture struct {
	reader  *archivemocks.MockReader
	writer  *archivemocks.MockWriter
	sender  *dispatchmocks.MockSender
	persons *personmocks.MockRegistry
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		reader:  archivemocks.NewMockReader(ctrl),
		writer:  archivemocks.NewMockWriter(ctrl),
		sender:  dispatchmocks.NewMockSender(ctrl),
		persons: personmocks.NewMockRegistry(ctrl),
	}
	f.service = NewService(f.reader, f.writer, f.sender, f.persons, metadata.NewCodec(100), nil, nil, slog.Default())
	return f
}

func outgoingFinalized() *journalpost.Journalpost {
	return &journalpost.Journalpost{
		ID:      "453857122",
		Status:  journalpost.StatusFinalized,
		Type:    journalpost.TypeOutgoing,
		Channel: journalpost.ChannelCentralPrint,
		Theme:   "BID",
		Title:   "Vedtak om bidrag",
		Unit:    "4806",
		Case:    &journalpost.Case{ID: "sak-1", Theme: "BID"},
		Sender:  &journalpost.Party{ID: "12345678901", Name: "Ola Nordmann"},
		Documents: []journalpost.Document{
			{ID: "doc-1", Title: "Vedtak om bidrag", Fingerprint: "fp-1", Content: []byte("pdf")},
		},
	}
}

func testAddress() *journalpost.Address {
	return &journalpost.Address{Line1: "Storgata 1", PostalCode: "0155", City: "Oslo"}
}

func TestDistributeOrdersDispatch(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req dispatch.Request) (*dispatch.Receipt, error) {
			assert.Equal(t, jp.ID, req.JournalpostID)
			assert.Equal(t, "batch-7", req.BatchID)
			require.NotNil(t, req.Address)
			assert.Equal(t, "Storgata 1", req.Address.Line1)
			return &dispatch.Receipt{BestillingsID: "order-991"}, nil
		})
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			assert.True(t, patch.Metadata.HasFlag(journalpost.KeyDistributionOrdered))
			receipt, ok := patch.Metadata.Get(journalpost.KeyDispatchReceipt)
			require.True(t, ok)
			assert.Equal(t, "order-991", receipt)
			return nil
		})

	result, err := f.service.Distribute(context.Background(), jp.ID, Request{
		BatchID: "batch-7",
		Address: testAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, "order-991", result.TrackingID)
	assert.False(t, result.AlreadyOrdered)
}

func TestDistributeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()
	jp.Metadata = jp.Metadata.SetFlag(journalpost.KeyDistributionOrdered, true)
	jp.Metadata = jp.Metadata.Set(journalpost.KeyDispatchReceipt, "order-991")

	// No Send and no Update expectations: a repeated order must not touch
	// the dispatch system or the archive.
	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil).Times(2)

	for range 2 {
		result, err := f.service.Distribute(context.Background(), jp.ID, Request{Address: testAddress()})
		require.NoError(t, err)
		assert.True(t, result.AlreadyOrdered)
		assert.Equal(t, "order-991", result.TrackingID)
	}
}

func TestDistributeTreatsDispatchedStatusAsOrdered(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()
	jp.Status = journalpost.StatusDispatched
	jp.Metadata = jp.Metadata.Set(journalpost.KeyDispatchReceipt, "order-500")

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)

	result, err := f.service.Distribute(context.Background(), jp.ID, Request{})
	require.NoError(t, err)
	assert.True(t, result.AlreadyOrdered)
	assert.Equal(t, "order-500", result.TrackingID)
}

func TestDistributeRejectsIneligible(t *testing.T) {
	cases := map[string]func(*journalpost.Journalpost){
		"incoming":      func(jp *journalpost.Journalpost) { jp.Type = journalpost.TypeIncoming },
		"no case":       func(jp *journalpost.Journalpost) { jp.Case = nil },
		"no theme":      func(jp *journalpost.Journalpost) { jp.Theme = "" },
		"no recipient":  func(jp *journalpost.Journalpost) { jp.Sender = nil },
		"not finalized": func(jp *journalpost.Journalpost) { jp.Status = journalpost.StatusReceived },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			jp := outgoingFinalized()
			mutate(jp)

			f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)

			_, err := f.service.Distribute(context.Background(), jp.ID, Request{Address: testAddress()})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestDistributeLocalPrint(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			require.NotNil(t, patch.Channel)
			assert.Equal(t, journalpost.ChannelLocalPrint, *patch.Channel)
			assert.True(t, patch.Metadata.HasFlag(journalpost.KeyLocalPrint))
			assert.True(t, patch.Metadata.HasFlag(journalpost.KeyDistributionOrdered))
			return nil
		})

	result, err := f.service.Distribute(context.Background(), jp.ID, Request{LocalPrint: true})
	require.NoError(t, err)
	assert.Empty(t, result.TrackingID)
	assert.Equal(t, journalpost.ChannelLocalPrint, result.Channel)
}

func TestDistributeResolvesRegisteredAddress(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)
	f.persons.EXPECT().Lookup(gomock.Any(), "12345678901").Return(&person.Person{
		Ident:         "12345678901",
		Name:          "Ola Nordmann",
		PostalAddress: testAddress(),
	}, nil)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req dispatch.Request) (*dispatch.Receipt, error) {
			require.NotNil(t, req.Address)
			assert.Equal(t, "Storgata 1", req.Address.Line1)
			return &dispatch.Receipt{BestillingsID: "order-1"}, nil
		})
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).Return(nil)

	_, err := f.service.Distribute(context.Background(), jp.ID, Request{})
	require.NoError(t, err)
}

func TestDistributeWithoutAddressRequiresDigitalMailbox(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)
	f.persons.EXPECT().Lookup(gomock.Any(), "12345678901").Return(&person.Person{Ident: "12345678901"}, nil)

	_, err := f.service.Distribute(context.Background(), jp.ID, Request{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDistributeDigitalMailboxAllowsNoAddress(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()
	jp.Channel = journalpost.ChannelDigitalMailbox

	f.reader.EXPECT().Get(gomock.Any(), jp.ID).Return(jp, nil)
	f.persons.EXPECT().Lookup(gomock.Any(), "12345678901").Return(&person.Person{Ident: "12345678901"}, nil)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req dispatch.Request) (*dispatch.Receipt, error) {
			assert.Nil(t, req.Address)
			return &dispatch.Receipt{BestillingsID: "order-2"}, nil
		})
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).Return(nil)

	result, err := f.service.Distribute(context.Background(), jp.ID, Request{})
	require.NoError(t, err)
	assert.Equal(t, "order-2", result.TrackingID)
}

func TestOrderRedistributionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()
	jp.Metadata = jp.Metadata.SetFlag(journalpost.KeyRedistributionOrdered, true)

	result, err := f.service.OrderRedistribution(context.Background(), jp, testAddress())
	require.NoError(t, err)
	assert.True(t, result.AlreadyOrdered)
}

func TestOrderRedistributionCreatesFinalizedDuplicate(t *testing.T) {
	f := newFixture(t)
	jp := outgoingFinalized()
	jp.Status = journalpost.StatusDispatched
	jp.ReturnCount = 1
	jp.Dates = []journalpost.RelevantDate{
		{Type: journalpost.DateDocument, Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
		{Type: journalpost.DateReturn, Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	jp.Metadata = jp.Metadata.SetFlag(journalpost.KeyDistributionOrdered, true)
	jp.Metadata = jp.Metadata.Set(journalpost.KeyDispatchReceipt, "order-old")

	duplicate := outgoingFinalized()
	duplicate.ID = "900000001"

	// The open return cycle has no log entry yet, so one is appended first.
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			_, hasEntry := patch.Metadata.Get(journalpost.KeyReturnLog + "0")
			assert.True(t, hasEntry, "return log entry should be recorded")
			return nil
		})
	f.writer.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req archive.CreateRequest) (string, error) {
			assert.True(t, req.Finalize)
			assert.Equal(t, journalpost.TypeOutgoing, req.Type)
			assert.Equal(t, jp.Title, req.Title)
			assert.NotEqual(t, jp.ID, req.EksternReferanse)
			assert.Contains(t, req.EksternReferanse, jp.ID)
			assert.False(t, req.Metadata.HasFlag(journalpost.KeyDistributionOrdered),
				"duplicate must not inherit distribution history")
			_, hasReceipt := req.Metadata.Get(journalpost.KeyDispatchReceipt)
			assert.False(t, hasReceipt)
			require.Len(t, req.Documents, 1)
			assert.Equal(t, []byte("pdf"), req.Documents[0].Content)
			return duplicate.ID, nil
		})
	f.reader.EXPECT().Get(gomock.Any(), duplicate.ID).Return(duplicate, nil)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&dispatch.Receipt{BestillingsID: "order-new"}, nil)
	f.writer.EXPECT().Update(gomock.Any(), duplicate.ID, gomock.Any()).Return(nil)
	f.writer.EXPECT().Update(gomock.Any(), jp.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch archive.Patch) error {
			assert.True(t, patch.Metadata.HasFlag(journalpost.KeyRedistributionOrdered))
			return nil
		})

	result, err := f.service.OrderRedistribution(context.Background(), jp, testAddress())
	require.NoError(t, err)
	assert.Equal(t, "order-new", result.TrackingID)
	assert.False(t, result.AlreadyOrdered)
}
