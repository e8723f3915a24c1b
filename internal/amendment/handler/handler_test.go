package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"dokflyt/internal/amendment"
	"dokflyt/internal/amendment/handler/mocks"
	"dokflyt/internal/journalpost"
	dErrors "dokflyt/pkg/domain-errors"
	"dokflyt/pkg/testutil"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(service, logger).Register(r)
	return r, service
}

func TestHandleAmendMapsRequest(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Amend(gomock.Any(), "453857122", gomock.Any(), amendment.Requester{Ident: "Z999999", Unit: "4806"}).
		DoAndReturn(func(_ any, _ string, cmd amendment.Command, _ amendment.Requester) (*amendment.Result, error) {
			require.NotNil(t, cmd.Title)
			assert.Equal(t, "Ny tittel", *cmd.Title)
			assert.True(t, cmd.Journalize)
			require.Len(t, cmd.Cases, 1)
			assert.Equal(t, journalpost.Case{ID: "sak-1", Theme: "BID"}, cmd.Cases[0])
			require.Len(t, cmd.ReturnLogEdits, 1)
			assert.Equal(t, "retur", cmd.ReturnLogEdits[0].Description)
			assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), cmd.ReturnLogEdits[0].Date)
			return &amendment.Result{Journalized: true, LinkedCases: []string{"sak-1"}}, nil
		})

	req := testutil.NewRequestWithBody(t, http.MethodPut, "/journalpost/453857122",
		`{
			"tittel": "Ny tittel",
			"journalfoer": true,
			"saker": [{"sakId": "sak-1", "tema": "BID"}],
			"returlogg": [{"beskrivelse": "retur", "dato": "2026-07-10T00:00:00Z"}]
		}`)
	rr := testutil.DoRequest(r, testutil.WithCaller(req, "Z999999", "4806"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "journalfoert", true)
}

func TestHandleAmendSurfacesWarnings(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Amend(gomock.Any(), "453857122", gomock.Any(), gomock.Any()).
		Return(&amendment.Result{Warnings: []amendment.Warning{{Step: "sakstilknytning", Message: "archive unavailable"}}}, nil)

	req := testutil.NewRequestWithBody(t, http.MethodPut, "/journalpost/453857122", `{"tittel":"x"}`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[amendment.Result](t, rr)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "sakstilknytning", resp.Warnings[0].Step)
}

func TestHandleAmendMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := testutil.NewRequestWithBody(t, http.MethodPut, "/journalpost/453857122", `{"tittel":`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestHandleAmendValidationError(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Amend(gomock.Any(), "453857122", gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "return date in the future"))

	req := testutil.NewRequestWithBody(t, http.MethodPut, "/journalpost/453857122", `{}`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}
