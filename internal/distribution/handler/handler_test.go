package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"dokflyt/internal/distribution"
	"dokflyt/internal/distribution/handler/mocks"
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

func TestHandleDistribute(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Distribute(gomock.Any(), "453857122", distribution.Request{BatchID: "batch-7"}).
		Return(&distribution.Result{TrackingID: "best-1", Channel: journalpost.ChannelCentralPrint}, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/journalpost/453857122/distribuer",
		map[string]string{"batchId": "batch-7"})
	rr := testutil.DoRequest(r, testutil.WithCaller(req, "Z999999", "4806"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "bestillingsId", "best-1")
	testutil.AssertJSONContains(t, rr, "alleredeBestilt", false)
	testutil.AssertJSONContains(t, rr, "kanal", "SENTRAL_UTSKRIFT")
}

func TestHandleDistributeAlreadyOrdered(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Distribute(gomock.Any(), "453857122", gomock.Any()).
		Return(&distribution.Result{TrackingID: "best-1", AlreadyOrdered: true, Channel: journalpost.ChannelCentralPrint}, nil)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/journalpost/453857122/distribuer", `{}`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "alleredeBestilt", true)
}

func TestHandleDistributeMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/journalpost/453857122/distribuer", `{"batchId":`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestHandleDistributeIneligible(t *testing.T) {
	r, service := newTestRouter(t)
	service.EXPECT().Distribute(gomock.Any(), "453857122", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "journalpost is not finalized"))

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/journalpost/453857122/distribuer", `{}`)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
}
