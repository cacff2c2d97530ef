package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/audit"
	"deedflow/internal/determination"
	"deedflow/internal/submission/handler"
	"deedflow/internal/submission/models"
	"deedflow/internal/submission/service"
	"deedflow/internal/submission/store"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/testutil"
)

type fakeReportCreator struct {
	created []id.SubmissionID
}

func (f *fakeReportCreator) CreateForSubmission(_ context.Context, subID id.SubmissionID, _ time.Time) (id.ReportID, error) {
	f.created = append(f.created, subID)
	return id.NewReportID(), nil
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		store.NewInMemoryStore(),
		determination.NewEngine(),
		&fakeReportCreator{},
		audit.NewPublisher(audit.NewInMemoryStore()),
		service.WithLogger(logger),
	)
	return handler.New(svc, logger).Routes()
}

func intakeBody(propertyClass, financing string) map[string]any {
	return map[string]any{
		"property_class": propertyClass,
		"financing":      financing,
		"buyer_form":     "entity",
		"closing_date":   time.Now().Add(20 * 24 * time.Hour).Format(time.RFC3339),
	}
}

func TestIntake(t *testing.T) {
	h := newHandler(t)

	testutil.Given(t, "an all-cash entity purchase of residential property", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/", intakeBody("residential", "cash"))
		rr := testutil.DoRequest(h, testutil.WithActor(req, "analyst-1"))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		sub := testutil.UnmarshalResponse[models.Submission](t, rr)
		require.Len(t, sub.Determinations, 1)
		assert.Equal(t, determination.VerdictReportable, sub.Determinations[0].Verdict)
	})
}

func TestIntakeRejectsUnknownFields(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/", `{"property_class":"residential","bogus":true}`)
	rr := testutil.DoRequest(h, req)

	testutil.AssertErrorCode(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func TestGetUnknownSubmission(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(t, http.MethodGet, "/"+id.NewSubmissionID().String())
	rr := testutil.DoRequest(h, req)

	testutil.AssertErrorCode(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func TestGetMalformedID(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(t, http.MethodGet, "/not-a-uuid")
	rr := testutil.DoRequest(h, req)

	testutil.AssertErrorCode(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func TestOverrideRecordsActor(t *testing.T) {
	h := newHandler(t)

	create := testutil.NewJSONRequest(t, http.MethodPost, "/", intakeBody("commercial", "cash"))
	created := testutil.UnmarshalResponse[models.Submission](t, testutil.DoRequest(h, create))
	require.Equal(t, determination.VerdictExempt, created.Determinations[0].Verdict)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/"+created.ID.String()+"/override", map[string]any{
		"verdict":       "reportable",
		"justification": "analyst review found a residential unit on the parcel",
	})
	rr := testutil.DoRequest(h, testutil.WithActor(req, "analyst-2"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	sub := testutil.UnmarshalResponse[models.Submission](t, rr)
	require.Len(t, sub.Determinations, 2)
	assert.Equal(t, determination.MethodManualOverride, sub.Determinations[1].Method)
	assert.Equal(t, "analyst-2", sub.Determinations[1].ActorID)
}

func TestOverrideWithoutJustification(t *testing.T) {
	h := newHandler(t)

	create := testutil.NewJSONRequest(t, http.MethodPost, "/", intakeBody("commercial", "cash"))
	created := testutil.UnmarshalResponse[models.Submission](t, testutil.DoRequest(h, create))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/"+created.ID.String()+"/override", map[string]any{
		"verdict": "reportable",
	})
	rr := testutil.DoRequest(h, req)

	testutil.AssertErrorCode(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func TestDeterminationHistory(t *testing.T) {
	h := newHandler(t)

	create := testutil.NewJSONRequest(t, http.MethodPost, "/", intakeBody("residential", "cash"))
	created := testutil.UnmarshalResponse[models.Submission](t, testutil.DoRequest(h, create))

	req := testutil.NewRequest(t, http.MethodGet, "/"+created.ID.String()+"/determinations")
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	history := testutil.UnmarshalResponse[[]models.DeterminationRecord](t, rr)
	require.Len(t, *history, 1)
}
