package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/audit"
	"deedflow/internal/determination"
	"deedflow/internal/lifecycle"
	"deedflow/internal/submission/service"
	"deedflow/internal/submission/store"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/requestcontext"
)

type fakeReportCreator struct {
	created []id.SubmissionID
}

func (f *fakeReportCreator) CreateForSubmission(_ context.Context, subID id.SubmissionID, _ time.Time) (id.ReportID, error) {
	f.created = append(f.created, subID)
	return id.NewReportID(), nil
}

func newService(t *testing.T) (*service.Service, *fakeReportCreator) {
	t.Helper()
	creator := &fakeReportCreator{}
	svc := service.New(
		store.NewInMemoryStore(),
		determination.NewEngine(),
		creator,
		audit.NewPublisher(audit.NewInMemoryStore()),
	)
	return svc, creator
}

func testCtx() context.Context {
	ctx := requestcontext.WithActorID(context.Background(), "staff-1")
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func reportableAttrs() determination.Attributes {
	return determination.Attributes{
		PropertyClass: determination.PropertyResidential,
		Financing:     determination.FinancingCash,
		BuyerForm:     determination.FormEntity,
	}
}

func TestIntake_ReportableOpensReport(t *testing.T) {
	svc, creator := newService(t)

	sub, err := svc.Intake(testCtx(), service.IntakeRequest{
		Attributes:  reportableAttrs(),
		ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, determination.VerdictReportable, sub.Verdict())
	require.Len(t, sub.Determinations, 1)
	assert.Equal(t, determination.MethodAutomatic, sub.Determinations[0].Method)
	require.Len(t, creator.created, 1)
	assert.Equal(t, sub.ID, creator.created[0])
}

func TestIntake_ExemptDoesNotOpenReport(t *testing.T) {
	svc, creator := newService(t)

	attrs := reportableAttrs()
	attrs.PropertyClass = determination.PropertyCommercial
	sub, err := svc.Intake(testCtx(), service.IntakeRequest{
		Attributes:  attrs,
		ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, determination.VerdictExempt, sub.Verdict())
	assert.Empty(t, creator.created)
}

func TestIntake_RequiresClosingDate(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Intake(testCtx(), service.IntakeRequest{Attributes: reportableAttrs()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestReevaluate_OnlyWhileUndetermined(t *testing.T) {
	svc, creator := newService(t)
	ctx := testCtx()

	attrs := reportableAttrs()
	attrs.Financing = "" // unanswered, verdict stays open
	sub, err := svc.Intake(ctx, service.IntakeRequest{
		Attributes:  attrs,
		ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, determination.VerdictUndetermined, sub.Verdict())
	assert.Empty(t, creator.created)

	sub, err = svc.Reevaluate(ctx, sub.ID, reportableAttrs())
	require.NoError(t, err)
	assert.Equal(t, determination.VerdictReportable, sub.Verdict())
	assert.Len(t, sub.Determinations, 2)
	assert.Len(t, creator.created, 1)

	_, err = svc.Reevaluate(ctx, sub.ID, reportableAttrs())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeGuardViolation))
	assert.Equal(t, "verdict_immutable", lifecycle.GuardName(err))
}

func TestOverride(t *testing.T) {
	t.Run("requires justification", func(t *testing.T) {
		svc, _ := newService(t)
		sub, err := svc.Intake(testCtx(), service.IntakeRequest{
			Attributes:  reportableAttrs(),
			ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		_, err = svc.Override(testCtx(), sub.ID, determination.VerdictExempt, "   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects undetermined target", func(t *testing.T) {
		svc, _ := newService(t)
		sub, err := svc.Intake(testCtx(), service.IntakeRequest{
			Attributes:  reportableAttrs(),
			ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		_, err = svc.Override(testCtx(), sub.ID, determination.VerdictUndetermined, "missing facts")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("appends a record and keeps history", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := testCtx()
		sub, err := svc.Intake(ctx, service.IntakeRequest{
			Attributes:  reportableAttrs(),
			ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		sub, err = svc.Override(ctx, sub.ID, determination.VerdictExempt, "counsel reviewed trust instrument")
		require.NoError(t, err)

		require.Len(t, sub.Determinations, 2)
		assert.Equal(t, determination.MethodAutomatic, sub.Determinations[0].Method)
		assert.Equal(t, determination.MethodManualOverride, sub.Determinations[1].Method)
		assert.Equal(t, "staff-1", sub.Determinations[1].ActorID)
		assert.Equal(t, determination.VerdictExempt, sub.Verdict())
	})

	t.Run("override to reportable opens a report", func(t *testing.T) {
		svc, creator := newService(t)
		ctx := testCtx()
		attrs := reportableAttrs()
		attrs.PropertyClass = determination.PropertyCommercial
		sub, err := svc.Intake(ctx, service.IntakeRequest{
			Attributes:  attrs,
			ClosingDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Empty(t, creator.created)

		_, err = svc.Override(ctx, sub.ID, determination.VerdictReportable, "classification was wrong at intake")
		require.NoError(t, err)
		assert.Len(t, creator.created, 1)
	})
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Get(testCtx(), id.NewSubmissionID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
