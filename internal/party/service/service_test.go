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
	"deedflow/internal/notification"
	"deedflow/internal/party/models"
	"deedflow/internal/party/securelink"
	"deedflow/internal/party/service"
	"deedflow/internal/party/store"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/requestcontext"
)

type openGate struct{ denied error }

func (g *openGate) RosterOpen(context.Context, id.ReportID) error { return g.denied }

type capturingDispatcher struct {
	sent []notification.Message
}

func (d *capturingDispatcher) Send(_ context.Context, msg notification.Message) error {
	d.sent = append(d.sent, msg)
	return nil
}

func (d *capturingDispatcher) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, d.sent)
	token, ok := d.sent[len(d.sent)-1].Data["token"].(string)
	require.True(t, ok)
	return token
}

type fixture struct {
	svc        *service.Service
	gate       *openGate
	dispatcher *capturingDispatcher
	audits     *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gate := &openGate{}
	dispatcher := &capturingDispatcher{}
	audits := audit.NewInMemoryStore()
	svc := service.New(
		store.NewInMemoryStore(),
		securelink.NewIssuer([]byte("test-signing-key"), 14*24*time.Hour),
		securelink.NewInMemoryStore(),
		gate,
		dispatcher,
		audit.NewPublisher(audits),
	)
	return &fixture{svc: svc, gate: gate, dispatcher: dispatcher, audits: audits}
}

func testCtx() context.Context {
	ctx := requestcontext.WithActorID(context.Background(), "staff-1")
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (f *fixture) attach(t *testing.T, ctx context.Context, role models.Role, form determination.LegalForm) *models.Party {
	t.Helper()
	p, err := f.svc.Attach(ctx, id.NewReportID(), service.AttachRequest{
		Role:     role,
		Form:     form,
		Required: true,
		Email:    "jane.doe@example.com",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) submitted(t *testing.T, ctx context.Context) (*models.Party, string) {
	t.Helper()
	p := f.attach(t, ctx, models.RoleTransferee, determination.FormIndividual)
	_, err := f.svc.SendLink(ctx, p.ID)
	require.NoError(t, err)
	token := f.dispatcher.lastToken(t)
	p, err = f.svc.SubmitPayload(ctx, token, transfereePayload())
	require.NoError(t, err)
	return p, token
}

func transfereePayload() *models.Payload {
	return &models.Payload{
		Kind:                 models.KindTransfereeIndividual,
		TransfereeIndividual: &models.IndividualDetails{FullName: "Jane Doe"},
	}
}

func TestAttach(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := newFixture(t)
		p := f.attach(t, testCtx(), models.RoleTransferee, determination.FormTrust)
		assert.Equal(t, models.StatusPending, p.Status)
	})

	t.Run("beneficial owner must be an individual", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Attach(testCtx(), id.NewReportID(), service.AttachRequest{
			Role: models.RoleBeneficialOwner, Form: determination.FormEntity, Email: "x@example.com",
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("roster gate", func(t *testing.T) {
		f := newFixture(t)
		f.gate.denied = lifecycle.Violation("roster_closed", "report no longer accepts parties")
		_, err := f.svc.Attach(testCtx(), id.NewReportID(), service.AttachRequest{
			Role: models.RoleTransferee, Form: determination.FormIndividual, Email: "x@example.com",
		})
		assert.Equal(t, "roster_closed", lifecycle.GuardName(err))
	})
}

func TestSendLink(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	p := f.attach(t, ctx, models.RoleTransferee, determination.FormIndividual)

	p, err := f.svc.SendLink(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLinkSent, p.Status)
	assert.False(t, p.LinkExpiresAt.IsZero())
	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, "jane.doe@example.com", f.dispatcher.sent[0].Recipient)
	assert.Equal(t, "Jane", f.dispatcher.sent[0].Data["first_name"])

	t.Run("resend revokes the previous link", func(t *testing.T) {
		first := f.dispatcher.lastToken(t)
		_, err := f.svc.SendLink(ctx, p.ID)
		require.NoError(t, err)
		second := f.dispatcher.lastToken(t)
		require.NotEqual(t, first, second)

		_, err = f.svc.ResolveLink(ctx, first)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		resolved, err := f.svc.ResolveLink(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, p.ID, resolved.ID)
	})
}

func TestResolveLink_AdvancesToInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	p := f.attach(t, ctx, models.RoleTransferor, determination.FormEntity)
	_, err := f.svc.SendLink(ctx, p.ID)
	require.NoError(t, err)

	resolved, err := f.svc.ResolveLink(ctx, f.dispatcher.lastToken(t))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, resolved.Status)

	// Resolving again stays in_progress.
	resolved, err = f.svc.ResolveLink(ctx, f.dispatcher.lastToken(t))
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, resolved.Status)
}

func TestSubmitPayload(t *testing.T) {
	t.Run("accepts the matching variant", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.submitted(t, testCtx())
		assert.Equal(t, models.StatusSubmitted, p.Status)
		require.NotNil(t, p.Payload)
		assert.Equal(t, models.KindTransfereeIndividual, p.Payload.Kind)
	})

	t.Run("rejects a mismatched variant", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()
		p := f.attach(t, ctx, models.RoleTransferee, determination.FormEntity)
		_, err := f.svc.SendLink(ctx, p.ID)
		require.NoError(t, err)

		_, err = f.svc.SubmitPayload(ctx, f.dispatcher.lastToken(t), transfereePayload())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects a payload with a foreign variant set", func(t *testing.T) {
		f := newFixture(t)
		ctx := testCtx()
		p := f.attach(t, ctx, models.RoleTransferee, determination.FormIndividual)
		_, err := f.svc.SendLink(ctx, p.ID)
		require.NoError(t, err)

		payload := transfereePayload()
		payload.TransferorEntity = &models.EntityDetails{LegalName: "Acme"}
		_, err = f.svc.SubmitPayload(ctx, f.dispatcher.lastToken(t), payload)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	p, token := f.submitted(t, ctx)

	p, err := f.svc.Verify(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, p.Status)

	// The retired link no longer resolves.
	_, err = f.svc.ResolveLink(ctx, token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// Verified is final for the party.
	_, err = f.svc.Verify(ctx, p.ID)
	assert.Equal(t, "illegal_transition", lifecycle.GuardName(err))
}

func TestRequestCorrection(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	p, token := f.submitted(t, ctx)

	t.Run("requires a reason", func(t *testing.T) {
		_, err := f.svc.RequestCorrection(ctx, p.ID, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	p, err := f.svc.RequestCorrection(ctx, p.ID, "address does not match the deed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, p.Status)

	events, err := audit.NewPublisher(f.audits).List(ctx, "party", p.ID.String())
	require.NoError(t, err)
	var corrections int
	for _, ev := range events {
		if ev.Action == audit.ActionCorrectionRequested {
			corrections++
			assert.Equal(t, "address does not match the deed", ev.Reason)
		}
	}
	assert.Equal(t, 1, corrections)

	// The party can resubmit through the still-active link.
	p, err = f.svc.SubmitPayload(ctx, token, transfereePayload())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, p.Status)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	repID := id.NewReportID()

	transferee, err := f.svc.Attach(ctx, repID, service.AttachRequest{
		Role: models.RoleTransferee, Form: determination.FormIndividual, Required: true, Email: "a@example.com",
	})
	require.NoError(t, err)
	_, err = f.svc.Attach(ctx, repID, service.AttachRequest{
		Role: models.RoleReportingPerson, Form: determination.FormEntity, Required: false, Email: "b@example.com",
	})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, repID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.LinksDispatched)
	assert.Equal(t, 1, summary.RequiredBelowSubmitted)
	assert.True(t, summary.ReportingPersonDesignated)

	_, err = f.svc.SendLink(ctx, transferee.ID)
	require.NoError(t, err)
	token := f.dispatcher.lastToken(t)
	_, err = f.svc.SubmitPayload(ctx, token, transfereePayload())
	require.NoError(t, err)

	summary, err = f.svc.Summary(ctx, repID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LinksDispatched)
	assert.Equal(t, 0, summary.RequiredBelowSubmitted)
}
