package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/audit"
	"deedflow/internal/notification"
	partymodels "deedflow/internal/party/models"
	reportmodels "deedflow/internal/report/models"
	id "deedflow/pkg/domain"
)

type capturingDispatcher struct {
	mu   sync.Mutex
	sent []notification.Message
	fail error
}

func (d *capturingDispatcher) Send(_ context.Context, msg notification.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *capturingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func newNotifier(dispatcher notification.Dispatcher) *notification.Notifier {
	return notification.NewNotifier(
		notification.NewInMemoryLedger(),
		dispatcher,
		audit.NewPublisher(audit.NewInMemoryStore()),
	)
}

func TestLedger_AtMostOnce(t *testing.T) {
	ledger := notification.NewInMemoryLedger()
	ctx := context.Background()

	claimed, err := ledger.Record(ctx, "subject-1", notification.KindReminder, notification.CheckpointReminder7Day)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = ledger.Record(ctx, "subject-1", notification.KindReminder, notification.CheckpointReminder7Day)
	require.NoError(t, err)
	assert.False(t, claimed)

	// A different checkpoint for the same subject is a fresh claim.
	claimed, err = ledger.Record(ctx, "subject-1", notification.KindReminder, notification.CheckpointReminder3Day)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestNotifier_SuppressesDuplicates(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	notifier := newNotifier(dispatcher)
	ctx := context.Background()
	msg := notification.Message{Recipient: "ops@example.com", Template: "filing-deadline-reminder"}

	claimed, err := notifier.Notify(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder7Day, msg)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = notifier.Notify(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder7Day, msg)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 1, dispatcher.count())
}

func TestNotifier_FailedSendStaysClaimed(t *testing.T) {
	dispatcher := &capturingDispatcher{fail: errors.New("provider down")}
	notifier := newNotifier(dispatcher)
	ctx := context.Background()

	claimed, err := notifier.Notify(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder1Day, notification.Message{})
	require.NoError(t, err)
	assert.True(t, claimed)

	// At-most-once: the lost message is not re-sendable.
	dispatcher.fail = nil
	claimed, err = notifier.Notify(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder1Day, notification.Message{})
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 0, dispatcher.count())
}

func TestDeadlineCheckpoint(t *testing.T) {
	deadline := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		now  time.Time
		want string
		due  bool
	}{
		{"far out", deadline.AddDate(0, 0, -30), "", false},
		{"seven days", deadline.AddDate(0, 0, -7), notification.CheckpointReminder7Day, true},
		// Between buckets the nearest pending bucket applies.
		{"five days", deadline.AddDate(0, 0, -5), notification.CheckpointReminder7Day, true},
		{"three days", deadline.AddDate(0, 0, -3), notification.CheckpointReminder3Day, true},
		{"one day", deadline.Add(-12 * time.Hour), notification.CheckpointReminder1Day, true},
		{"past deadline", deadline.Add(time.Hour), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, due := notification.DeadlineCheckpoint(deadline, tc.now)
			assert.Equal(t, tc.due, due)
			if tc.due {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

type staticReports struct {
	reports []*reportmodels.Report
}

func (s *staticReports) ListOpenWithDeadlines(context.Context) ([]*reportmodels.Report, error) {
	return s.reports, nil
}

func TestReminderSweep_DoubleRunSendsOnce(t *testing.T) {
	now := time.Date(2026, 4, 7, 9, 0, 0, 0, time.UTC)
	reports := &staticReports{reports: []*reportmodels.Report{
		{
			ID:             id.NewReportID(),
			Status:         reportmodels.StatusCollecting,
			FilingDeadline: now.AddDate(0, 0, 3),
		},
		{
			ID:             id.NewReportID(),
			Status:         reportmodels.StatusReadyToFile,
			FilingDeadline: now.AddDate(0, 0, 20),
		},
	}}
	dispatcher := &capturingDispatcher{}
	sweep := notification.NewReminderSweep(reports, newNotifier(dispatcher), "ops@example.com", slog.Default())

	require.NoError(t, sweep.Run(context.Background(), now))
	require.NoError(t, sweep.Run(context.Background(), now))

	// Only the report inside a bucket fires, and only once.
	assert.Equal(t, 1, dispatcher.count())
}

type staticParties struct {
	parties []*partymodels.Party
}

func (s *staticParties) ListAwaitingAction(context.Context) ([]*partymodels.Party, error) {
	return s.parties, nil
}

func TestNudgeSweep(t *testing.T) {
	now := time.Date(2026, 4, 7, 9, 0, 0, 0, time.UTC)
	parties := &staticParties{parties: []*partymodels.Party{
		{
			ID:         id.NewPartyID(),
			Status:     partymodels.StatusLinkSent,
			Email:      "jane.doe@example.com",
			LinkSentAt: now.AddDate(0, 0, -8),
		},
		{
			ID:         id.NewPartyID(),
			Status:     partymodels.StatusInProgress,
			Email:      "fresh@example.com",
			LinkSentAt: now.AddDate(0, 0, -2),
		},
	}}
	dispatcher := &capturingDispatcher{}
	sweep := notification.NewNudgeSweep(parties, newNotifier(dispatcher), slog.Default())

	require.NoError(t, sweep.Run(context.Background(), now))
	require.NoError(t, sweep.Run(context.Background(), now))

	require.Equal(t, 1, dispatcher.count())
	dispatcher.mu.Lock()
	msg := dispatcher.sent[0]
	dispatcher.mu.Unlock()
	assert.Equal(t, "jane.doe@example.com", msg.Recipient)
	assert.Equal(t, "Jane", msg.Data["first_name"])
}
