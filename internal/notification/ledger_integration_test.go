//go:build integration

package notification_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"deedflow/internal/notification"
	"deedflow/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	ledger   *notification.PostgresLedger
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.ledger = notification.NewPostgresLedger(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "notification_events"))
}

func (s *PostgresLedgerSuite) TestRecordClaimsCheckpointOnce() {
	ctx := context.Background()

	claimed, err := s.ledger.Record(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder7Day)
	s.Require().NoError(err)
	s.True(claimed)

	claimed, err = s.ledger.Record(ctx, "report-1", notification.KindReminder, notification.CheckpointReminder7Day)
	s.Require().NoError(err)
	s.False(claimed)
}

func (s *PostgresLedgerSuite) TestDistinctCheckpointsAreIndependent() {
	ctx := context.Background()

	for _, checkpoint := range []string{
		notification.CheckpointReminder7Day,
		notification.CheckpointReminder3Day,
		notification.CheckpointReminder1Day,
	} {
		claimed, err := s.ledger.Record(ctx, "report-1", notification.KindReminder, checkpoint)
		s.Require().NoError(err)
		s.True(claimed, checkpoint)
	}

	claimed, err := s.ledger.Record(ctx, "report-2", notification.KindReminder, notification.CheckpointReminder7Day)
	s.Require().NoError(err)
	s.True(claimed, "different subject claims its own checkpoint")
}

func (s *PostgresLedgerSuite) TestConcurrentClaimsOneWinner() {
	ctx := context.Background()

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			claimed, err := s.ledger.Record(ctx, "report-1", notification.KindOutcome, notification.CheckpointOutcomeAccepted)
			if err != nil {
				return
			}
			if claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins, "exactly one concurrent claim wins")
}
