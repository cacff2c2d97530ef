package reconciliation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/reconciliation"
	id "deedflow/pkg/domain"
)

func TestDropDirectory(t *testing.T) {
	dir := t.TempDir()
	source, err := reconciliation.NewDropDirectory(dir)
	require.NoError(t, err)
	ctx := context.Background()

	writeAck := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o640))
	}
	writeAck("02-second.json", `{"receipt_id":"RCPT-2","outcome":"rejected","reason":"bad schema"}`)
	writeAck("01-first.json", `{"receipt_id":"RCPT-1","outcome":"accepted"}`)
	writeAck("03-broken.json", `{not json`)
	writeAck("ignore.txt", "not an ack")

	acks, err := source.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, acks, 3)

	// Deterministic order by file name.
	assert.Equal(t, id.ReceiptID("RCPT-1"), acks[0].ReceiptID)
	assert.Equal(t, id.ReceiptID("RCPT-2"), acks[1].ReceiptID)
	assert.Equal(t, "bad schema", acks[1].Reason)
	assert.True(t, acks[2].Malformed)
	assert.Equal(t, "03-broken.json", acks[2].Source)

	// Settling moves the file out of the feed.
	require.NoError(t, source.Settle(ctx, acks[0]))
	remaining, err := source.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.FileExists(t, filepath.Join(dir, "processed", "01-first.json"))
}
