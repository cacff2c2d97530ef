package notification

import "time"

// Deadline reminder buckets, nearest first. A report that jumps straight
// into the 1-day bucket never retroactively earns the earlier ones: only the
// current bucket's checkpoint is claimed.
const (
	CheckpointReminder7Day = "reminder-7day"
	CheckpointReminder3Day = "reminder-3day"
	CheckpointReminder1Day = "reminder-1day"

	CheckpointNudge7Days = "nudge-after-7-days"

	CheckpointOutcomeAccepted = "outcome-accepted"
	CheckpointOutcomeRejected = "outcome-rejected"
)

// DeadlineCheckpoint maps time-until-deadline to the reminder bucket due
// now. ok is false when the deadline is still far out or already past.
func DeadlineCheckpoint(deadline, now time.Time) (string, bool) {
	remaining := deadline.Sub(now)
	switch {
	case remaining < 0:
		return "", false
	case remaining <= 24*time.Hour:
		return CheckpointReminder1Day, true
	case remaining <= 3*24*time.Hour:
		return CheckpointReminder3Day, true
	case remaining <= 7*24*time.Hour:
		return CheckpointReminder7Day, true
	}
	return "", false
}

// NudgeCheckpoint reports whether a party whose link went out at linkSentAt
// is due the unresponsive nudge.
func NudgeCheckpoint(linkSentAt, now time.Time) (string, bool) {
	if linkSentAt.IsZero() || now.Sub(linkSentAt) < 7*24*time.Hour {
		return "", false
	}
	return CheckpointNudge7Days, true
}

// OutcomeCheckpoint names the checkpoint for a filing outcome notification.
func OutcomeCheckpoint(accepted bool) string {
	if accepted {
		return CheckpointOutcomeAccepted
	}
	return CheckpointOutcomeRejected
}
