package app

import (
	"time"
)

// StaleConversationDeleter removes unsaved conversations last touched before
// a cutoff, cascading to their messages.
type StaleConversationDeleter interface {
	DeleteStale(cutoff time.Time) (int64, error)
}

// RetentionSweeper deletes stale unpinned conversations. It runs once at
// process startup; running it again is harmless.
type RetentionSweeper struct {
	conversations StaleConversationDeleter
	window        time.Duration
}

func NewRetentionSweeper(conversations StaleConversationDeleter, retentionDays int) *RetentionSweeper {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RetentionSweeper{
		conversations: conversations,
		window:        time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Run deletes every unsaved conversation older than the retention window and
// returns how many were removed.
func (s *RetentionSweeper) Run() (int64, error) {
	cutoff := time.Now().Add(-s.window)
	return s.conversations.DeleteStale(cutoff)
}
