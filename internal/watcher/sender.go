package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/insta"
)

const (
	defaultSendAttempts = 3
	defaultSendBase     = time.Second
)

// Sender wraps the remote reply capability with bounded exponential backoff.
// Transient failures are retried with delay = base * 2^attempt; anything
// else aborts immediately.
type Sender struct {
	client   insta.DirectAPI
	attempts int
	base     time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewSender creates a sender with the default retry policy.
func NewSender(client insta.DirectAPI, timeout time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client:   client,
		attempts: defaultSendAttempts,
		base:     defaultSendBase,
		timeout:  timeout,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Send attempts to deliver a reply, retrying transient failures. Returns
// true on the first success and false once attempts are exhausted or a
// non-retryable error occurs.
func (s *Sender) Send(ctx context.Context, threadID, text string) bool {
	for attempt := 0; attempt < s.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.client.Reply(callCtx, threadID, text)
		cancel()
		if err == nil {
			return true
		}
		if !insta.IsTransient(err) {
			s.logger.Error("reply failed with non-retryable error",
				"thread_id", threadID, "error", err)
			return false
		}
		delay := s.base * time.Duration(1<<attempt)
		s.logger.Warn("reply failed, backing off",
			"thread_id", threadID,
			"attempt", attempt+1,
			"max_attempts", s.attempts,
			"delay", delay,
			"error", err)
		s.sleep(delay)
	}
	return false
}
