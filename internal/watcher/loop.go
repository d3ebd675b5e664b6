package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Atmsamma/InstaConnect/internal/domain"
	"github.com/Atmsamma/InstaConnect/internal/insta"
	"github.com/Atmsamma/InstaConnect/internal/tracker"
)

// Config holds loop tuning knobs.
type Config struct {
	// Interval is the sleep between cycles.
	Interval time.Duration
	// Cooldown is the longer sleep after an error escapes a cycle.
	Cooldown time.Duration
	// FetchLimit bounds how many recent threads each cycle fetches.
	FetchLimit int
	// CallTimeout bounds each individual remote call.
	CallTimeout time.Duration
	// ReplyTemplate is the reply text; "{username}" is substituted with the
	// sender's display name.
	ReplyTemplate string
}

// Loop polls DM threads and replies at most once per qualifying message.
// It owns the tracker and history files while running; nothing else may
// write them.
type Loop struct {
	client  insta.DirectAPI
	matcher *Matcher
	sender  *Sender
	tracker *tracker.Tracker
	history *tracker.History
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a watcher loop.
func New(client insta.DirectAPI, matcher *Matcher, sender *Sender, trk *tracker.Tracker, hist *tracker.History, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 10
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Loop{
		client:  client,
		matcher: matcher,
		sender:  sender,
		tracker: trk,
		history: hist,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run polls until the context is cancelled. Remote failures never terminate
// the loop; an error escaping a cycle only extends the sleep to the cooldown
// interval.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("watcher loop started",
		"interval", l.cfg.Interval,
		"fetch_limit", l.cfg.FetchLimit,
		"triggers", l.matcher.Words())

	for {
		pause := l.cfg.Interval
		if err := l.runCycle(ctx); err != nil {
			l.logger.Error("cycle failed, cooling down", "error", err, "cooldown", l.cfg.Cooldown)
			pause = l.cfg.Cooldown
		}
		select {
		case <-ctx.Done():
			l.logger.Info("watcher loop stopped", "reason", ctx.Err())
			return
		case <-time.After(pause):
		}
	}
}

// runCycle fetches recent threads and handles each. A panic inside the cycle
// is converted to an error so the loop survives it.
func (l *Loop) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	threads, fetchErr := l.client.Threads(fetchCtx, l.cfg.FetchLimit)
	cancel()
	if fetchErr != nil {
		// Fails soft: skip this cycle, the next one retries.
		l.logger.Warn("could not fetch threads, skipping cycle", "error", fetchErr)
		return nil
	}

	for _, th := range threads {
		if len(th.Messages) == 0 {
			continue
		}
		l.handleThread(ctx, th)
	}
	return nil
}

// handleThread scans a thread's messages until the last-replied marker and
// replies to at most one qualifying message. The tracker is advanced whether
// or not the reply went out, so a failing send cannot cause a reply storm.
func (l *Loop) handleThread(ctx context.Context, th domain.Thread) {
	lastSeen := l.tracker.LastReplied(th.ID)

	for _, msg := range th.Messages {
		if msg.ID == lastSeen {
			// Everything from here on was already handled.
			break
		}

		words, ok := l.matcher.Match(msg)
		if !ok {
			l.logger.Debug("no trigger in message", "thread_id", th.ID, "message_id", msg.ID)
			continue
		}

		username := l.safeUsername(ctx, msg.UserID)
		l.logger.Info("trigger matched",
			"thread_id", th.ID,
			"message_id", msg.ID,
			"username", username,
			"words", words,
			"media_share", msg.HasMediaShare())

		sent := l.sender.Send(ctx, th.ID, l.renderReply(username))
		if !sent {
			l.logger.Error("all reply attempts failed, marking message seen", "message_id", msg.ID)
			l.markSeen(ctx, th.ID, msg.ID)
		}

		if err := l.tracker.MarkReplied(th.ID, msg.ID); err != nil {
			l.logger.Error("failed to persist tracker", "thread_id", th.ID, "error", err)
		}

		rec := domain.TriggerRecord{
			MessageID:      msg.ID,
			ThreadID:       th.ID,
			UserID:         msg.UserID,
			Username:       username,
			Text:           msg.Text,
			HasMediaShare:  msg.HasMediaShare(),
			TriggeredWords: words,
			ReplySent:      sent,
			CreatedAt:      l.now().Format("2006-01-02 15:04:05"),
		}
		if msg.Timestamp != nil {
			rec.Timestamp = msg.Timestamp.Format(time.RFC3339)
		}
		if msg.MediaShare != nil {
			rec.MediaShareCode = msg.MediaShare.Code
		}
		if stored, err := l.history.Record(rec); err != nil {
			l.logger.Warn("failed to store trigger record", "message_id", msg.ID, "error", err)
		} else if stored {
			l.logger.Info("stored trigger record", "message_id", msg.ID)
		}

		// One reply per thread per cycle bounds the blast radius of a
		// runaway trigger.
		break
	}
}

// safeUsername resolves a display name, falling back to a synthetic
// placeholder when the lookup fails.
func (l *Loop) safeUsername(ctx context.Context, userID string) string {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	username, err := l.client.Username(callCtx, userID)
	if err != nil || username == "" {
		l.logger.Warn("username lookup failed, using placeholder", "user_id", userID, "error", err)
		return "user_" + userID
	}
	return username
}

// markSeen is best-effort; a failure is logged and never propagated.
func (l *Loop) markSeen(ctx context.Context, threadID, messageID string) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	if err := l.client.MarkSeen(callCtx, threadID, messageID); err != nil {
		l.logger.Warn("could not mark message seen", "message_id", messageID, "error", err)
	}
}

func (l *Loop) renderReply(username string) string {
	return strings.ReplaceAll(l.cfg.ReplyTemplate, "{username}", username)
}
