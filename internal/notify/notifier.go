package notify

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const (
	DefaultQueueSize = 256
	maxPreviewRunes  = 3500 // Telegram caps a message at 4096 characters
)

// Notifier pushes new jobs to one chat from a single worker goroutine,
// spaced so the bot stays under the Bot API flood limits.
type Notifier struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	queue   chan domain.AcceptedItem
	logger  logger.Logger
	dropped atomic.Int64
}

// NewNotifier sends at most one message per interval to chatID.
func NewNotifier(sender Sender, chatID int64, interval time.Duration, log logger.Logger) *Notifier {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Notifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(limit, 1),
		queue:   make(chan domain.AcceptedItem, DefaultQueueSize),
		logger:  log,
	}
}

// Notify queues item without blocking; it is dropped when the queue is full.
func (n *Notifier) Notify(item domain.AcceptedItem) {
	select {
	case n.queue <- item:
	default:
		n.dropped.Add(1)
		n.logger.Warn("notification queue full, dropping",
			logger.String("content_hash", item.ContentHash))
	}
}

// Dropped counts notifications lost to a full queue.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Run delivers queued notifications until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-n.queue:
			if err := n.limiter.Wait(ctx); err != nil {
				return nil
			}
			n.deliver(ctx, item)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, item domain.AcceptedItem) {
	msg := tgbotapi.NewMessage(n.chatID, FormatJob(item))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	_, err := n.sender.Send(msg)

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		n.logger.Warn("telegram flood limit hit, retrying", logger.Duration("retry_after", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		_, err = n.sender.Send(msg)
	}

	if err != nil {
		n.logger.Warn("failed to send job notification",
			logger.String("content_hash", item.ContentHash),
			logger.Error(err))
	}
}

// FormatJob renders item as a Telegram HTML message.
func FormatJob(item domain.AcceptedItem) string {
	var b strings.Builder
	b.WriteString("🆕 <b>New job</b>")
	if item.SourceName != "" {
		b.WriteString(" in <b>")
		b.WriteString(html.EscapeString(item.SourceName))
		b.WriteString("</b>")
	}
	b.WriteString("\n\n")
	b.WriteString(html.EscapeString(truncate(item.Text, maxPreviewRunes)))
	if item.Link != "" {
		b.WriteString("\n\n🔗 ")
		b.WriteString(html.EscapeString(item.Link))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
