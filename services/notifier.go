package services

import (
	"context"
	"time"

	"apartment-watcher/metrics"
	"apartment-watcher/models"
	"apartment-watcher/notifier"
	"apartment-watcher/utils"
)

// MessageSender delivers a message to one chat.
type MessageSender interface {
	Send(ctx context.Context, chatID string, msg notifier.Message) error
}

// DeliveryOutcome is the result of one message to one recipient.
type DeliveryOutcome struct {
	ChatID string
	Err    error
}

// Notifier fans messages out to every configured recipient. Delivery
// failures are logged and returned as outcomes, never as errors, so one
// unreachable chat cannot fail a cycle.
type Notifier struct {
	sender   MessageSender
	chatIDs  []string
	location *time.Location
	metrics  *metrics.Recorder
	logger   *utils.Logger
}

// NewNotifier creates a Notifier. rec may be nil.
func NewNotifier(sender MessageSender, chatIDs []string, loc *time.Location, rec *metrics.Recorder, logger *utils.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{sender: sender, chatIDs: chatIDs, location: loc, metrics: rec, logger: logger}
}

// NotifyListing announces a newly seen listing.
func (n *Notifier) NotifyListing(ctx context.Context, l models.Listing) []DeliveryOutcome {
	return n.broadcast(ctx, "listing", ListingMessage(l))
}

// NotifySummary sends the end-of-cycle counters.
func (n *Notifier) NotifySummary(ctx context.Context, r *models.CycleReport) []DeliveryOutcome {
	return n.broadcast(ctx, "summary", SummaryMessage(r, n.location))
}

// NotifyError reports a failed cycle.
func (n *Notifier) NotifyError(ctx context.Context, err error) []DeliveryOutcome {
	return n.broadcast(ctx, "error", ErrorMessage(err))
}

func (n *Notifier) broadcast(ctx context.Context, kind string, msg notifier.Message) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, 0, len(n.chatIDs))
	for _, chatID := range n.chatIDs {
		err := n.sender.Send(ctx, chatID, msg)
		outcomes = append(outcomes, DeliveryOutcome{ChatID: chatID, Err: err})
		n.metrics.Delivery(kind, err == nil)

		if err != nil {
			n.logger.Log(models.LevelError, "Error sending Telegram notification to "+chatID, utils.Fields{
				"chatId": chatID,
				"kind":   kind,
				"error":  err.Error(),
			})
			continue
		}
		n.logger.Debug("[notify] %s message delivered to %s", kind, chatID)
	}
	return outcomes
}

// Failed counts the outcomes that carry an error.
func Failed(outcomes []DeliveryOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
