// Package notify delivers reports to chat platforms.
package notify

import (
	"context"
	"fmt"
	"math"
	"time"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// Field is a short labelled value shown alongside the message body.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Message is a platform-neutral notification.
type Message struct {
	Title  string
	Body   string
	Color  string // hex, e.g. "#36a64f"
	Fields []Field
}

// Notifier sends a Message to a preconfigured destination.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
func (Nop) Name() string                          { return "none" }

// Opts selects and configures a notifier.
type Opts struct {
	Kind         string // none | slack | discord
	Channel      string
	SlackToken   string
	DiscordToken string
}

// New builds the notifier named by opts.Kind.
func New(opts Opts) (Notifier, error) {
	switch opts.Kind {
	case "", "none":
		return Nop{}, nil
	case "slack":
		return NewSlack(SlackOpts{BotToken: opts.SlackToken, ChannelID: opts.Channel})
	case "discord":
		return NewDiscord(DiscordOpts{BotToken: opts.DiscordToken, ChannelID: opts.Channel})
	default:
		return nil, fmt.Errorf("notify: unknown notifier %q", opts.Kind)
	}
}

// backoff returns the wait before retry attempt n (0-based), doubling from
// base and capped at limit.
func backoff(attempt int, base, limit time.Duration) time.Duration {
	wait := time.Duration(math.Pow(2, float64(attempt))) * base
	if limit > 0 && wait > limit {
		wait = limit
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
