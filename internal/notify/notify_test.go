package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"
)

// --- Mock Slack client ---

type mockSlackClient struct {
	mu        sync.Mutex
	calls     int
	failCount int
	failErr   error
	channels  []string
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failCount {
		return "", "", m.failErr
	}
	m.channels = append(m.channels, channelID)
	return channelID, "1234567890.123456", nil
}

// --- Mock Discord session ---

type mockDiscordSession struct {
	mu        sync.Mutex
	calls     int
	failCount int
	failErr   error
	sent      []*discordgo.MessageSend
}

func (m *mockDiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failCount {
		return nil, m.failErr
	}
	m.sent = append(m.sent, data)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func rateLimited() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
}

func TestNew_Kinds(t *testing.T) {
	tests := []struct {
		opts    Opts
		want    string
		wantErr bool
	}{
		{Opts{}, "none", false},
		{Opts{Kind: "none"}, "none", false},
		{Opts{Kind: "slack", SlackToken: "xoxb-1", Channel: "C1"}, "slack", false},
		{Opts{Kind: "discord", DiscordToken: "tok", Channel: "123"}, "discord", false},
		{Opts{Kind: "slack", Channel: "C1"}, "", true},
		{Opts{Kind: "discord", DiscordToken: "tok"}, "", true},
		{Opts{Kind: "email"}, "", true},
	}
	for _, tt := range tests {
		n, err := New(tt.opts)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%+v) err = %v, wantErr %v", tt.opts, err, tt.wantErr)
			continue
		}
		if err == nil && n.Name() != tt.want {
			t.Errorf("New(%+v).Name() = %q, want %q", tt.opts, n.Name(), tt.want)
		}
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Notify(context.Background(), Message{Title: "x"}); err != nil {
		t.Errorf("Nop.Notify: %v", err)
	}
}

func TestSlack_Notify(t *testing.T) {
	client := &mockSlackClient{}
	s, err := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Notify(context.Background(), Message{Title: "Weekly report", Body: "all good"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(client.channels) != 1 || client.channels[0] != "C123" {
		t.Errorf("channels = %v", client.channels)
	}
}

func TestSlack_RetriesOnRateLimit(t *testing.T) {
	client := &mockSlackClient{failCount: 2, failErr: &slackapi.RateLimitedError{RetryAfter: time.Millisecond}}
	s, _ := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})

	if err := s.Notify(context.Background(), Message{Title: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestSlack_GivesUp(t *testing.T) {
	client := &mockSlackClient{failCount: 100, failErr: &slackapi.RateLimitedError{RetryAfter: time.Millisecond}}
	s, _ := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})

	if err := s.Notify(context.Background(), Message{Title: "x"}); err == nil {
		t.Fatal("expected error after retries")
	}
	if client.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", client.calls, maxRetries+1)
	}
}

func TestSlack_NoRetryOnOtherErrors(t *testing.T) {
	client := &mockSlackClient{failCount: 100, failErr: errors.New("channel_not_found")}
	s, _ := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})

	err := s.Notify(context.Background(), Message{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("err = %v", err)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestDiscord_NotifyEmbed(t *testing.T) {
	sess := &mockDiscordSession{}
	d, err := NewDiscord(DiscordOpts{Session: sess, ChannelID: "42"})
	if err != nil {
		t.Fatal(err)
	}
	msg := Message{
		Title:  "Weekly report",
		Body:   strings.Repeat("x", 5000),
		Color:  "#36a64f",
		Fields: []Field{{Name: "Completed", Value: "3", Short: true}},
	}
	if err := d.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sess.sent) != 1 || len(sess.sent[0].Embeds) != 1 {
		t.Fatalf("sent = %+v", sess.sent)
	}
	e := sess.sent[0].Embeds[0]
	if e.Title != "Weekly report" || e.Color != 0x36a64f {
		t.Errorf("embed = %+v", e)
	}
	if got := len([]rune(e.Description)); got != maxEmbedDescription {
		t.Errorf("description length = %d, want %d", got, maxEmbedDescription)
	}
	if len(e.Fields) != 1 || !e.Fields[0].Inline {
		t.Errorf("fields = %+v", e.Fields)
	}
}

func TestDiscord_RetriesOnRateLimit(t *testing.T) {
	sess := &mockDiscordSession{failCount: 1, failErr: rateLimited()}
	d, _ := NewDiscord(DiscordOpts{Session: sess, ChannelID: "42"})
	d.baseBackoff = time.Millisecond

	if err := d.Notify(context.Background(), Message{Title: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if sess.calls != 2 {
		t.Errorf("calls = %d, want 2", sess.calls)
	}
}

func TestDiscord_ContextCancelled(t *testing.T) {
	sess := &mockDiscordSession{failCount: 100, failErr: rateLimited()}
	d, _ := NewDiscord(DiscordOpts{Session: sess, ChannelID: "42"})
	d.baseBackoff = time.Hour
	d.maxBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Notify(ctx, Message{Title: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"FF0000", 0xff0000},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.in); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	if got := backoff(0, time.Second, 0); got != time.Second {
		t.Errorf("backoff(0) = %v", got)
	}
	if got := backoff(3, time.Second, 0); got != 8*time.Second {
		t.Errorf("backoff(3) = %v", got)
	}
	if got := backoff(10, time.Second, time.Minute); got != time.Minute {
		t.Errorf("capped backoff = %v", got)
	}
}
