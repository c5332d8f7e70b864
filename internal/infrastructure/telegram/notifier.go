package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"ContractTracker/internal/config"
	"ContractTracker/internal/ports"
)

// maxMessageRunes is the Bot API limit for one message.
const maxMessageRunes = 4096

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	apiURL   string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty APIURL
// targets the public Bot API.
func NewNotifier(cfg config.TelegramConfig, client *http.Client) *Notifier {
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Notifier{
		apiURL:   apiURL,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   client,
	}
}

// PublishDigest posts a Markdown message to Telegram. Digests longer than one
// message are split on line boundaries.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	for i, chunk := range splitMessage(digest, maxMessageRunes) {
		if err := n.send(ctx, chunk); err != nil {
			return fmt.Errorf("send part %d: %w", i+1, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// breaks. A single oversized line is cut hard, never right after an escaping
// backslash.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		size   int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > 0 {
			room := limit - size
			if len(runes) <= room {
				cur.WriteString(string(runes))
				size += len(runes)
				break
			}
			if size > 0 {
				flush()
				continue
			}
			cut := limit
			if cut > 1 && runes[cut-1] == '\\' {
				cut--
			}
			cur.WriteString(string(runes[:cut]))
			size = cut
			runes = runes[cut:]
			flush()
		}
	}
	flush()
	return chunks
}
