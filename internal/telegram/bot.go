package telegram

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"oi-monitor/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrMissingCredentials is returned before any request when the token or chat id is empty
var ErrMissingCredentials = errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")

// NewBot creates new telegram bot. It calls getMe, so it needs the network.
func NewBot(c BotConfig) (*Bot, error) {
	if c.Token == "" || c.ChatID == "" {
		return nil, types.E(types.KindConfig, "telegram", ErrMissingCredentials)
	}
	if c.APIEndpoint == "" {
		c.APIEndpoint = tgbotapi.APIEndpoint
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, c.APIEndpoint, c.HTTPClient)
	if err != nil {
		return nil, types.E(types.KindTransport, "telegram", errors.Wrap(err, "could not create telegram bot"))
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// SendMessage sends a plain text telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := newMessage(m.ChatID, m.Text)
	msg.DisableWebPagePreview = true
	if _, err := b.Bot.Send(msg); err != nil {
		return types.E(types.KindTransport, "telegram", errors.Wrap(err, "could not send message"))
	}
	return nil
}

// newMessage addresses numeric chat ids directly and anything else as a channel username
func newMessage(chatID, text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(chatID, text)
}

// Notifier sends run digests to one configured chat
type Notifier struct {
	config BotConfig
}

func NewNotifier(c BotConfig) *Notifier {
	return &Notifier{config: c}
}

// Notify creates the bot client and sends text. Credentials are checked
// first, so a misconfigured notifier never touches the network.
func (n *Notifier) Notify(_ context.Context, text string) error {
	bot, err := NewBot(n.config)
	if err != nil {
		return err
	}
	if err := bot.SendMessage(Message{ChatID: n.config.ChatID, Text: text}); err != nil {
		return err
	}
	log.Infof("✅ Alert digest sent to chat %s", n.config.ChatID)
	return nil
}
