package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/config"
)

// Client sends plain text messages through the Telegram Bot API.
type Client struct {
	logger *slog.Logger

	token      string
	endpoint   string
	httpClient *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewClient(logger *slog.Logger, conf config.Telegram, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	endpoint := conf.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	return &Client{
		logger:     logger.With("component", "telegram"),
		token:      conf.BotToken,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Deliver sends text to identity, which is either a numeric chat ID or an @username.
// It makes a single attempt.
func (that *Client) Deliver(ctx context.Context, identity, text string) error {
	log := that.logger.With("method", "Deliver", "identity", identity)

	if that.token == "" {
		return apperror.ErrBotNotConfigured
	}

	msg, err := newMessage(identity, text)
	if err != nil {
		return err
	}

	bot, err := that.botAPI(ctx)
	if err != nil {
		return err
	}

	if _, err = bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Debug("message sent")

	return nil
}

// botAPI returns a copy of the shared bot bound to ctx. The first call
// authorizes the token with getMe; a failed attempt is retried on the next call.
func (that *Client) botAPI(ctx context.Context) (*tgbotapi.BotAPI, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.bot == nil {
		bot, err := tgbotapi.NewBotAPIWithClient(that.token, that.endpoint, contextClient{ctx: ctx, client: that.httpClient})
		if err != nil {
			return nil, fmt.Errorf("failed to authorize bot: %w", err)
		}

		that.logger.Info("bot authorized", "username", bot.Self.UserName)
		that.bot = bot
	}

	bot := *that.bot
	bot.Client = contextClient{ctx: ctx, client: that.httpClient}

	return &bot, nil
}

func newMessage(identity, text string) (tgbotapi.MessageConfig, error) {
	if username, ok := strings.CutPrefix(identity, "@"); ok {
		if username == "" {
			return tgbotapi.MessageConfig{}, fmt.Errorf("%w: %q", apperror.ErrInvalidIdentity, identity)
		}

		return tgbotapi.NewMessageToChannel(identity, text), nil
	}

	chatID, err := strconv.ParseInt(identity, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("%w: %q", apperror.ErrInvalidIdentity, identity)
	}

	return tgbotapi.NewMessage(chatID, text), nil
}

// contextClient attaches ctx to requests built by the bot library.
type contextClient struct {
	ctx    context.Context //nolint: containedctx // the library builds requests without a context
	client *http.Client
}

func (that contextClient) Do(req *http.Request) (*http.Response, error) {
	return that.client.Do(req.WithContext(that.ctx))
}
