package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/platform/resilience"
	"golang.org/x/time/rate"
)

const (
	maxCaptionRunes     = 1024
	defaultRatePerMin   = 20
	defaultMaxRetries   = 2
	defaultMaxRetryWait = 30 * time.Second
)

var errTelegramTransient = crerr.New("telegram transient failure")

type SenderConfig struct {
	HTTPClient     *http.Client
	Token          string
	Channel        string
	APIEndpoint    string
	Timeout        time.Duration
	RatePerMinute  int
	MaxRetries     int
	RetryBackoff   time.Duration
	MaxRetryWait   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Sender posts to one Telegram channel. The bot client is created on first
// use so the process can boot while Telegram is unreachable.
type Sender struct {
	httpClient   *http.Client
	token        string
	endpoint     string
	chatID       int64
	channelName  string
	maxRetries   int
	retryBackoff time.Duration
	maxRetryWait time.Duration
	limiter      *rate.Limiter
	logger       *logging.Logger
	guard        *resilience.Guard

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

var _ content.Sender = (*Sender)(nil)

func NewSender(cfg SenderConfig) (*Sender, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	chatID, channelName, err := parseChannel(cfg.Channel)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}
	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = defaultRatePerMin
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxWait := cfg.MaxRetryWait
	if maxWait <= 0 {
		maxWait = defaultMaxRetryWait
	}

	return &Sender{
		httpClient:   httpClient,
		token:        token,
		endpoint:     endpoint,
		chatID:       chatID,
		channelName:  channelName,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		maxRetryWait: maxWait,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:       logger.Named("telegram"),
		guard:        resilience.NewGuard("telegram", cfg.CircuitBreaker, isTelegramCircuitFailure),
	}, nil
}

// InstallLogger routes the bot library's own log lines into logger.
func InstallLogger(logger *logging.Logger) error {
	return tgbotapi.SetLogger(logger.Named("telegram").BotLogger())
}

func (s *Sender) SendText(ctx context.Context, text string, keyboard content.Keyboard) (content.Receipt, error) {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ChannelUsername = s.channelName
	msg.DisableWebPagePreview = true
	if markup, ok := inlineKeyboard(keyboard); ok {
		msg.ReplyMarkup = markup
	}
	return s.send(ctx, "sendMessage", msg)
}

// SendPhoto posts image with caption. Captions over Telegram's limit are
// sent as a follow-up text message carrying the keyboard.
func (s *Sender) SendPhoto(ctx context.Context, image content.Image, caption string, keyboard content.Keyboard) (content.Receipt, error) {
	if image.Empty() {
		return s.SendText(ctx, caption, keyboard)
	}

	name := strings.TrimSpace(image.Name)
	if name == "" {
		name = "post.png"
	}
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: name, Bytes: image.Data})
	photo.ChannelUsername = s.channelName

	if utf8.RuneCountInString(caption) > maxCaptionRunes {
		if _, err := s.send(ctx, "sendPhoto", photo); err != nil {
			return content.Receipt{}, err
		}
		return s.SendText(ctx, caption, keyboard)
	}

	photo.Caption = caption
	if markup, ok := inlineKeyboard(keyboard); ok {
		photo.ReplyMarkup = markup
	}
	return s.send(ctx, "sendPhoto", photo)
}

func (s *Sender) send(ctx context.Context, method string, chattable tgbotapi.Chattable) (content.Receipt, error) {
	if err := s.guard.Allow(); err != nil {
		s.logger.WarnContext(ctx, "telegram circuit breaker rejected request", "state", s.guard.State())
		return content.Receipt{}, fmt.Errorf("%w: telegram is temporarily unavailable: %v", errTelegramTransient, err)
	}

	msg, err := s.sendWithRetry(ctx, method, chattable)
	s.guard.Record(err)
	if err != nil {
		return content.Receipt{}, err
	}

	postedAt := time.Now().UTC()
	if msg.Date > 0 {
		postedAt = time.Unix(int64(msg.Date), 0).UTC()
	}
	return content.Receipt{Success: true, MessageID: msg.MessageID, PostedAt: postedAt}, nil
}

// sendWithRetry retries 429 and 5xx answers. The bot library takes no
// context, so each attempt is bounded by the HTTP client timeout and ctx is
// checked between attempts.
func (s *Sender) sendWithRetry(ctx context.Context, method string, chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return tgbotapi.Message{}, fmt.Errorf("wait for telegram rate limit: %w", err)
		}

		api, err := s.bot()
		if err != nil {
			lastErr = err
		} else {
			msg, sendErr := api.Send(chattable)
			if sendErr == nil {
				return msg, nil
			}
			lastErr = classifyError(method, sendErr, s.token)
		}

		if !isTelegramCircuitFailure(lastErr) || attempt == s.maxRetries {
			break
		}

		wait := s.retryWait(lastErr, attempt)
		s.logger.WarnContext(ctx, "telegram send retry",
			"method", method,
			"attempt", attempt+1,
			"wait_ms", wait.Milliseconds(),
			"error", lastErr,
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return tgbotapi.Message{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.logger.WarnContext(ctx, "telegram send failed", "method", method, "error", lastErr)
	return tgbotapi.Message{}, lastErr
}

func (s *Sender) retryWait(err error, attempt int) time.Duration {
	wait := time.Duration(attempt+1) * s.retryBackoff
	var apiErr *tgbotapi.Error
	if stderrors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		wait = time.Duration(apiErr.RetryAfter) * time.Second
	}
	if wait > s.maxRetryWait {
		wait = s.maxRetryWait
	}
	return wait
}

func (s *Sender) bot() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return s.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.httpClient)
	if err != nil {
		return nil, classifyError("getMe", err, s.token)
	}
	s.logger.Info("telegram bot ready", "username", api.Self.UserName)
	s.api = api
	return api, nil
}

// classifyError keeps *tgbotapi.Error reachable through errors.As and marks
// rate limits, server errors and transport failures as transient.
func classifyError(method string, err error, token string) error {
	var apiErr *tgbotapi.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: telegram %s code=%d: %w", errTelegramTransient, method, apiErr.Code, err)
		}
		return fmt.Errorf("telegram %s code=%d: %w", method, apiErr.Code, err)
	}
	return fmt.Errorf("%w: telegram %s: %s", errTelegramTransient, method, redactToken(err.Error(), token))
}

func isTelegramCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errTelegramTransient)
}

func inlineKeyboard(keyboard content.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if keyboard.Empty() {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			if strings.TrimSpace(button.Text) == "" || strings.TrimSpace(button.URL) == "" {
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL))
		}
		if len(buttons) > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// parseChannel accepts "@name" or a numeric chat id such as -1001234567890.
func parseChannel(raw string) (int64, string, error) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return 0, "", fmt.Errorf("telegram channel is required")
	case strings.HasPrefix(value, "@"):
		if len(value) < 2 {
			return 0, "", fmt.Errorf("invalid telegram channel %q", raw)
		}
		return 0, value, nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse telegram channel %q: %w", raw, err)
	}
	return id, "", nil
}

func redactToken(value, token string) string {
	if token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}
