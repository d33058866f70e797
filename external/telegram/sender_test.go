package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

const testToken = "123:secret"

type botServer struct {
	t        *testing.T
	mu       sync.Mutex
	calls    map[string]int
	requests map[string][]*http.Request
	handle   func(method string, call int, w http.ResponseWriter, r *http.Request) bool
}

func newBotServer(t *testing.T, handle func(method string, call int, w http.ResponseWriter, r *http.Request) bool) (*httptest.Server, *botServer) {
	t.Helper()

	bs := &botServer{t: t, calls: map[string]int{}, requests: map[string][]*http.Request{}, handle: handle}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		method := strings.TrimPrefix(r.URL.Path, prefix)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			_ = r.ParseMultipartForm(1 << 20)
		} else {
			_ = r.ParseForm()
		}

		bs.mu.Lock()
		bs.calls[method]++
		call := bs.calls[method]
		bs.requests[method] = append(bs.requests[method], r)
		bs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if bs.handle != nil && bs.handle(method, call, w, r) {
			return
		}
		switch method {
		case "getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Tipster","username":"tipster_bot"}}`))
		case "sendMessage", "sendPhoto":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":1792339200,"chat":{"id":-100,"type":"channel"}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		}
	}))
	t.Cleanup(server.Close)
	return server, bs
}

func (b *botServer) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *botServer) request(method string, i int) *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method][i]
}

func newTestSender(t *testing.T, serverURL string, channel string) *Sender {
	t.Helper()

	sender, err := NewSender(SenderConfig{
		Token:         testToken,
		Channel:       channel,
		APIEndpoint:   serverURL + "/bot%s/%s",
		RatePerMinute: 60000,
		RetryBackoff:  time.Millisecond,
		MaxRetryWait:  5 * time.Millisecond,
		Logger:        logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	return sender
}

func TestSender_SendText_ToChannelWithKeyboard(t *testing.T) {
	t.Parallel()

	server, bs := newBotServer(t, nil)
	sender := newTestSender(t, server.URL, "@matchday_tips")

	keyboard := content.Keyboard{{{Text: "Bet now", URL: "https://example.com/bet"}}}
	receipt, err := sender.SendText(context.Background(), "Arsenal vs Chelsea", keyboard)
	if err != nil {
		t.Fatalf("send text: %v", err)
	}
	if !receipt.Success || receipt.MessageID != 77 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if !receipt.PostedAt.Equal(time.Unix(1792339200, 0)) {
		t.Fatalf("expected posted at from message date, got %s", receipt.PostedAt)
	}

	req := bs.request("sendMessage", 0)
	if got := req.Form.Get("chat_id"); got != "@matchday_tips" {
		t.Fatalf("expected channel username chat id, got %q", got)
	}
	if got := req.Form.Get("text"); got != "Arsenal vs Chelsea" {
		t.Fatalf("unexpected text %q", got)
	}
	if markup := req.Form.Get("reply_markup"); !strings.Contains(markup, "https://example.com/bet") {
		t.Fatalf("expected url button in markup, got %q", markup)
	}
	if bs.count("getMe") != 1 {
		t.Fatalf("expected one getMe call, got %d", bs.count("getMe"))
	}

	if _, err := sender.SendText(context.Background(), "again", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if bs.count("getMe") != 1 {
		t.Fatalf("bot client must be reused")
	}
	if markup := bs.request("sendMessage", 1).Form.Get("reply_markup"); markup != "" {
		t.Fatalf("empty keyboard must not send markup, got %q", markup)
	}
}

func TestSender_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	server, bs := newBotServer(t, func(method string, call int, w http.ResponseWriter, r *http.Request) bool {
		if method == "sendMessage" && call == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 1","parameters":{"retry_after":1}}`))
			return true
		}
		return false
	})
	sender := newTestSender(t, server.URL, "-1001234567890")

	receipt, err := sender.SendText(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if receipt.MessageID != 77 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if bs.count("sendMessage") != 2 {
		t.Fatalf("expected two attempts, got %d", bs.count("sendMessage"))
	}
	if got := bs.request("sendMessage", 1).Form.Get("chat_id"); got != "-1001234567890" {
		t.Fatalf("expected numeric chat id, got %q", got)
	}
}

func TestSender_DoesNotRetryBadRequest(t *testing.T) {
	t.Parallel()

	server, bs := newBotServer(t, func(method string, call int, w http.ResponseWriter, r *http.Request) bool {
		if method == "sendMessage" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return true
		}
		return false
	})
	sender := newTestSender(t, server.URL, "@missing")

	_, err := sender.SendText(context.Background(), "hello", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("expected telegram api error, got %v", err)
	}
	if isTelegramCircuitFailure(err) {
		t.Fatalf("400 must not be transient")
	}
	if bs.count("sendMessage") != 1 {
		t.Fatalf("expected a single attempt, got %d", bs.count("sendMessage"))
	}
}

func TestSender_SendPhoto_UploadsWithCaption(t *testing.T) {
	t.Parallel()

	server, bs := newBotServer(t, nil)
	sender := newTestSender(t, server.URL, "@matchday_tips")

	image := content.Image{Name: "card.png", Data: []byte{0x89, 'P', 'N', 'G'}}
	if _, err := sender.SendPhoto(context.Background(), image, "Tonight's tips", nil); err != nil {
		t.Fatalf("send photo: %v", err)
	}

	req := bs.request("sendPhoto", 0)
	if req.MultipartForm == nil || len(req.MultipartForm.File["photo"]) != 1 {
		t.Fatalf("expected multipart photo upload")
	}
	if got := req.MultipartForm.Value["caption"]; len(got) != 1 || got[0] != "Tonight's tips" {
		t.Fatalf("unexpected caption %v", got)
	}
	if bs.count("sendMessage") != 0 {
		t.Fatalf("short caption must not produce a follow-up message")
	}
}

func TestSender_SendPhoto_LongCaptionFollowsAsText(t *testing.T) {
	t.Parallel()

	server, bs := newBotServer(t, nil)
	sender := newTestSender(t, server.URL, "@matchday_tips")

	caption := strings.Repeat("x", maxCaptionRunes+1)
	image := content.Image{Name: "card.png", Data: []byte("png")}
	keyboard := content.Keyboard{{{Text: "Site", URL: "https://example.com"}}}
	if _, err := sender.SendPhoto(context.Background(), image, caption, keyboard); err != nil {
		t.Fatalf("send photo: %v", err)
	}

	if bs.count("sendPhoto") != 1 || bs.count("sendMessage") != 1 {
		t.Fatalf("expected photo then text, got photo=%d text=%d", bs.count("sendPhoto"), bs.count("sendMessage"))
	}
	if got := bs.request("sendPhoto", 0).MultipartForm.Value["caption"]; len(got) != 0 {
		t.Fatalf("photo must be sent without caption, got %v", got)
	}
	if got := bs.request("sendMessage", 0).Form.Get("text"); got != caption {
		t.Fatalf("expected caption as follow-up text")
	}
}

func TestSender_WebhookLifecycle(t *testing.T) {
	t.Parallel()

	var infoCalls atomic.Int32
	server, bs := newBotServer(t, func(method string, call int, w http.ResponseWriter, r *http.Request) bool {
		if method == "getWebhookInfo" {
			infoCalls.Add(1)
			_, _ = w.Write([]byte(`{"ok":true,"result":{"url":"https://tipster.example.com/hook","has_custom_certificate":false,"pending_update_count":3,"last_error_date":1792339200,"last_error_message":"timeout"}}`))
			return true
		}
		return false
	})
	sender := newTestSender(t, server.URL, "@matchday_tips")
	ctx := context.Background()

	if err := sender.SetWebhook(ctx, "https://tipster.example.com/hook"); err != nil {
		t.Fatalf("set webhook: %v", err)
	}
	if got := bs.request("setWebhook", 0).Form.Get("url"); got != "https://tipster.example.com/hook" {
		t.Fatalf("unexpected webhook url %q", got)
	}

	info, err := sender.WebhookInfo(ctx)
	if err != nil {
		t.Fatalf("webhook info: %v", err)
	}
	if info.URL != "https://tipster.example.com/hook" || info.PendingUpdateCount != 3 || info.LastErrorMessage != "timeout" {
		t.Fatalf("unexpected info %+v", info)
	}

	if err := sender.DeleteWebhook(ctx, true); err != nil {
		t.Fatalf("delete webhook: %v", err)
	}
	if got := bs.request("deleteWebhook", 0).Form.Get("drop_pending_updates"); got != "true" {
		t.Fatalf("expected drop_pending_updates=true, got %q", got)
	}

	if err := sender.SetWebhook(ctx, "  "); err == nil {
		t.Fatalf("expected empty url error")
	}
}

func TestParseChannel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw      string
		wantID   int64
		wantName string
		wantErr  bool
	}{
		{raw: "@tips", wantName: "@tips"},
		{raw: " -1001234567890 ", wantID: -1001234567890},
		{raw: "", wantErr: true},
		{raw: "@", wantErr: true},
		{raw: "tips", wantErr: true},
	}
	for _, tc := range cases {
		id, name, err := parseChannel(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil || id != tc.wantID || name != tc.wantName {
			t.Fatalf("%q: got id=%d name=%q err=%v", tc.raw, id, name, err)
		}
	}
}

func TestNewSender_RequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewSender(SenderConfig{Channel: "@tips"}); err == nil {
		t.Fatalf("expected missing token error")
	}
}
