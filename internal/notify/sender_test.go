package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
)

func TestTelegramSender_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := &TelegramSender{Client: srv.Client()}
	ch := &Channel{Type: ChannelTelegram, Token: "fake-token", ChatID: "12345", URL: srv.URL + "/"}
	if err := s.Send(context.Background(), ch, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/botfake-token/sendMessage" {
		t.Errorf("path = %q, want /botfake-token/sendMessage", gotPath)
	}
	if gotBody["chat_id"] != "12345" || gotBody["text"] != "hello" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestTelegramSender_Errors(t *testing.T) {
	s := &TelegramSender{}
	if err := s.Send(context.Background(), &Channel{Type: ChannelTelegram, Token: "tok"}, "hello"); err == nil {
		t.Fatal("expected error for missing chat_id")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s = &TelegramSender{Client: srv.Client()}
	err := s.Send(context.Background(), &Channel{Type: ChannelTelegram, Token: "tok", ChatID: "1", URL: srv.URL}, "hello")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want status 403", err)
	}
}

func TestSlackSender_MissingWebhook(t *testing.T) {
	s := &SlackSender{}
	err := s.Send(context.Background(), &Channel{Name: "ops", Type: ChannelSlack}, "hello")
	if err == nil {
		t.Fatal("expected error for missing webhook_url")
	}
}

func TestSlackSender_Send(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &SlackSender{Client: srv.Client()}
	ch := &Channel{Type: ChannelSlack, WebhookURL: srv.URL, SlackRoom: "#phones"}
	if err := s.Send(context.Background(), ch, "hello slack"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q, want application/json", gotContentType)
	}
	if gotBody["channel"] != "#phones" || gotBody["text"] != "hello slack" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestTwilioSender_Send(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := &TwilioSender{Client: srv.Client()}
	ch := &Channel{
		Type:       ChannelTwilio,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550001",
		To:         "+15550002",
		URL:        srv.URL,
	}
	if err := s.Send(context.Background(), ch, "✅ workflow.hello.world:login true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "AC123" || gotPass != "secret" {
		t.Errorf("basic auth = %q:%q", gotUser, gotPass)
	}
	if got := gotForm["Body"]; len(got) != 1 || got[0] != "✅ workflow.hello.world:login true" {
		t.Errorf("Body = %v", got)
	}
	if got := gotForm["To"]; len(got) != 1 || got[0] != "+15550002" {
		t.Errorf("To = %v", got)
	}
}

func TestTwilioSender_MissingFields(t *testing.T) {
	s := &TwilioSender{}
	err := s.Send(context.Background(), &Channel{Type: ChannelTwilio, AccountSID: "AC1"}, "x")
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	if !strings.Contains(err.Error(), "auth_token, from, to") {
		t.Errorf("err = %v", err)
	}
}

func TestWebhookSender_Send(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	s := &WebhookSender{Client: srv.Client()}
	if err := s.Send(context.Background(), &Channel{Type: ChannelWebhook, URL: srv.URL, Token: "t0k"}, "done"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer t0k" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody != `{"text":"done"}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSMTPSender_MissingTo(t *testing.T) {
	s := &SMTPSender{}
	err := s.Send(context.Background(), &Channel{Type: ChannelSMTP, Login: "from@example.com"}, "hello")
	if err == nil {
		t.Fatal("expected error for missing 'to'")
	}
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	s := &SMTPSender{SendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}}
	ch := &Channel{Type: ChannelSMTP, Host: "mail.example.com", Login: "bot@example.com", To: "a@example.com, b@example.com"}
	if err := s.Send(context.Background(), ch, "run finished"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "mail.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "bot@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 2 || gotTo[1] != "b@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if !strings.HasSuffix(gotMsg, "\r\n\r\nrun finished") {
		t.Errorf("msg = %q", gotMsg)
	}
}

func TestSenderRegistry(t *testing.T) {
	reg := NewSenderRegistry()

	if _, err := reg.Get(ChannelTelegram); err == nil {
		t.Fatal("expected error for unregistered sender")
	}

	reg.Register(&TelegramSender{})
	s, err := reg.Get(ChannelTelegram)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Type() != ChannelTelegram {
		t.Errorf("got %q, want %q", s.Type(), ChannelTelegram)
	}

	all := DefaultSenders(nil)
	for _, typ := range []ChannelType{ChannelTelegram, ChannelSlack, ChannelSMTP, ChannelTwilio, ChannelWebhook} {
		if _, err := all.Get(typ); err != nil {
			t.Errorf("DefaultSenders missing %q: %v", typ, err)
		}
	}
}
