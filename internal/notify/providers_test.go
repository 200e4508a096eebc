package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/phone"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

func testMessage(t *testing.T, mediaRef string) Message {
	t.Helper()
	num, err := phone.NewNormalizer("40").Parse("0712345678")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ticket := testTicket("t1")
	return Message{
		TicketID: ticket.ID,
		Phone:    num,
		Subject:  ticketSubject,
		Body:     FormatTicketBody(ticket),
		MediaRef: mediaRef,
	}
}

func configuredEmail() config.EmailConfig {
	return config.EmailConfig{Host: "smtp.example.com", Port: 587, User: "tickets@example.com", Password: "secret"}
}

func TestSMSChannelPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("To") != "+40712345678" || r.PostForm.Get("From") != "+15550001111" {
			t.Errorf("form = %v", r.PostForm)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer srv.Close()

	ch := NewSMSChannel(config.TwilioConfig{AccountSID: "AC123", AuthToken: "token", FromNumber: "+15550001111", BaseURL: srv.URL}, time.Second)
	res, err := ch.Send(context.Background(), testMessage(t, ""))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Success || res.ProviderMessageID != "SM42" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSMSChannelProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	ch := NewSMSChannel(config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1", BaseURL: srv.URL}, time.Second)
	_, err := ch.Send(context.Background(), testMessage(t, ""))
	if !apperrors.Is(err, apperrors.CodeProvider) {
		t.Fatalf("err = %v, want provider error", err)
	}
	if !strings.Contains(err.Error(), "not a valid phone number") {
		t.Fatalf("err = %v", err)
	}
}

func TestWhatsAppBusinessChannel(t *testing.T) {
	var got metaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/PN1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	ch := NewWhatsAppBusinessChannel(config.MetaConfig{AccessToken: "tok", PhoneNumberID: "PN1", BaseURL: srv.URL}, time.Second)

	res, err := ch.Send(context.Background(), testMessage(t, ""))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.ProviderMessageID != "wamid.1" || got.Type != "text" || got.To != "40712345678" || got.Text == nil {
		t.Fatalf("result = %+v request = %+v", res, got)
	}

	if _, err := ch.Send(context.Background(), testMessage(t, "https://cdn.example.com/t1.png")); err != nil {
		t.Fatalf("Send with media: %v", err)
	}
	if got.Type != "document" || got.Document == nil || got.Document.Link != "https://cdn.example.com/t1.png" {
		t.Fatalf("media request = %+v", got)
	}
}

func TestWhatsAppProviderChannel(t *testing.T) {
	var got infobipRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/whatsapp/1/message/text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "App key" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"messageId":"ib-7"}]}`))
	}))
	defer srv.Close()

	ch := NewWhatsAppProviderChannel(config.InfobipConfig{APIKey: "key", BaseURL: srv.URL, Sender: "447860099299"}, time.Second)
	res, err := ch.Send(context.Background(), testMessage(t, ""))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.ProviderMessageID != "ib-7" {
		t.Fatalf("result = %+v", res)
	}
	if len(got.Messages) != 1 || got.Messages[0].From != "447860099299" || got.Messages[0].Content.Type != "text" {
		t.Fatalf("request = %+v", got)
	}
}

func TestWhatsAppProviderChannelRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"requestError":{"serviceException":{"text":"Invalid login details"}}}`))
	}))
	defer srv.Close()

	ch := NewWhatsAppProviderChannel(config.InfobipConfig{APIKey: "bad", BaseURL: srv.URL, Sender: "1"}, time.Second)
	_, err := ch.Send(context.Background(), testMessage(t, ""))
	if !apperrors.Is(err, apperrors.CodeProvider) || !strings.Contains(err.Error(), "Invalid login details") {
		t.Fatalf("err = %v", err)
	}
}

func TestEmailChannelRejectsInvalidAddress(t *testing.T) {
	ch := NewEmailChannel(configuredEmail(), time.Second)
	if !ch.Configured() {
		t.Fatal("email should be configured")
	}
	if ch.Accepts(domain.Recipient{Phone: "0712345678"}) {
		t.Fatal("email accepted a recipient without address")
	}

	msg := testMessage(t, "")
	msg.Recipient = domain.Recipient{Email: "not-an-address"}
	if _, _, err := ch.buildMessage(msg); err == nil {
		t.Fatal("expected invalid recipient error")
	}
	msg.Recipient = domain.Recipient{Email: "ana@example.com"}
	if _, id, err := ch.buildMessage(msg); err != nil || id == "" {
		t.Fatalf("buildMessage = %q, %v", id, err)
	}
}

func TestLinkChannelEncodesMessage(t *testing.T) {
	msg := testMessage(t, "")
	msg.Body = "Name: Ana & Co"
	res, err := NewLinkChannel().Send(context.Background(), msg)
	if err != nil || !res.Success {
		t.Fatalf("Send = %+v, %v", res, err)
	}
	if res.Link != "https://wa.me/40712345678?text=Name%3A%20Ana%20%26%20Co" {
		t.Fatalf("Link = %q", res.Link)
	}
}

func TestFormatTicketBody(t *testing.T) {
	body := FormatTicketBody(testTicket("t1"))
	for _, want := range []string{"Name: Ana Pop", "Phone: 0712345678", "Ticket type: BAL", "Created: 03.11.2025"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}
