package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func TestBodyFallbacks(t *testing.T) {
	body := Body(SlotOpened{ServiceName: "Corte", Date: "2030-06-03", StartTime: "10:00"})

	if !strings.Contains(body, fallbackClient) {
		t.Error("missing client fallback")
	}
	if !strings.Contains(body, fallbackBarber) {
		t.Error("missing barber fallback")
	}
	if strings.Contains(body, "href") {
		t.Error("no booking url, no link")
	}
}

func TestBodyEscapesUserInput(t *testing.T) {
	body := Body(SlotOpened{
		ClientName:     `<img src=x onerror=alert(1)>`,
		ServiceName:    "<b>Corte</b>",
		BarberName:     `"Rafa"`,
		BarbershopName: "Barbearia <Central>",
		Date:           "2030-06-03",
		StartTime:      "10:00",
		BookingURL:     "https://agenda.example.com/central?date=2030-06-03&time=10:00",
	})

	for _, raw := range []string{"<img", "<b>Corte", "<Central>"} {
		if strings.Contains(body, raw) {
			t.Errorf("unescaped %q in %s", raw, body)
		}
	}
	for _, want := range []string{"&lt;img src=x onerror=alert(1)&gt;", "&lt;b&gt;Corte&lt;/b&gt;", "&lt;Central&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in %s", want, body)
		}
	}
	if !strings.Contains(body, `href="https://agenda.example.com/central?date=2030-06-03&amp;time=10:00"`) {
		t.Errorf("booking link mangled: %s", body)
	}
}

func TestBodyRejectsScriptLink(t *testing.T) {
	body := Body(SlotOpened{ServiceName: "Corte", BookingURL: "javascript:alert(1)"})
	if strings.Contains(body, "javascript:") {
		t.Fatalf("script link kept: %s", body)
	}
}

func TestEmailSender(t *testing.T) {
	var got emailRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewEmailSender(srv.URL, "tok", "agenda@barbearia.com")
	err := s.Send(context.Background(), SlotOpened{
		ClientName: "Ana",
		Email:      "ana@example.com",
		Date:       "2030-06-03",
		StartTime:  "10:00",
	})
	if err != nil {
		t.Fatal(err)
	}

	if auth != "Bearer tok" {
		t.Errorf("auth = %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "ana@example.com" || got.From != "agenda@barbearia.com" {
		t.Errorf("request = %+v", got)
	}
	if !strings.Contains(got.Subject, "10:00") {
		t.Errorf("subject = %q", got.Subject)
	}
}

func TestEmailSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewEmailSender(srv.URL, "", "x@y.z")
	if err := s.Send(context.Background(), SlotOpened{Email: "a@b.c"}); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Send(context.Background(), SlotOpened{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

type recorder struct{ got []SlotOpened }

func (r *recorder) Send(_ context.Context, msg SlotOpened) error {
	r.got = append(r.got, msg)
	return nil
}

func TestNotifyHandlerRoundTrip(t *testing.T) {
	rec := &recorder{}
	h := NotifyHandler(rec, zap.NewNop())

	task, err := NewNotifyTask(SlotOpened{EntryID: 9, Email: "a@b.c"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeWaitlistNotify {
		t.Fatalf("type = %s", task.Type())
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 || rec.got[0].EntryID != 9 {
		t.Fatalf("got %+v", rec.got)
	}

	bad := asynq.NewTask(TypeWaitlistNotify, []byte("{"))
	if err := h.ProcessTask(context.Background(), bad); err == nil {
		t.Fatal("expected error for bad payload")
	}
}
