package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"portfolio-site/internal/content"
)

func contactRequest(form url.Values, xhr bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	return req
}

func TestContact(t *testing.T) {
	tests := []struct {
		name        string
		form        url.Values
		wantStatus  int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "valid",
			form:        url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hi"}, "message": {"Hello there"}},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: "Thank you! Your message has been sent successfully.",
		},
		{
			name:        "missing message",
			form:        url.Values{"name": {"Ada"}, "email": {"ada@example.com"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please fill in all required fields.",
		},
		{
			name:        "whitespace name",
			form:        url.Values{"name": {"   "}, "email": {"ada@example.com"}, "message": {"x"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please fill in all required fields.",
		},
		{
			name:        "bad email",
			form:        url.Values{"name": {"Ada"}, "email": {"not-an-email"}, "message": {"x"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please enter a valid email address.",
		},
		{
			name:        "display name email",
			form:        url.Values{"name": {"Ada"}, "email": {"Ada <ada@example.com>"}, "message": {"x"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please enter a valid email address.",
		},
		{
			name:        "message too long",
			form:        url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {strings.Repeat("x", maxMessageLength+1)}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Message is too long.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := httptest.NewRecorder()
			env.h.Contact(w, contactRequest(tt.form, true))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}

			var resp ContactResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success != tt.wantSuccess || resp.Message != tt.wantMessage {
				t.Errorf("response = %+v", resp)
			}

			msgs, err := env.db.ListContactMessages(context.Background(), false)
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantSuccess {
				if len(msgs) != 1 || msgs[0].Reference != resp.Reference || resp.Reference == "" {
					t.Errorf("stored = %+v, reference = %q", msgs, resp.Reference)
				}
			} else if len(msgs) != 0 {
				t.Errorf("invalid submission stored: %+v", msgs)
			}
		})
	}
}

func TestContactJSONBody(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name":"Grace","email":"grace@example.com","message":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.h.Contact(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.h.Contact(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", w.Code)
	}
}

func TestContactPlainFormRedirects(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hi"}}
	w := httptest.NewRecorder()
	env.h.Contact(w, contactRequest(form, false))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/?sent=") || !strings.HasSuffix(loc, "#contact") {
		t.Errorf("Location = %q", loc)
	}
}

func TestContactDatabaseError(t *testing.T) {
	env := newTestEnv(t)
	env.db.Close()

	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hi"}}
	w := httptest.NewRecorder()
	env.h.Contact(w, contactRequest(form, true))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestMessagesAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg := &content.ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hi"}
	if err := env.db.SaveContactMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	env.h.ListMessages(w, httptest.NewRequest(http.MethodGet, "/api/messages?unread=true", nil))
	var msgs []content.ContactMessage
	if err := json.NewDecoder(w.Body).Decode(&msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].IsRead {
		t.Fatalf("unread messages = %+v", msgs)
	}

	markRead := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/messages/"+id+"/read", nil)
		req = mux.SetURLVars(req, map[string]string{"id": id})
		w := httptest.NewRecorder()
		env.h.MarkMessageRead(w, req)
		return w.Code
	}

	if code := markRead("abc"); code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", code)
	}
	if code := markRead("999"); code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", code)
	}
	if code := markRead(strconv.FormatInt(msg.ID, 10)); code != http.StatusOK {
		t.Errorf("mark read status = %d, want 200", code)
	}

	w = httptest.NewRecorder()
	env.h.ListMessages(w, httptest.NewRequest(http.MethodGet, "/api/messages?unread=true", nil))
	msgs = nil
	if err := json.NewDecoder(w.Body).Decode(&msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("unread after mark = %+v, want none", msgs)
	}
}
