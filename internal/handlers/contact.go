package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"portfolio-site/internal/content"
	"portfolio-site/internal/database"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// Field limits for contact submissions.
const (
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 5000
)

const msgRequiredFields = "Please fill in all required fields."

// ContactRequest is a contact form submission, sent either as a form or as
// JSON.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactResponse is returned for every contact submission.
type ContactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// validate trims the fields in place and returns a user-facing message
// when the submission is not acceptable.
func (c *ContactRequest) validate() string {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)

	if c.Name == "" || c.Email == "" || c.Message == "" {
		return msgRequiredFields
	}

	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return "Please enter a valid email address."
	}

	switch {
	case utf8.RuneCountInString(c.Name) > maxNameLength:
		return "Name is too long."
	case utf8.RuneCountInString(c.Subject) > maxSubjectLength:
		return "Subject is too long."
	case utf8.RuneCountInString(c.Message) > maxMessageLength:
		return "Message is too long."
	}
	return ""
}

func decodeContact(r *http.Request) (ContactRequest, error) {
	var req ContactRequest
	if isJSONBody(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = r.PostForm.Get("name")
	req.Email = r.PostForm.Get("email")
	req.Subject = r.PostForm.Get("subject")
	req.Message = r.PostForm.Get("message")
	return req, nil
}

// Contact stores a contact form submission.
func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	req, err := decodeContact(r)
	if err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		writeJSONStatus(w, http.StatusBadRequest, ContactResponse{Message: "Invalid request."})
		return
	}

	if msg := req.validate(); msg != "" {
		logging.Warn("Contact form submission rejected: %s", msg)
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		writeJSONStatus(w, http.StatusBadRequest, ContactResponse{Message: msg})
		return
	}

	msg := &content.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.db.SaveContactMessage(r.Context(), msg); err != nil {
		logging.Error("Error saving contact message: %v", err)
		metrics.ContactSubmissionsTotal.WithLabelValues("error").Inc()
		writeJSONStatus(w, http.StatusInternalServerError, ContactResponse{Message: "An error occurred. Please try again later."})
		return
	}

	metrics.ContactSubmissionsTotal.WithLabelValues("accepted").Inc()
	logging.Info("Contact form submission %s from %s", msg.Reference, sanitizeForLog(msg.Email))

	// Plain HTML form posts go back to the page.
	if !wantsJSON(r) {
		http.Redirect(w, r, "/?sent="+msg.Reference+"#contact", http.StatusSeeOther)
		return
	}

	writeJSONStatus(w, http.StatusOK, ContactResponse{
		Success:   true,
		Message:   "Thank you! Your message has been sent successfully.",
		Reference: msg.Reference,
	})
}

// ListMessages returns stored contact messages, newest first. ?unread=true
// limits the list to unread ones.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	msgs, err := h.db.ListContactMessages(r.Context(), unread)
	if err != nil {
		logging.Error("Failed to list contact messages: %v", err)
		writeJSONError(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, msgs)
}

// MarkMessageRead flags the message named by the {id} path variable.
func (h *Handlers) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid message id", http.StatusBadRequest)
		return
	}

	switch err := h.db.MarkMessageRead(r.Context(), id); {
	case err == nil:
		writeJSONStatus(w, http.StatusOK, map[string]any{"success": true, "id": id})
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Message not found", http.StatusNotFound)
	default:
		logging.Error("Failed to mark message %d read: %v", id, err)
		writeJSONError(w, "Failed to update message", http.StatusInternalServerError)
	}
}
