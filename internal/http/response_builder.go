// Package http serves the transactions JSON API and the server-rendered
// tracker UI.

package http

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// HTMXResponseBuilder assembles a UI response: status, headers, body and
// the events htmx raises on the page from the HX-Trigger header.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger raises the client event name with data as its detail.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerTransactionsChanged announces a committed mutation in month.
func (b *HTMXResponseBuilder) TriggerTransactionsChanged(action, month string) *HTMXResponseBuilder {
	return b.Trigger("transactions:changed", map[string]string{"action": action, "month": month})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// NotificationType selects the toast style in app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
)

// TriggerNotification shows a toast for durationMs.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// Write sends the response. Triggers that fail to encode are dropped.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if encoded, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(encoded))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorFragment renders message, escaped, as an error <div>.
func errorFragment(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		Header("Content-Type", "text/html; charset=utf-8").
		Body([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

// BadRequestError answers a malformed UI request.
func BadRequestError(message string) *HTMXResponseBuilder {
	return errorFragment(http.StatusBadRequest, message)
}

// InternalServerError answers a UI request the server could not render.
func InternalServerError(message string) *HTMXResponseBuilder {
	return errorFragment(http.StatusInternalServerError, message)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes the {"error": message} body shared by every failure.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindInvalidArgument:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a service error for op. Server-side failures
// never expose their cause.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	writeError(w, statusFor(err), core.UserMessage(op, err))
}
