package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client sees the mapped user message, as
// JSON for API calls and as an error page otherwise.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/logging"
	"github.com/JonMunkholm/eduadmin/internal/render"
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrUnknownScreen), errors.Is(err, content.ErrUnknownFilter):
		return http.StatusNotFound
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case content.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing response. A zero
// status is derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	ue := content.NewUserError(err)
	msg := ue.User

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", msg.Code,
	}
	if !content.IsUserFacing(err) {
		attrs = append(attrs, "unmapped", true)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if wantsJSON(r) {
		body := errorBody(msg)
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			body.Fields = verr.FieldMap()
		}
		writeJSON(w, status, body)
		return
	}
	s.respondHTML(w, r, msg, status)
}

// respondMessage writes an already mapped message without logging.
func (s *Server) respondMessage(w http.ResponseWriter, r *http.Request, msg content.UserMessage, status int) {
	if wantsJSON(r) {
		writeJSON(w, status, errorBody(msg))
		return
	}
	s.respondHTML(w, r, msg, status)
}

func errorBody(msg content.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

func (s *Server) respondHTML(w http.ResponseWriter, r *http.Request, msg content.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := render.ErrorPage("Error", s.year(), content.All(), msg)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
