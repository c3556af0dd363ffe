package content

// Error codes shown to administrators. Codes are grouped by category:
//
//	DB001-DB099    database constraints and connectivity
//	VIEW001-099    screens, filters and view state
//	ACT001-099     actions and selections
//	RATE001        request throttling
//	ERR000         anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is the user-facing rendering of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", UserMessage{"An item with this code already exists", "Choose a different code", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review the values that must be unique", "DB002"}},
	{"violates foreign key", UserMessage{"The referenced item does not exist or is still in use", "Check the parent course, lesson or quiz", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"deadline exceeded", UserMessage{"Request timed out", "Please try again", "DB006"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"record not found", UserMessage{"The item no longer exists", "Refresh the list", "DB007"}},
	{"violates check", UserMessage{"A value is outside the allowed range", "Review the values you entered", "DB008"}},

	// Views
	{"unknown screen", UserMessage{"This screen does not exist", "Pick a screen from the menu", "VIEW001"}},
	{"filter not found", UserMessage{"This filter is not available on the screen", "Reload the page", "VIEW002"}},
	{"invalid query", UserMessage{"The list parameters could not be read", "Reset the filters and try again", "VIEW003"}},

	// Actions
	{"unsupported action", UserMessage{"This action is not available here", "Reload the page", "ACT001"}},
	{"action requires a key", UserMessage{"No item was selected for this action", "Select an item first", "ACT002"}},
	{"unknown selection action", UserMessage{"Unknown selection change", "Reload the page", "ACT003"}},
	{"validation failed", UserMessage{"Some values are not valid", "Correct the highlighted fields", "ACT004"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user message. Unmatched errors
// map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// String renders "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// FormatUserError renders the user message for err.
func FormatUserError(err error) string {
	return MapError(err).String()
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsClientError reports whether err was caused by the request rather than
// the server.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrUnsupportedAction) ||
		errors.Is(err, ErrNoTarget) ||
		errors.Is(err, ErrInvalidQuery)
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. Returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
