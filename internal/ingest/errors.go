package ingest

// errors.go maps technical storage errors to user-friendly messages with
// support codes. Users quote the code when reporting a problem, which is
// much faster to diagnose than a paraphrased pgx error string.
//
// Codes:
//
//	DB001 - duplicate key / unique constraint
//	DB002 - connection refused / reset
//	DB003 - operation timed out
//	DB004 - deadlock
//	GEN001 - anything unmatched

import (
	"fmt"
	"strings"
)

// UserMessage is a sanitized, user-facing rendering of an internal error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is matched top to bottom with strings.Contains on the
// lower-cased error text, so specific patterns must precede general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A transaction number in this file already exists in the database",
			Action:  "Remove or renumber the duplicate rows and upload again",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A transaction number in this file already exists in the database",
			Action:  "Remove or renumber the duplicate rows and upload again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "The database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again; contact support if the problem persists",
	Code:    "GEN001",
}

// MapError translates a technical error into a UserMessage. Never returns
// internal details such as SQL fragments or connection strings.
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

// FormatUserError renders a UserMessage as a single display string:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
