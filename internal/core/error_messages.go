package core

// error_messages.go maps technical errors to messages shown to users. Each
// message carries a code that users can quote to support:
//
//	IMP001 - Unknown import kind
//	IMP002 - Import job not found (also returned for jobs owned by others)
//	IMP003 - No error report for the import
//	IMP004 - Default coordinate system not configured
//	FILE001 - File exceeds the size limit
//	FILE002 - File is not valid delimited text
//	FILE003 - File is not UTF-8
//	FILE004 - No file in the request
//	FILE005 - File is empty
//	DB001-DB004 - Storage rejected the batch or is unreachable
//	UPL002 - Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	ERR000 - Anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Other errors fall back
// to case-insensitive substring patterns, first match wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrUnknownKind, UserMessage{
		Message: "This kind of data cannot be imported",
		Action:  "Pick one of the listed import kinds",
		Code:    "IMP001",
	}},
	{ErrJobNotFound, UserMessage{
		Message: "Import not found",
		Action:  "Check the import identifier or start a new import",
		Code:    "IMP002",
	}},
	{ErrNoReport, UserMessage{
		Message: "This import has no error report",
		Action:  "Reports exist only for completed imports with rejected rows",
		Code:    "IMP003",
	}},
	{store.ErrNotConfigured, UserMessage{
		Message: "No default coordinate system is configured",
		Action:  "Set a coordinate system in your settings, then import again",
		Code:    "IMP004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{ErrInvalidEncoding, UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with at least one data row",
		Code:    "FILE005",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"invalid csv", UserMessage{
		Message: "File is not valid delimited text",
		Action:  "Check quoting and that fields use the expected delimiter",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Select a file to upload",
		Code:    "FILE004",
	}},
	{"duplicate key", UserMessage{
		Message: "A record already exists",
		Action:  "Remove rows already present in the dataset and import again",
		Code:    "DB001",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate values",
		Code:    "DB002",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import parent records first",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"too many concurrent uploads", UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
