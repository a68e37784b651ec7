package core

import (
	"errors"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns fallback",
			err:         nil,
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB002",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "too few lines maps correctly",
			err:         ErrTooFewLines,
			wantCode:    "FILE003",
			wantMessage: "The CSV has no data rows",
		},
		{
			name:        "csv parse failure maps correctly",
			err:         errors.New("parse csv: record on line 3: wrong number of fields"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "busy limiter maps correctly",
			err:         ErrTooManyRuns,
			wantCode:    "RUN001",
			wantMessage: "Too many processing runs in progress",
		},
		{
			name:        "unknown run maps correctly",
			err:         ErrRunNotFound,
			wantCode:    "RUN002",
			wantMessage: "Processing run not found",
		},
		{
			name:        "context deadline wins over generic timeout",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "RUN004",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	msg := UserMessage{Message: "File is not a valid CSV", Action: "Save as UTF-8", Code: "FILE002"}
	want := "File is not a valid CSV. Save as UTF-8 (FILE002)"
	if got := FormatUserError(msg); got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	noAction := UserMessage{Message: "Too many requests", Code: "RATE001"}
	want = "Too many requests (RATE001)"
	if got := FormatUserError(noAction); got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}
