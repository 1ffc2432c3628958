package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type structPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFormatEventLineIncludesScopeAndSortedFields(t *testing.T) {
	line := FormatEventLine(Event{
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   slog.LevelWarn,
		Scope:   "satconfig",
		Message: "serving stale config",
		Fields: map[string]any{
			"url":   "https://example.test/config.json",
			"error": errors.New("dial tcp: timeout"),
		},
	})
	want := `03:04:05 [WARN] (satconfig) serving stale config error="dial tcp: timeout" url=https://example.test/config.json` + "\n"
	if line != want {
		t.Fatalf("FormatEventLine() = %q, want %q", line, want)
	}
}

func TestFormatFieldValueStruct(t *testing.T) {
	if got, want := formatFieldValue(structPayload{Name: "abc", Count: 2}), `{"name":"abc","count":2}`; got != want {
		t.Fatalf("formatFieldValue() = %q, want %q", got, want)
	}
}

func TestFormatHTTPPayload(t *testing.T) {
	if got, want := FormatHTTPPayload([]byte(" {\"message\": \"a<b\"} \n")), `{"message":"a<b"}`; got != want {
		t.Fatalf("FormatHTTPPayload(json) = %q, want %q", got, want)
	}
	if got, want := FormatHTTPPayload(nil), "<empty>"; got != want {
		t.Fatalf("FormatHTTPPayload(nil) = %q, want %q", got, want)
	}
	long := strings.Repeat("x", clipLimit+10)
	if got := FormatHTTPPayload([]byte(long)); !strings.HasSuffix(got, "...") || len(got) != clipLimit+3 {
		t.Fatalf("FormatHTTPPayload(long) len = %d, want clipped", len(got))
	}
}

func TestScopeNesting(t *testing.T) {
	logger := New(false)
	if got, want := logger.Scope("updater").Scope("lock").scope, "updater.lock"; got != want {
		t.Fatalf("Scope() = %q, want %q", got, want)
	}
	if got := logger.Scope("  "); got != logger {
		t.Fatalf("Scope(blank) returned a new logger")
	}
}

func TestSubscribeReceivesScopedEvents(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)

	var got []Event
	unsubscribe := logger.Subscribe(func(e Event) { got = append(got, e) })
	logger.Scope("downloader").Info("started", Field("image", 3))
	logger.Debug("hidden while debug disabled")
	unsubscribe()
	logger.Info("after unsubscribe")

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].Scope != "downloader" || got[0].Fields["image"] != int64(3) {
		t.Fatalf("event = %+v, want downloader scope with image field", got[0])
	}
}
