package main

import (
	"errors"
	"io"
	"testing"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "migrate", args: []string{"migrate"}},
		{name: "migrate status", args: []string{"migrate", "status"}},
		{name: "setup", args: []string{"availability", "setup", "--room-type", "Deluxe", "--from", "2024-01-10", "--to", "2024-01-12", "--stock", "5"}},
		{name: "query single night", args: []string{"availability", "query", "--room-type", "Deluxe", "--from", "2024-01-10"}},
		{name: "block", args: []string{"availability", "block", "--room-type", "Deluxe", "--date", "2024-01-10", "--reason", "paint"}},
		{name: "unblock", args: []string{"availability", "unblock", "--room-type", "Deluxe", "--date", "2024-01-10"}},
		{name: "expire overdue", args: []string{"waitlist", "expire-overdue"}},
		{name: "convert", args: []string{"waitlist", "convert", "--entry", "e-1", "--amount", "12000"}},
		{name: "convert with currency", args: []string{"waitlist", "convert", "--entry", "e-1", "--amount", "12000", "--currency", "USD"}},
		{name: "extend", args: []string{"waitlist", "extend", "--entry", "e-1", "--days", "7"}},
		{name: "reminders", args: []string{"waitlist", "reminders", "--mark"}},
		{name: "convert without amount", args: []string{"waitlist", "convert", "--entry", "e-1"}, wantErr: true},
		{name: "extend without entry", args: []string{"waitlist", "extend", "--days", "7"}, wantErr: true},
		{name: "extend by zero days", args: []string{"waitlist", "extend", "--entry", "e-1", "--days", "0"}, wantErr: true},
		{name: "expire overdue with extra args", args: []string{"waitlist", "expire-overdue", "now"}, wantErr: true},
		{name: "unknown command", args: []string{"serve"}, wantErr: true},
		{name: "missing subcommand", args: []string{"availability"}, wantErr: true},
		{name: "missing room type", args: []string{"availability", "setup", "--from", "2024-01-10"}, wantErr: true},
		{name: "bad date", args: []string{"availability", "query", "--room-type", "Deluxe", "--from", "10/01/2024"}, wantErr: true},
		{name: "reversed range", args: []string{"availability", "query", "--room-type", "Deluxe", "--from", "2024-01-12", "--to", "2024-01-10"}, wantErr: true},
		{name: "unknown flag", args: []string{"availability", "block", "--nights", "2"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd, err := parseCommand(tt.args, io.Discard)
			if tt.wantErr {
				if !errors.Is(err, errUsage) {
					t.Fatalf("expected errUsage, got %v", err)
				}
				return
			}
			if err != nil || cmd == nil {
				t.Fatalf("expected command, got %v", err)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	got, err := parseRange("2024-01-10", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Nights() != 1 || !got.CheckIn().Equal(domain.Date(2024, 1, 10)) {
		t.Fatalf("unexpected range: %s", got)
	}

	got, err = parseRange("2024-01-10", "2024-01-13")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Nights() != 3 {
		t.Fatalf("expected 3 nights, got %d", got.Nights())
	}
}
