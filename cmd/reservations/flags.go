package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

const dateLayout = time.DateOnly

// parseCommand resolves args to a command before any connection is opened.
func parseCommand(args []string, stderr io.Writer) (command, error) {
	switch args[0] {
	case "migrate":
		if len(args) == 1 {
			return runMigrate, nil
		}
		if len(args) == 2 && args[1] == "status" {
			return runMigrateStatus, nil
		}
	case "availability":
		if len(args) < 2 {
			break
		}
		switch args[1] {
		case "setup":
			return newSetupCommand(args[2:], stderr)
		case "query":
			return newQueryCommand(args[2:], stderr)
		case "block":
			return newBlockCommand(args[2:], stderr, false)
		case "unblock":
			return newBlockCommand(args[2:], stderr, true)
		}
	case "waitlist":
		if len(args) < 2 {
			break
		}
		switch args[1] {
		case "expire-overdue":
			if len(args) == 2 {
				return runExpireOverdue, nil
			}
		case "convert":
			return newConvertCommand(args[2:], stderr)
		case "extend":
			return newExtendCommand(args[2:], stderr)
		case "reminders":
			return newRemindersCommand(args[2:], stderr)
		}
	}
	return nil, errUsage
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required: %w", errUsage)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, errUsage)
	}
	return t, nil
}

// parseRange treats an empty to as a single night.
func parseRange(from, to string) (domain.DateRange, error) {
	checkIn, err := parseDate(from)
	if err != nil {
		return domain.DateRange{}, err
	}
	checkOut := checkIn.AddDate(0, 0, 1)
	if to != "" {
		if checkOut, err = parseDate(to); err != nil {
			return domain.DateRange{}, err
		}
	}
	dates, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%v: %w", err, errUsage)
	}
	return dates, nil
}
