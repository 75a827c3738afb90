package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KenzieRafa/TST-Reservation-API/internal/app"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

func runExpireOverdue(ctx context.Context, env *environment) error {
	svc := app.NewWaitlistService(env.store, env.clock, env.options()...)
	n, err := svc.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "expired %d waitlist entries\n", n)
	return nil
}

func newConvertCommand(args []string, stderr io.Writer) (command, error) {
	fs := newFlagSet("waitlist convert", stderr)
	entryID := fs.String("entry", "", "waitlist entry id")
	amount := fs.Int64("amount", 0, "total price in minor units, e.g. cents")
	currency := fs.String("currency", "", "ISO 4217 code; defaults to DEFAULT_CURRENCY")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if *entryID == "" {
		return nil, fmt.Errorf("--entry is required: %w", errUsage)
	}
	if *amount <= 0 {
		return nil, fmt.Errorf("--amount must be positive: %w", errUsage)
	}

	return func(ctx context.Context, env *environment) error {
		price, err := env.cfg.Money(*amount, *currency)
		if err != nil {
			return err
		}
		svc := app.NewWaitlistService(env.store, env.clock, env.options()...)
		res, err := svc.Convert(ctx, app.ConvertInput{EntryID: *entryID, Amount: price})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "converted %s into reservation %s (code %s, %s)\n",
			res.Entry.ID, res.Reservation.ID, res.Reservation.ConfirmationCode, res.Reservation.Amount)
		return nil
	}, nil
}

func newExtendCommand(args []string, stderr io.Writer) (command, error) {
	fs := newFlagSet("waitlist extend", stderr)
	entryID := fs.String("entry", "", "waitlist entry id")
	days := fs.Int("days", 0, "days to add to the expiry")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if *entryID == "" {
		return nil, fmt.Errorf("--entry is required: %w", errUsage)
	}
	if *days <= 0 {
		return nil, fmt.Errorf("--days must be positive: %w", errUsage)
	}

	return func(ctx context.Context, env *environment) error {
		svc := app.NewWaitlistService(env.store, env.clock, env.options()...)
		e, err := svc.ExtendExpiry(ctx, *entryID, *days)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "%s now expires %s\n", e.ID, e.ExpiresAt.Format(dateLayout))
		return nil
	}, nil
}

// newRemindersCommand lists entries whose guest is due a reminder and, with
// --mark, records that they were contacted.
func newRemindersCommand(args []string, stderr io.Writer) (command, error) {
	fs := newFlagSet("waitlist reminders", stderr)
	mark := fs.Bool("mark", false, "record the listed entries as notified")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	return func(ctx context.Context, env *environment) error {
		svc := app.NewWaitlistService(env.store, env.clock, env.options()...)
		due, err := svc.NotificationsDue(ctx)
		if err != nil {
			return err
		}
		if err := printEntries(env.stdout, due); err != nil {
			return err
		}
		if !*mark {
			return nil
		}
		for _, e := range due {
			if _, err := svc.MarkNotified(ctx, e.ID); err != nil {
				return fmt.Errorf("mark %s notified: %w", e.ID, err)
			}
		}
		return nil
	}, nil
}

func printEntries(w io.Writer, entries []domain.WaitlistEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tGUEST\tROOM TYPE\tDATES\tGUESTS\tPRIORITY\tEXPIRES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.GuestID, e.RoomType, e.Dates, e.Guests.Total(), e.Priority, e.ExpiresAt.Format(dateLayout))
	}
	return tw.Flush()
}
