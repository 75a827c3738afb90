package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KenzieRafa/TST-Reservation-API/internal/app"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

type setupFlags struct {
	roomType  string
	dates     domain.DateRange
	stock     int
	threshold int
}

func newSetupCommand(args []string, stderr io.Writer) (command, error) {
	fs := newFlagSet("availability setup", stderr)
	roomType := fs.String("room-type", "", "room type to configure")
	from := fs.String("from", "", "first night, YYYY-MM-DD")
	to := fs.String("to", "", "check-out date, YYYY-MM-DD; defaults to the night after --from")
	stock := fs.Int("stock", 0, "physical rooms per night")
	threshold := fs.Int("overbooking", 0, "units bookable past physical stock")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	dates, err := parseRange(*from, *to)
	if err != nil {
		return nil, err
	}
	if *roomType == "" {
		return nil, fmt.Errorf("--room-type is required: %w", errUsage)
	}
	f := setupFlags{roomType: *roomType, dates: dates, stock: *stock, threshold: *threshold}

	return func(ctx context.Context, env *environment) error {
		svc := app.NewAvailabilityService(env.store, env.clock, env.options()...)
		for _, night := range f.dates.Dates() {
			b, err := svc.Setup(ctx, app.SetupAvailabilityInput{
				RoomType:             f.roomType,
				Date:                 night,
				TotalStock:           f.stock,
				OverbookingThreshold: f.threshold,
			})
			if err != nil {
				return fmt.Errorf("setup %s: %w", night.Format(dateLayout), err)
			}
			fmt.Fprintf(env.stdout, "%s %s stock=%d overbooking=%d booked=%d\n",
				b.RoomType, b.Date.Format(dateLayout), b.TotalStock, b.OverbookingThreshold, b.Booked)
		}
		return nil
	}, nil
}

func newQueryCommand(args []string, stderr io.Writer) (command, error) {
	fs := newFlagSet("availability query", stderr)
	roomType := fs.String("room-type", "", "room type to inspect")
	from := fs.String("from", "", "first night, YYYY-MM-DD")
	to := fs.String("to", "", "check-out date, YYYY-MM-DD; defaults to the night after --from")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	dates, err := parseRange(*from, *to)
	if err != nil {
		return nil, err
	}
	if *roomType == "" {
		return nil, fmt.Errorf("--room-type is required: %w", errUsage)
	}

	return func(ctx context.Context, env *environment) error {
		svc := app.NewAvailabilityService(env.store, env.clock, env.options()...)
		buckets, err := svc.List(ctx, *roomType, dates.CheckIn(), dates.CheckOut())
		if err != nil {
			return err
		}
		return printBuckets(env.stdout, buckets)
	}, nil
}

func printBuckets(w io.Writer, buckets []domain.Availability) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NIGHT\tSTOCK\tOVERBOOKING\tBOOKED\tBLOCKED\tREMAINING")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			b.Date.Format(dateLayout), b.TotalStock, b.OverbookingThreshold, b.Booked, b.Blocked, b.Remaining())
	}
	return tw.Flush()
}

func newBlockCommand(args []string, stderr io.Writer, unblock bool) (command, error) {
	name := "availability block"
	if unblock {
		name = "availability unblock"
	}
	fs := newFlagSet(name, stderr)
	roomType := fs.String("room-type", "", "room type")
	date := fs.String("date", "", "night, YYYY-MM-DD")
	qty := fs.Int("quantity", 1, "units")
	reason := fs.String("reason", "", "why the units are out of sale")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	night, err := parseDate(*date)
	if err != nil {
		return nil, err
	}
	if *roomType == "" {
		return nil, fmt.Errorf("--room-type is required: %w", errUsage)
	}

	return func(ctx context.Context, env *environment) error {
		svc := app.NewAvailabilityService(env.store, env.clock, env.options()...)
		var (
			b   domain.Availability
			err error
		)
		if unblock {
			b, err = svc.Unblock(ctx, *roomType, night, *qty)
		} else {
			b, err = svc.Block(ctx, app.BlockInput{RoomType: *roomType, Date: night, Quantity: *qty, Reason: *reason})
		}
		if err != nil {
			return err
		}
		return printBuckets(env.stdout, []domain.Availability{b})
	}, nil
}
