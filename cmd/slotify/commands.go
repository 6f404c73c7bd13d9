package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wolfman30/slotify/internal/booking"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/internal/timeslots"
	"github.com/wolfman30/slotify/internal/workflow"
)

const (
	slotDayLayout  = "Mon Jan 2, 2006"
	slotTimeLayout = "3:04 PM"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func cmdBusinesses(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "businesses")
	mine := fs.Bool("mine", false, "list the businesses you own")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		businesses []slotify.Business
		err        error
	)
	if *mine {
		if err := a.requireSession(); err != nil {
			return err
		}
		businesses, err = a.client.ListOwnerBusinesses(ctx, a.session)
	} else {
		businesses, err = a.client.ListPublicBusinesses(ctx)
	}
	if err != nil {
		return err
	}
	if len(businesses) == 0 {
		fmt.Fprintln(a.out, "No businesses found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSERVICES\tADDRESS")
	for _, b := range businesses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.ID, b.Name, len(b.Services), b.Address)
	}
	return tw.Flush()
}

func cmdBusiness(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := requireID("business id", args[0])
	if err != nil {
		return err
	}
	b, err := a.client.GetPublicBusiness(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, b.Name)
	if b.Description != "" {
		fmt.Fprintln(a.out, b.Description)
	}
	if b.Address != "" {
		fmt.Fprintf(a.out, "Address: %s\n", b.Address)
	}
	if b.Phone != "" {
		fmt.Fprintf(a.out, "Phone: %s\n", b.Phone)
	}
	fmt.Fprintln(a.out)
	if len(b.Services) == 0 {
		fmt.Fprintln(a.out, "No services offered yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE ID\tNAME\tDURATION\tPRICE")
	for _, s := range b.Services {
		fmt.Fprintf(tw, "%s\t%s\t%d min\t$%.2f\n", s.ID, s.Name, s.Duration, s.Price)
	}
	return tw.Flush()
}

func cmdSlots(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	serviceID, err := requireID("service id", args[0])
	if err != nil {
		return err
	}
	slots, err := a.lister.ListTimeSlots(ctx, serviceID, timeslots.ModePublicAvailable, nil)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No available time slots for this service.")
		return nil
	}
	a.printSlotChoices(slots)
	return nil
}

func cmdOwnerSlots(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	serviceID, err := requireID("service id", args[0])
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	slots, err := a.lister.ListTimeSlots(ctx, serviceID, timeslots.ModeOwnerAll, a.session)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No time slots found for this service.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT ID\tDATE\tSTART\tEND\tSTATUS")
	for _, s := range slots {
		status := "Available"
		if s.IsBooked {
			status = "Booked"
		}
		start := s.StartTime.In(time.Local)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, start.Format(slotDayLayout), start.Format(slotTimeLayout), s.EndTime.In(time.Local).Format(slotTimeLayout), status)
	}
	return tw.Flush()
}

func cmdAddSlot(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add-slot")
	date := fs.String("date", time.Now().Format("2006-01-02"), "day of the slot, YYYY-MM-DD")
	start := fs.String("start", "", "start time, HH:MM")
	end := fs.String("end", "", "end time, HH:MM")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *start == "" || *end == "" {
		return errUsage
	}
	serviceID, err := requireID("service id", fs.Arg(0))
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*date), time.Local)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", *date)
	}
	from, to, err := timeslots.SlotOnDay(day, *start, *end, time.Local)
	if err != nil {
		return err
	}
	slot, err := a.lister.CreateTimeSlot(ctx, a.session, serviceID, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created time slot %s: %s\n", slot.ID, formatSlot(*slot))
	return nil
}

func cmdDeleteSlot(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	slotID, err := requireID("slot id", args[0])
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.lister.DeleteTimeSlot(ctx, a.session, slotID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted time slot %s\n", slotID)
	return nil
}

func cmdCustomers(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	businessID, err := requireID("business id", args[0])
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	customers, err := a.client.ListBusinessCustomers(ctx, a.session, businessID)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		fmt.Fprintln(a.out, "No customers found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tPHONE\tBOOKED")
	for _, c := range customers {
		booked := "-"
		if !c.CreatedAt.IsZero() {
			booked = c.CreatedAt.In(time.Local).Format(slotDayLayout + " " + slotTimeLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Email, c.Phone, booked)
	}
	return tw.Flush()
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "book")
	slotID := fs.String("slot", "", "time slot id; prompts with the available slots when empty")
	noSlot := fs.Bool("no-slot", false, "book without picking a time slot")
	name := fs.String("name", "", "your name")
	email := fs.String("email", "", "your email")
	phone := fs.String("phone", "", "your phone number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}
	businessID, err := requireID("business id", fs.Arg(0))
	if err != nil {
		return err
	}
	serviceID, err := requireID("service id", fs.Arg(1))
	if err != nil {
		return err
	}

	business, err := a.client.GetPublicBusiness(ctx, businessID)
	if err != nil {
		return err
	}
	service, ok := findService(business, serviceID)
	if !ok {
		return fmt.Errorf("%s does not offer service %s", business.Name, serviceID)
	}

	controller := workflow.NewController(a.lister, a.client,
		workflow.WithLogger(a.logger),
		workflow.WithMetrics(a.metrics),
		workflow.WithDismissDelay(a.cfg.DismissDelay),
	)
	defer func() { _ = controller.Teardown() }()

	dismissed := make(chan struct{}, 1)
	controller.OnChange(func(v workflow.View) {
		if v.Kind == workflow.ViewNone {
			select {
			case dismissed <- struct{}{}:
			default:
			}
		}
	})

	form, err := a.openForm(ctx, controller, service, *slotID, *noSlot)
	if err != nil || form == nil {
		return err
	}

	draft := booking.Draft{Name: *name, Email: *email, Phone: *phone}
	interactive := draft.Name == "" || draft.Email == "" || draft.Phone == ""
	if err := a.fillDraft(form, draft, interactive); err != nil {
		_ = controller.Cancel()
		return err
	}

	if _, err := a.submit(ctx, form, interactive); err != nil {
		_ = controller.Cancel()
		return err
	}

	view := controller.View()
	summary := view.Summary
	if view.Kind != workflow.ViewConfirmed {
		summary, _ = form.Summary()
	}
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, booking.FormatSummary(summary, time.Local))

	select {
	case <-dismissed:
	case <-ctx.Done():
	case <-time.After(a.cfg.DismissDelay + time.Second):
	}
	return nil
}

// openForm lists slots and opens the form for the chosen one, or opens it
// without a slot.
func (a *app) openForm(ctx context.Context, c *workflow.Controller, service slotify.Service, slotID string, noSlot bool) (*booking.Form, error) {
	if noSlot {
		return c.BookWithoutSlot(service)
	}

	slots, err := c.OpenSlots(ctx, service)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No available time slots for this service.")
		return nil, nil
	}

	if slotID == "" {
		fmt.Fprintf(a.out, "Available time slots for %s:\n", service.Name)
		a.printSlotChoices(slots)
		for slotID == "" {
			answer, err := a.prompt(fmt.Sprintf("Pick a slot [1-%d]: ", len(slots)))
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.Atoi(answer)
			if convErr != nil || n < 1 || n > len(slots) {
				fmt.Fprintln(a.out, "Please enter one of the listed numbers.")
				continue
			}
			slotID = slots[n-1].ID
		}
	}
	return c.PickSlot(slotID)
}

// fillDraft sets the flag values and prompts for anything missing.
func (a *app) fillDraft(form *booking.Form, d booking.Draft, interactive bool) error {
	fields := []struct {
		name, label string
		value       *string
	}{
		{booking.FieldName, "Name: ", &d.Name},
		{booking.FieldEmail, "Email: ", &d.Email},
		{booking.FieldPhone, "Phone: ", &d.Phone},
	}
	for _, f := range fields {
		if *f.value == "" && interactive {
			v, err := a.prompt(f.label)
			if err != nil {
				return err
			}
			*f.value = v
		}
		if err := form.UpdateField(f.name, *f.value); err != nil {
			return err
		}
	}
	return nil
}

// submit sends the form. Interactive sessions re-prompt invalid fields and
// may retry failed submissions; otherwise the first error is returned.
func (a *app) submit(ctx context.Context, form *booking.Form, interactive bool) (*slotify.BookingConfirmation, error) {
	labels := map[string]string{
		booking.FieldName:  "Name: ",
		booking.FieldEmail: "Email: ",
		booking.FieldPhone: "Phone: ",
	}
	for {
		conf, err := form.Submit(ctx)
		if err == nil {
			return conf, nil
		}
		if !interactive {
			return nil, err
		}

		var fieldErrs booking.FieldErrors
		if errors.As(err, &fieldErrs) {
			fmt.Fprintln(a.out, formatFieldErrors(fieldErrs))
			for _, field := range []string{booking.FieldName, booking.FieldEmail, booking.FieldPhone} {
				if _, bad := fieldErrs[field]; !bad {
					continue
				}
				v, perr := a.prompt(labels[field])
				if perr != nil {
					return nil, perr
				}
				if uerr := form.UpdateField(field, v); uerr != nil {
					return nil, uerr
				}
			}
			continue
		}

		var submitErr *booking.SubmitError
		if !errors.As(err, &submitErr) {
			return nil, err
		}
		fmt.Fprintln(a.out, submitErr.Message)
		answer, perr := a.prompt("Try again? [y/N]: ")
		if perr != nil || !strings.EqualFold(answer, "y") {
			return nil, err
		}
	}
}

func (a *app) printSlotChoices(slots []slotify.TimeSlot) {
	for i, s := range slots {
		fmt.Fprintf(a.out, "%3d. %s\n", i+1, formatSlot(s))
	}
}

func formatSlot(s slotify.TimeSlot) string {
	start := s.StartTime.In(time.Local)
	out := start.Format(slotDayLayout) + " at " + start.Format(slotTimeLayout)
	if !s.EndTime.IsZero() {
		out += " - " + s.EndTime.In(time.Local).Format(slotTimeLayout)
	}
	return out
}

func findService(b *slotify.Business, serviceID string) (slotify.Service, bool) {
	for _, s := range b.Services {
		if strings.EqualFold(s.ID, serviceID) {
			if s.BusinessID == "" {
				s.BusinessID = b.ID
			}
			return s, true
		}
	}
	return slotify.Service{}, false
}
