package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/slotify/internal/app/bootstrap"
	"github.com/wolfman30/slotify/internal/booking"
	appconfig "github.com/wolfman30/slotify/internal/config"
	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/internal/timeslots"
	"github.com/wolfman30/slotify/pkg/logging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"businesses":  {"list businesses (-mine for the ones you own)", cmdBusinesses},
	"business":    {"show a business and its services: business <businessId>", cmdBusiness},
	"slots":       {"list available slots: slots <serviceId>", cmdSlots},
	"book":        {"book a service: book [flags] <businessId> <serviceId>", cmdBook},
	"owner-slots": {"list every slot of your service: owner-slots <serviceId>", cmdOwnerSlots},
	"add-slot":    {"add a slot: add-slot -date YYYY-MM-DD -start HH:MM -end HH:MM <serviceId>", cmdAddSlot},
	"delete-slot": {"delete a slot: delete-slot <slotId>", cmdDeleteSlot},
	"customers":   {"list bookings of your business: customers <businessId>", cmdCustomers},
}

type app struct {
	cfg      *appconfig.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.ClientMetrics
	client   *slotify.SlotifyClient
	lister   *timeslots.Lister
	session  *slotify.Session

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *appconfig.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, stderr)
	registry := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(registry)
	client := bootstrap.BuildAPIClient(cfg, logger, m)

	session, err := bootstrap.BuildSession(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		client:   client,
		lister:   timeslots.NewLister(client, logger, m),
		session:  session,
		in:       bufio.NewReader(stdin),
		out:      stdout,
		errOut:   stderr,
	}, nil
}

func run(ctx context.Context, cfg *appconfig.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("slotify", flag.ContinueOnError)
	global.SetOutput(stderr)
	showMetrics := global.Bool("metrics", false, "print API metrics to stderr on exit")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr)
		return exitUsage
	}

	a, err := newApp(cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
	if *showMetrics {
		defer dumpMetrics(stderr, a.registry)
	}

	err = cmd.run(ctx, a, rest[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprintf(stderr, "usage: slotify %s\n", cmd.summary)
		return exitUsage
	default:
		fmt.Fprintln(stderr, userMessage(err))
		return exitError
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: slotify [-metrics] <command> [args]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
}

// userMessage renders an error the way the web front end showed it.
func userMessage(err error) string {
	var submitErr *booking.SubmitError
	if errors.As(err, &submitErr) {
		return submitErr.Message
	}
	var listErr *timeslots.ListError
	if errors.As(err, &listErr) {
		return listErr.Message()
	}
	var fieldErrs booking.FieldErrors
	if errors.As(err, &fieldErrs) {
		return formatFieldErrors(fieldErrs)
	}
	switch slotify.Classify(err) {
	case slotify.KindRejected:
		var apiErr *slotify.APIError
		errors.As(err, &apiErr)
		return fmt.Sprintf("API Error (%d): %s", apiErr.Status, apiErr.Detail())
	case slotify.KindNoResponse:
		return "No response received from server. Please check your network connection."
	}
	return "Error: " + err.Error()
}

func formatFieldErrors(errs booking.FieldErrors) string {
	var b strings.Builder
	for _, field := range []string{booking.FieldName, booking.FieldEmail, booking.FieldPhone} {
		if msg, ok := errs[field]; ok {
			fmt.Fprintf(&b, "  %s: %s\n", field, msg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// requireID checks the argument looks like the API's GUID ids.
func requireID(kind, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errUsage
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", fmt.Errorf("%s %q is not a valid id", kind, v)
	}
	return v, nil
}

func (a *app) requireSession() error {
	if a.session == nil {
		return errors.New("this command needs an owner token; set SLOTIFY_TOKEN")
	}
	return nil
}

// prompt writes label and reads one trimmed line.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
