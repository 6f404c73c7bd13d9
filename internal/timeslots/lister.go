// Package timeslots lists, creates and deletes the time slots of a service.
package timeslots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/pkg/logging"
)

var timeslotsTracer = otel.Tracer("slotify.internal.timeslots")

// Mode selects which slots a listing returns.
type Mode int

const (
	// ModePublicAvailable lists only bookable slots, unauthenticated.
	ModePublicAvailable Mode = iota
	// ModeOwnerAll lists every slot including booked ones; needs a session.
	ModeOwnerAll
)

func (m Mode) String() string {
	if m == ModeOwnerAll {
		return "owner"
	}
	return "public"
}

// API is the subset of the Slotify client the lister uses.
type API interface {
	ListAvailableTimeSlots(ctx context.Context, serviceID string) ([]slotify.TimeSlot, error)
	ListServiceTimeSlots(ctx context.Context, session *slotify.Session, serviceID string) ([]slotify.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, session *slotify.Session, req slotify.CreateTimeSlotRequest) (*slotify.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, session *slotify.Session, slotID string) error
}

// Lister fetches time slots fresh on every call; nothing is cached.
type Lister struct {
	api     API
	logger  *logging.Logger
	metrics *metrics.ClientMetrics
	now     func() time.Time
}

// NewLister creates a time slot lister.
func NewLister(api API, logger *logging.Logger, m *metrics.ClientMetrics) *Lister {
	if api == nil {
		panic("timeslots: api required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lister{api: api, logger: logger, metrics: m, now: time.Now}
}

// ListTimeSlots returns the slots of serviceID in server order.
func (l *Lister) ListTimeSlots(ctx context.Context, serviceID string, mode Mode, session *slotify.Session) ([]slotify.TimeSlot, error) {
	ctx, span := timeslotsTracer.Start(ctx, "timeslots.list")
	defer span.End()
	span.SetAttributes(
		attribute.String("slotify.service_id", serviceID),
		attribute.String("slotify.mode", mode.String()),
	)

	if strings.TrimSpace(serviceID) == "" {
		return nil, ErrServiceIDRequired
	}

	var (
		slots []slotify.TimeSlot
		err   error
	)
	switch mode {
	case ModeOwnerAll:
		if err := l.checkSession(session); err != nil {
			return nil, err
		}
		slots, err = l.api.ListServiceTimeSlots(ctx, session, serviceID)
	default:
		slots, err = l.api.ListAvailableTimeSlots(ctx, serviceID)
	}
	if err != nil {
		span.RecordError(err)
		l.logger.Error("failed to fetch time slots", "service_id", serviceID, "mode", mode.String(), "error", err)
		return nil, &ListError{Err: err}
	}
	if slots == nil {
		slots = []slotify.TimeSlot{}
	}

	l.metrics.ObserveSlotsListed(mode.String(), len(slots))
	l.logger.Debug("time slots listed", "service_id", serviceID, "mode", mode.String(), "count", len(slots))
	return slots, nil
}

// CreateTimeSlot adds a slot [start, end) to serviceID. end must be after start.
func (l *Lister) CreateTimeSlot(ctx context.Context, session *slotify.Session, serviceID string, start, end time.Time) (*slotify.TimeSlot, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, ErrServiceIDRequired
	}
	if !end.After(start) {
		return nil, ErrEndBeforeStart
	}
	if err := l.checkSession(session); err != nil {
		return nil, err
	}

	slot, err := l.api.CreateTimeSlot(ctx, session, slotify.CreateTimeSlotRequest{
		ServiceID: serviceID,
		StartTime: slotify.NewTimestamp(start),
		EndTime:   slotify.NewTimestamp(end),
	})
	if err != nil {
		l.logger.Error("failed to create time slot", "service_id", serviceID, "error", err)
		return nil, err
	}
	l.logger.Info("time slot created", "service_id", serviceID, "slot_id", slot.ID, "start", slot.StartTime.Time)
	return slot, nil
}

// DeleteTimeSlot removes a slot.
func (l *Lister) DeleteTimeSlot(ctx context.Context, session *slotify.Session, slotID string) error {
	if strings.TrimSpace(slotID) == "" {
		return ErrSlotIDRequired
	}
	if err := l.checkSession(session); err != nil {
		return err
	}
	if err := l.api.DeleteTimeSlot(ctx, session, slotID); err != nil {
		l.logger.Error("failed to delete time slot", "slot_id", slotID, "error", err)
		return err
	}
	l.logger.Info("time slot deleted", "slot_id", slotID)
	return nil
}

func (l *Lister) checkSession(session *slotify.Session) error {
	if session == nil || strings.TrimSpace(session.Token) == "" {
		return ErrSessionRequired
	}
	if session.Expired(l.now()) {
		return ErrSessionExpired
	}
	return nil
}

// SlotOnDay combines a calendar day with HH:MM start/end inputs in loc, the
// way the owner dashboard builds new slots.
func SlotOnDay(day time.Time, startHHMM, endHHMM string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	sh, sm, err := parseClock(startHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := parseClock(endHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, mo, d := day.In(loc).Date()
	start := time.Date(y, mo, d, sh, sm, 0, 0, loc)
	end := time.Date(y, mo, d, eh, em, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrEndBeforeStart
	}
	return start, end, nil
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return t.Hour(), t.Minute(), nil
}
