// Package workflow coordinates the booking session: which service is
// selected, which slot was picked and which panel is showing.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/slotify/internal/booking"
	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/internal/timeslots"
	"github.com/wolfman30/slotify/pkg/logging"
)

// DefaultDismissDelay is how long the confirmation stays up.
const DefaultDismissDelay = 2 * time.Second

// SlotLister fetches the slots for a service. *timeslots.Lister satisfies it.
type SlotLister interface {
	ListTimeSlots(ctx context.Context, serviceID string, mode timeslots.Mode, session *slotify.Session) ([]slotify.TimeSlot, error)
}

// Controller owns the current View and moves it between panels.
//
// The controller never calls into a Form while holding its own lock; form
// hooks check that the form is still the one on screen before acting.
type Controller struct {
	lister       SlotLister
	submitter    booking.Submitter
	logger       *logging.Logger
	metrics      *metrics.ClientMetrics
	dismissDelay time.Duration

	mu        sync.Mutex
	view      View
	gen       uint64
	timer     *time.Timer
	tornDown  bool
	observers []func(View)
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger. Forms it opens share it.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics is handed to every form the controller opens.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithDismissDelay overrides DefaultDismissDelay. Non-positive values are ignored.
func WithDismissDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.dismissDelay = d
		}
	}
}

// NewController starts in ViewNone.
func NewController(lister SlotLister, submitter booking.Submitter, opts ...Option) *Controller {
	if lister == nil || submitter == nil {
		panic("workflow: lister and submitter required")
	}
	c := &Controller{
		lister:       lister,
		submitter:    submitter,
		logger:       logging.Default(),
		dismissDelay: DefaultDismissDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns a snapshot of the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// OnChange registers fn to receive every new view. fn runs outside the
// controller lock and may call back into the controller.
func (c *Controller) OnChange(fn func(View)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// OpenSlots fetches the available slots for service and shows them. A
// failed fetch leaves the view as it was. Opening slots while a booking
// form is up is refused, and a listing that arrives after a form was
// opened is dropped with ErrSuperseded.
func (c *Controller) OpenSlots(ctx context.Context, service slotify.Service) ([]slotify.TimeSlot, error) {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil, ErrTornDown
	}
	if c.view.Kind == ViewBooking {
		c.mu.Unlock()
		return nil, fmt.Errorf("open slots: %w", ErrInvalidTransition)
	}
	c.mu.Unlock()

	slots, err := c.lister.ListTimeSlots(ctx, service.ID, timeslots.ModePublicAvailable, nil)
	if err != nil {
		c.logger.Warn("listing slots failed", "service_id", service.ID, "error", err)
		return nil, err
	}

	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil, ErrTornDown
	}
	if c.view.Kind == ViewBooking {
		c.mu.Unlock()
		c.logger.Debug("discarding stale slot listing", "service_id", service.ID)
		return nil, ErrSuperseded
	}
	c.stopTimerLocked()
	next := c.setLocked(View{Kind: ViewListingSlots, Service: service, Slots: slots})
	c.mu.Unlock()

	c.notify(next)
	return append([]slotify.TimeSlot(nil), slots...), nil
}

// PickSlot opens the booking form for one of the listed slots.
func (c *Controller) PickSlot(slotID string) (*booking.Form, error) {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil, ErrTornDown
	}
	if c.view.Kind != ViewListingSlots {
		c.mu.Unlock()
		return nil, fmt.Errorf("pick slot: %w", ErrInvalidTransition)
	}

	var picked *slotify.TimeSlot
	for i := range c.view.Slots {
		if c.view.Slots[i].ID == slotID {
			s := c.view.Slots[i]
			picked = &s
			break
		}
	}
	if picked == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("pick slot %q: %w", slotID, ErrUnknownSlot)
	}
	if picked.IsBooked {
		c.mu.Unlock()
		return nil, fmt.Errorf("pick slot %q: %w", slotID, ErrSlotBooked)
	}

	form, next := c.openFormLocked(c.view.Service, picked)
	c.mu.Unlock()

	c.notify(next)
	return form, nil
}

// BookWithoutSlot opens the booking form for service with no slot attached.
func (c *Controller) BookWithoutSlot(service slotify.Service) (*booking.Form, error) {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil, ErrTornDown
	}
	if c.view.Kind == ViewBooking {
		c.mu.Unlock()
		return nil, fmt.Errorf("book without slot: %w", ErrInvalidTransition)
	}
	c.stopTimerLocked()
	form, next := c.openFormLocked(service, nil)
	c.mu.Unlock()

	c.notify(next)
	return form, nil
}

// Cancel returns to ViewNone. It fails with booking.ErrSubmitInProgress
// while the open form is submitting.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	form := c.view.Form
	gen := c.gen
	c.mu.Unlock()

	if form != nil {
		// Close fires the form's close hook, which moves the view.
		if _, err := form.Close(); err != nil && err != booking.ErrClosed {
			return fmt.Errorf("cancel: %w", err)
		}
	}

	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	if c.gen != gen || c.view.Kind == ViewNone {
		c.mu.Unlock()
		return nil
	}
	c.stopTimerLocked()
	next := c.setLocked(View{Kind: ViewNone})
	c.mu.Unlock()

	c.notify(next)
	return nil
}

// Dismiss closes the confirmation before the timer does.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	if c.view.Kind != ViewConfirmed {
		c.mu.Unlock()
		return fmt.Errorf("dismiss: %w", ErrInvalidTransition)
	}
	c.stopTimerLocked()
	next := c.setLocked(View{Kind: ViewNone})
	c.mu.Unlock()

	c.notify(next)
	return nil
}

// Teardown stops the dismiss timer and detaches any open form, so a
// submission still in flight cannot change anything. Later calls to any
// method return ErrTornDown.
func (c *Controller) Teardown() error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	c.tornDown = true
	c.stopTimerLocked()
	form := c.view.Form
	c.gen++
	c.view = View{Kind: ViewNone}
	c.observers = nil
	c.mu.Unlock()

	if form != nil {
		form.Detach()
	}
	c.logger.Debug("workflow torn down")
	return nil
}

func (c *Controller) openFormLocked(service slotify.Service, slot *slotify.TimeSlot) (*booking.Form, View) {
	var form *booking.Form
	form = booking.NewForm(c.submitter, service, slot,
		booking.WithLogger(c.logger),
		booking.WithMetrics(c.metrics),
		booking.OnSuccess(func(conf *slotify.BookingConfirmation) { c.formSucceeded(form, conf) }),
		booking.OnClose(func(bool) { c.formClosed(form) }),
	)
	next := c.setLocked(View{Kind: ViewBooking, Service: service, Slot: slot, Form: form})
	return form, next
}

func (c *Controller) formSucceeded(form *booking.Form, conf *slotify.BookingConfirmation) {
	summary, _ := form.Summary()

	c.mu.Lock()
	if c.tornDown || c.view.Kind != ViewBooking || c.view.Form != form {
		c.mu.Unlock()
		return
	}
	next := c.setLocked(View{
		Kind:         ViewConfirmed,
		Service:      c.view.Service,
		Slot:         c.view.Slot,
		Confirmation: conf,
		Summary:      summary,
	})
	gen := c.gen
	c.timer = time.AfterFunc(c.dismissDelay, func() { c.autoDismiss(gen) })
	c.mu.Unlock()

	c.logger.Info("booking confirmed", "service_id", next.Service.ID, "booking_id", conf.ID, "dismiss_in", c.dismissDelay.String())
	c.notify(next)
}

func (c *Controller) formClosed(form *booking.Form) {
	c.mu.Lock()
	if c.tornDown || c.view.Form != form {
		c.mu.Unlock()
		return
	}
	next := c.setLocked(View{Kind: ViewNone})
	c.mu.Unlock()

	c.notify(next)
}

func (c *Controller) autoDismiss(gen uint64) {
	c.mu.Lock()
	if c.tornDown || c.gen != gen || c.view.Kind != ViewConfirmed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	next := c.setLocked(View{Kind: ViewNone})
	c.mu.Unlock()

	c.notify(next)
}

// setLocked installs v and returns the snapshot to hand to observers.
func (c *Controller) setLocked(v View) View {
	c.gen++
	c.view = v
	return v.clone()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify(v View) {
	c.mu.Lock()
	observers := append(([]func(View))(nil), c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(v)
	}
}
