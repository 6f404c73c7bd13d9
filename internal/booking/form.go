package booking

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/pkg/logging"
)

var bookingTracer = otel.Tracer("slotify.internal.booking")

// Form is one open booking form for a service and optional time slot.
//
// All methods are safe for concurrent use. The network call in Submit runs
// without holding the lock, and a Submit issued while another is in flight
// returns ErrSubmitInProgress without touching the network.
type Form struct {
	submitter Submitter
	service   slotify.Service
	slot      *slotify.TimeSlot
	logger    *logging.Logger
	metrics   *metrics.ClientMetrics
	onSuccess func(*slotify.BookingConfirmation)
	onClose   func(succeeded bool)

	mu           sync.Mutex
	state        State
	draft        Draft
	fieldErrors  FieldErrors
	lastErr      *SubmitError
	confirmation *slotify.BookingConfirmation
	submitted    Draft
	detached     bool
}

// FormOption customises a Form.
type FormOption func(*Form)

// WithLogger sets the form logger.
func WithLogger(logger *logging.Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *metrics.ClientMetrics) FormOption {
	return func(f *Form) { f.metrics = m }
}

// OnSuccess is called once, outside the form lock, after a booking is created.
func OnSuccess(fn func(*slotify.BookingConfirmation)) FormOption {
	return func(f *Form) { f.onSuccess = fn }
}

// OnClose is called outside the form lock when the form is closed or its
// success is dismissed. succeeded reports whether a booking was made.
func OnClose(fn func(succeeded bool)) FormOption {
	return func(f *Form) { f.onClose = fn }
}

// NewForm opens an empty form for service. slot may be nil.
func NewForm(submitter Submitter, service slotify.Service, slot *slotify.TimeSlot, opts ...FormOption) *Form {
	if submitter == nil {
		panic("booking: submitter required")
	}
	f := &Form{
		submitter:   submitter,
		service:     service,
		logger:      logging.Default(),
		state:       StateEditing,
		fieldErrors: FieldErrors{},
	}
	if slot != nil {
		s := *slot
		f.slot = &s
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Service returns the service being booked.
func (f *Form) Service() slotify.Service { return f.service }

// TimeSlot returns the selected slot, or nil.
func (f *Form) TimeSlot() *slotify.TimeSlot {
	if f.slot == nil {
		return nil
	}
	s := *f.slot
	return &s
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// FieldErrors returns a copy of the validation errors from the last Submit,
// minus fields edited since.
func (f *Form) FieldErrors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = v
	}
	return out
}

// LastError returns the error of the last failed submission, or nil.
func (f *Form) LastError() *SubmitError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Confirmation returns the booking confirmation once Succeeded.
func (f *Form) Confirmation() *slotify.BookingConfirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmation == nil {
		return nil
	}
	c := *f.confirmation
	return &c
}

// UpdateField sets one draft field and clears its validation error.
func (f *Form) UpdateField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing {
		if f.state == StateSubmitting {
			return ErrSubmitInProgress
		}
		return ErrNotEditing
	}
	switch field {
	case FieldName:
		f.draft.Name = value
	case FieldEmail:
		f.draft.Email = value
	case FieldPhone:
		f.draft.Phone = value
	default:
		return ErrUnknownField
	}
	delete(f.fieldErrors, field)
	return nil
}

// SetDraft replaces all three fields at once, as a non-interactive caller
// filling the form would.
func (f *Form) SetDraft(d Draft) error {
	for _, kv := range [...]struct{ field, value string }{
		{FieldName, d.Name}, {FieldEmail, d.Email}, {FieldPhone, d.Phone},
	} {
		if err := f.UpdateField(kv.field, kv.value); err != nil {
			return err
		}
	}
	return nil
}

// Submit validates the draft and, when valid, creates the booking.
//
// Validation failures return FieldErrors (errors.Is ErrValidation) and make
// no network call. API failures return a *SubmitError, put the form back in
// Editing and keep the draft. Success clears the draft.
func (f *Form) Submit(ctx context.Context) (*slotify.BookingConfirmation, error) {
	f.mu.Lock()
	switch {
	case f.detached:
		f.mu.Unlock()
		return nil, ErrDetached
	case f.state == StateSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	case f.state != StateEditing:
		f.mu.Unlock()
		return nil, ErrNotEditing
	}

	if errs := Validate(f.draft); len(errs) > 0 {
		f.fieldErrors = errs
		f.mu.Unlock()
		f.metrics.ObserveBooking(metrics.OutcomeInvalid)
		f.logger.Debug("booking draft invalid", "service_id", f.service.ID, "fields", len(errs))
		return nil, errs
	}

	draft := f.draft
	req := f.buildRequest(draft)
	f.state = StateSubmitting
	f.fieldErrors = FieldErrors{}
	f.lastErr = nil
	f.mu.Unlock()

	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(attribute.String("slotify.service_id", f.service.ID))
	if req.TimeSlotID != nil {
		span.SetAttributes(attribute.String("slotify.time_slot_id", *req.TimeSlotID))
	}

	f.logger.Info("submitting booking", "service_id", f.service.ID, "time_slot", req.TimeSlotID != nil)
	confirmation, err := f.submitter.CreateBooking(ctx, req)

	f.mu.Lock()
	if f.detached {
		f.state = StateClosed
		f.mu.Unlock()
		f.logger.Info("booking result discarded, form detached", "service_id", f.service.ID, "error", err)
		return nil, ErrDetached
	}

	if err != nil {
		span.RecordError(err)
		submitErr := newSubmitError(err)
		f.state = StateEditing
		f.lastErr = submitErr
		f.mu.Unlock()

		f.metrics.ObserveBooking(outcomeFor(submitErr.Kind))
		f.logger.Warn("booking failed", "service_id", f.service.ID, "kind", submitErr.Kind.String(), "status", submitErr.Status, "error", err)
		return nil, submitErr
	}

	if confirmation == nil {
		confirmation = &slotify.BookingConfirmation{}
	}
	f.confirmation = confirmation
	f.submitted = draft
	f.draft = Draft{}
	f.state = StateSucceeded
	hook := f.onSuccess
	f.mu.Unlock()

	f.metrics.ObserveBooking(metrics.OutcomeOK)
	f.logger.Info("booking created", "service_id", f.service.ID, "booking_id", confirmation.ID)
	if hook != nil {
		hook(confirmation)
	}
	c := *confirmation
	return &c, nil
}

// Close discards the draft and ends the form, reporting whether a booking
// had been made. It is refused while a submission is in flight.
func (f *Form) Close() (bool, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return false, ErrSubmitInProgress
	}
	if f.state == StateClosed {
		f.mu.Unlock()
		return false, ErrClosed
	}
	succeeded := f.state == StateSucceeded
	f.state = StateClosed
	f.draft = Draft{}
	f.fieldErrors = FieldErrors{}
	f.lastErr = nil
	hook := f.onClose
	detached := f.detached
	f.mu.Unlock()

	if hook != nil && !detached {
		hook(succeeded)
	}
	return succeeded, nil
}

// DismissSuccess closes a form that has booked successfully.
func (f *Form) DismissSuccess() error {
	if f.State() != StateSucceeded {
		return ErrNotSucceeded
	}
	_, err := f.Close()
	return err
}

// Detach marks the owning view as gone. Results of an in-flight submission
// are dropped and no hooks fire from now on.
func (f *Form) Detach() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = true
	if f.state != StateSubmitting {
		f.state = StateClosed
	}
}

func (f *Form) buildRequest(d Draft) slotify.CustomerBookingRequest {
	req := slotify.CustomerBookingRequest{
		ServiceID: f.service.ID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
	}
	if f.slot != nil && f.slot.ID != "" {
		id := f.slot.ID
		req.TimeSlotID = &id
	}
	return req
}

func outcomeFor(kind slotify.ErrorKind) string {
	switch kind {
	case slotify.KindRejected:
		return metrics.OutcomeRejected
	case slotify.KindNoResponse:
		return metrics.OutcomeNoResponse
	case slotify.KindBadResponse:
		return metrics.OutcomeBadResponse
	default:
		return metrics.OutcomeRequest
	}
}
