package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/slotify/internal/observability/metrics"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/pkg/logging"
)

var (
	testService = slotify.Service{ID: "svc-1", BusinessID: "biz-1", Name: "Haircut", Duration: 30, Price: 25}
	testSlot    = slotify.TimeSlot{
		ID:        "ts-1",
		ServiceID: "svc-1",
		StartTime: slotify.NewTimestamp(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		EndTime:   slotify.NewTimestamp(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)),
	}
)

// countingSubmitter records calls and returns canned results.
type countingSubmitter struct {
	calls atomic.Int32
	last  slotify.CustomerBookingRequest
	mu    sync.Mutex
	conf  *slotify.BookingConfirmation
	err   error
}

func (s *countingSubmitter) CreateBooking(_ context.Context, req slotify.CustomerBookingRequest) (*slotify.BookingConfirmation, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	return s.conf, s.err
}

func fill(t *testing.T, f *Form, d Draft) {
	t.Helper()
	require.NoError(t, f.SetDraft(d))
}

func newClientForm(t *testing.T, handler http.HandlerFunc, slot *slotify.TimeSlot, opts ...FormOption) *Form {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := slotify.NewSlotifyClient(ts.URL, slotify.WithLogger(logging.Discard()))
	opts = append([]FormOption{WithLogger(logging.Discard())}, opts...)
	return NewForm(client, testService, slot, opts...)
}

func TestForm_InitialState(t *testing.T) {
	f := NewForm(&countingSubmitter{}, testService, &testSlot)
	assert.Equal(t, StateEditing, f.State())
	assert.Equal(t, Draft{}, f.Draft())
	assert.Empty(t, f.FieldErrors())
	assert.Nil(t, f.LastError())
	assert.Nil(t, f.Confirmation())
	assert.Equal(t, "ts-1", f.TimeSlot().ID)
	assert.Equal(t, testService, f.Service())
}

func TestForm_UpdateFieldClearsItsError(t *testing.T) {
	sub := &countingSubmitter{}
	f := NewForm(sub, testService, nil, WithLogger(logging.Discard()))

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)
	require.Len(t, f.FieldErrors(), 3)

	require.NoError(t, f.UpdateField(FieldEmail, "jane@example.com"))
	errs := f.FieldErrors()
	assert.NotContains(t, errs, FieldEmail)
	assert.Contains(t, errs, FieldName)
	assert.Contains(t, errs, FieldPhone)

	assert.ErrorIs(t, f.UpdateField("address", "x"), ErrUnknownField)
}

func TestForm_InvalidDraftNeverCallsNetwork(t *testing.T) {
	var hits atomic.Int32
	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}, &testSlot)

	// scenario 2
	fill(t, f, Draft{Name: "", Email: "x@x.com", Phone: "123"})
	conf, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Nil(t, conf)

	var fieldErrs FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, FieldErrors{FieldName: "Name is required"}, fieldErrs)
	assert.Equal(t, FieldErrors{FieldName: "Name is required"}, f.FieldErrors())
	assert.Equal(t, StateEditing, f.State())
	assert.Zero(t, hits.Load())
}

func TestForm_SubmitSuccess(t *testing.T) {
	var got slotify.CustomerBookingRequest
	onSuccess := make(chan *slotify.BookingConfirmation, 1)

	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/Customer", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cust-1","serviceId":"svc-1","timeSlotId":"ts-1","name":"Jane Doe","email":"jane@example.com","phone":"555-1234","createdAt":"2026-02-20T12:00:00Z"}`))
	}, &testSlot, OnSuccess(func(c *slotify.BookingConfirmation) { onSuccess <- c }))

	// scenario 1
	fill(t, f, validDraft())
	conf, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Equal(t, "cust-1", conf.ID)

	assert.Equal(t, "svc-1", got.ServiceID)
	assert.Equal(t, "Jane Doe", got.Name)
	require.NotNil(t, got.TimeSlotID)
	assert.Equal(t, "ts-1", *got.TimeSlotID)

	assert.Equal(t, StateSucceeded, f.State())
	assert.Equal(t, Draft{}, f.Draft(), "draft cleared after success")
	assert.Nil(t, f.LastError())

	summary, ok := f.Summary()
	require.True(t, ok)
	assert.Equal(t, "Haircut", summary.ServiceName)
	assert.Equal(t, "Jane Doe", summary.Name)
	assert.Equal(t, "jane@example.com", summary.Email)
	assert.Equal(t, "555-1234", summary.Phone)
	assert.True(t, summary.AppointmentAt.Equal(testSlot.StartTime.Time))
	assert.True(t, summary.CreatedAt.Equal(time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)))

	select {
	case c := <-onSuccess:
		assert.Equal(t, "cust-1", c.ID)
	default:
		t.Fatal("success hook not called")
	}

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.ErrorIs(t, f.UpdateField(FieldName, "x"), ErrNotEditing)
}

func TestForm_SubmitWithoutSlotOmitsTimeSlotID(t *testing.T) {
	var raw map[string]any
	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cust-2"}`))
	}, nil)

	fill(t, f, validDraft())
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, raw, "timeSlotId")

	summary, ok := f.Summary()
	require.True(t, ok)
	// server echoed nothing, submitted values are shown
	assert.Equal(t, "Jane Doe", summary.Name)
	assert.True(t, summary.AppointmentAt.IsZero())
}

func TestForm_RejectedKeepsDraft(t *testing.T) {
	for _, status := range []int{http.StatusConflict, http.StatusBadRequest} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte("Time slot is already booked"))
			}, &testSlot)

			// scenario 3
			fill(t, f, validDraft())
			_, err := f.Submit(context.Background())
			require.Error(t, err)

			var submitErr *SubmitError
			require.True(t, errors.As(err, &submitErr))
			assert.Equal(t, slotify.KindRejected, submitErr.Kind)
			assert.Equal(t, status, submitErr.Status)
			assert.Contains(t, submitErr.Message, fmt.Sprintf("API Error (%d)", status))
			assert.Contains(t, submitErr.Message, "Time slot is already booked")

			assert.Equal(t, StateEditing, f.State())
			assert.Equal(t, validDraft(), f.Draft())
			assert.Equal(t, submitErr, f.LastError())
			_, ok := f.Summary()
			assert.False(t, ok)
		})
	}
}

func TestForm_NoResponseKeepsDraft(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := slotify.NewSlotifyClient("http://"+addr, slotify.WithLogger(logging.Discard()))
	f := NewForm(client, testService, &testSlot, WithLogger(logging.Discard()))

	// scenario 4
	fill(t, f, validDraft())
	_, err = f.Submit(context.Background())
	require.Error(t, err)

	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, slotify.KindNoResponse, submitErr.Kind)
	assert.Equal(t, "No response received from server. Please check your network connection.", submitErr.Message)
	assert.Equal(t, StateEditing, f.State())
	assert.Equal(t, validDraft(), f.Draft())
}

func TestForm_UnreadableCreatedResponseStillSucceeds(t *testing.T) {
	var posts atomic.Int32
	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("Customer created"))
	}, &testSlot)

	fill(t, f, validDraft())
	conf, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Equal(t, StateSucceeded, f.State())
	assert.Nil(t, f.LastError())

	summary, ok := f.Summary()
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", summary.Name)
	assert.Equal(t, "jane@example.com", summary.Email)
	assert.Equal(t, "555-1234", summary.Phone)
	assert.True(t, summary.AppointmentAt.Equal(testSlot.StartTime.Time))

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.Equal(t, int32(1), posts.Load())
}

func TestForm_RequestErrorMessage(t *testing.T) {
	sub := &countingSubmitter{err: &slotify.RequestError{Err: errors.New("bad url")}}
	f := NewForm(sub, testService, nil, WithLogger(logging.Discard()))
	fill(t, f, validDraft())

	_, err := f.Submit(context.Background())
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, slotify.KindRequest, submitErr.Kind)
	assert.Equal(t, "Error: bad url", submitErr.Message)
}

func TestForm_ResubmitAfterFailure(t *testing.T) {
	var n atomic.Int32
	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cust-3"}`))
	}, &testSlot)

	fill(t, f, validDraft())
	_, err := f.Submit(context.Background())
	require.Error(t, err)

	conf, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cust-3", conf.ID)
	assert.EqualValues(t, 2, n.Load())
}

func TestForm_DuplicateSubmitWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var hits atomic.Int32

	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cust-4"}`))
	}, &testSlot)
	fill(t, f, validDraft())

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the server")
	}
	assert.Equal(t, StateSubmitting, f.State())

	for i := 0; i < 5; i++ {
		_, err := f.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSubmitInProgress)
	}
	assert.ErrorIs(t, f.UpdateField(FieldName, "x"), ErrSubmitInProgress)
	_, err := f.Close()
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, StateSucceeded, f.State())
}

func TestForm_CloseAndDismiss(t *testing.T) {
	var closed []bool
	hook := OnClose(func(succeeded bool) { closed = append(closed, succeeded) })

	t.Run("close while editing", func(t *testing.T) {
		closed = nil
		f := NewForm(&countingSubmitter{}, testService, nil, hook)
		fill(t, f, validDraft())
		assert.ErrorIs(t, f.DismissSuccess(), ErrNotSucceeded)

		succeeded, err := f.Close()
		require.NoError(t, err)
		assert.False(t, succeeded)
		assert.Equal(t, StateClosed, f.State())
		assert.Equal(t, Draft{}, f.Draft())
		assert.Equal(t, []bool{false}, closed)

		_, err = f.Close()
		assert.ErrorIs(t, err, ErrClosed)
		assert.Len(t, closed, 1)
	})

	t.Run("dismiss after success", func(t *testing.T) {
		closed = nil
		sub := &countingSubmitter{conf: &slotify.BookingConfirmation{ID: "cust-5"}}
		f := NewForm(sub, testService, &testSlot, hook, WithLogger(logging.Discard()))
		fill(t, f, validDraft())
		_, err := f.Submit(context.Background())
		require.NoError(t, err)

		require.NoError(t, f.DismissSuccess())
		assert.Equal(t, StateClosed, f.State())
		assert.Equal(t, []bool{true}, closed)
	})
}

func TestForm_DetachDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var successCalls, closeCalls atomic.Int32

	f := newClientForm(t, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cust-6"}`))
	}, &testSlot,
		OnSuccess(func(*slotify.BookingConfirmation) { successCalls.Add(1) }),
		OnClose(func(bool) { closeCalls.Add(1) }),
	)
	fill(t, f, validDraft())

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-entered

	f.Detach()
	close(release)

	assert.ErrorIs(t, <-done, ErrDetached)
	assert.Equal(t, StateClosed, f.State())
	assert.Nil(t, f.Confirmation())
	assert.Zero(t, successCalls.Load())
	assert.Zero(t, closeCalls.Load())

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDetached)
}

func TestForm_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)

	sub := &countingSubmitter{err: &slotify.APIError{Status: http.StatusConflict, Body: "booked"}}
	f := NewForm(sub, testService, &testSlot, WithMetrics(m), WithLogger(logging.Discard()))

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)

	fill(t, f, validDraft())
	_, err = f.Submit(context.Background())
	require.Error(t, err)

	sub.err = nil
	sub.conf = &slotify.BookingConfirmation{ID: "cust-7"}
	_, err = f.Submit(context.Background())
	require.NoError(t, err)

	expected := `
# HELP slotify_booking_submissions_total Booking form submissions by outcome
# TYPE slotify_booking_submissions_total counter
slotify_booking_submissions_total{outcome="ok"} 1
slotify_booking_submissions_total{outcome="rejected"} 1
slotify_booking_submissions_total{outcome="validation_failed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "slotify_booking_submissions_total"))
	assert.EqualValues(t, 2, sub.calls.Load())
}

func TestFormatSummary(t *testing.T) {
	s := Summary{
		ServiceName:   "Haircut",
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		AppointmentAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	out := FormatSummary(s, time.UTC)
	assert.Contains(t, out, "Booking Successful!\n")
	assert.Contains(t, out, "Service: Haircut\n")
	assert.Contains(t, out, "Phone: N/A\n")
	assert.Contains(t, out, "Appointment Time: Sun Mar 1, 2026 9:00 AM\n")
	assert.NotContains(t, out, "Booking Created:")
}
