package booking

import (
	"fmt"
	"strings"
	"time"
)

// Summary is what the confirmation view shows after a successful booking.
type Summary struct {
	ServiceName   string
	Name          string
	Email         string
	Phone         string
	AppointmentAt time.Time
	CreatedAt     time.Time
}

// Summary returns the confirmation details. ok is false until the form has
// booked. Contact fields prefer the server's values and fall back to what
// was submitted.
func (f *Form) Summary() (Summary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmation == nil {
		return Summary{}, false
	}
	s := Summary{
		ServiceName: f.service.Name,
		Name:        firstNonEmpty(f.confirmation.Name, f.submitted.Name),
		Email:       firstNonEmpty(f.confirmation.Email, f.submitted.Email),
		Phone:       firstNonEmpty(f.confirmation.Phone, f.submitted.Phone),
		CreatedAt:   f.confirmation.CreatedAt.Time,
	}
	if f.slot != nil {
		s.AppointmentAt = f.slot.StartTime.Time
	}
	return s, true
}

// FormatSummary renders s as plain text, times shown in loc.
func FormatSummary(s Summary, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString("Booking Successful!\n")
	b.WriteString("Your appointment has been booked successfully.\n")
	b.WriteString(fmt.Sprintf("Service: %s\n", valueOrNA(s.ServiceName)))
	b.WriteString(fmt.Sprintf("Name: %s\n", valueOrNA(s.Name)))
	b.WriteString(fmt.Sprintf("Email: %s\n", valueOrNA(s.Email)))
	b.WriteString(fmt.Sprintf("Phone: %s\n", valueOrNA(s.Phone)))
	if !s.AppointmentAt.IsZero() {
		b.WriteString(fmt.Sprintf("Appointment Time: %s\n", s.AppointmentAt.In(loc).Format("Mon Jan 2, 2006 3:04 PM")))
	}
	if !s.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Booking Created: %s\n", s.CreatedAt.In(loc).Format(time.RFC1123)))
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
