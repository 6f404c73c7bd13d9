package stubapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/slotify/internal/booking"
	httpmiddleware "github.com/wolfman30/slotify/internal/http/middleware"
	"github.com/wolfman30/slotify/internal/slotify"
	"github.com/wolfman30/slotify/pkg/logging"
)

const maxBodyBytes = 1 << 20

// Handler serves the Slotify routes from a Catalog and a Store.
type Handler struct {
	catalog *Catalog
	store   Store
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler wires a handler. A nil logger falls back to the default.
func NewHandler(catalog *Catalog, store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	return &Handler{catalog: catalog, store: store, logger: logger, now: time.Now}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListBusinesses serves GET /api/Business/annymous.
func (h *Handler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Businesses())
}

// GetBusiness serves GET /api/Business/Annoymous/{id}.
func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	b, ok := h.catalog.Business(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Business not found")
		return
	}
	writeJSON(w, http.StatusOK, b.Business)
}

// ListOwnerBusinesses serves GET /api/Business/owner/{userId}.
func (h *Handler) ListOwnerBusinesses(w http.ResponseWriter, r *http.Request) {
	owner, _ := httpmiddleware.OwnerFromContext(r.Context())
	if chi.URLParam(r, "userId") != owner {
		writeError(w, http.StatusForbidden, "You can only list your own businesses")
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.OwnedBy(owner))
}

// ListAvailableSlots serves GET /api/TimeSlot/available/{serviceId}: unbooked
// slots that have not started yet.
func (h *Handler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")
	if _, _, ok := h.catalog.Service(serviceID); !ok {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}
	slots, err := h.store.ListSlots(r.Context(), serviceID)
	if err != nil {
		h.internalError(w, "list slots", err)
		return
	}
	now := h.now()
	available := make([]slotify.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsBooked && s.StartTime.After(now) {
			available = append(available, s)
		}
	}
	writeJSON(w, http.StatusOK, available)
}

// ListServiceSlots serves GET /api/TimeSlot/service/{serviceId} for the owner.
func (h *Handler) ListServiceSlots(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceId")
	if !h.ownsService(w, r, serviceID) {
		return
	}
	slots, err := h.store.ListSlots(r.Context(), serviceID)
	if err != nil {
		h.internalError(w, "list slots", err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// CreateSlot serves POST /api/TimeSlot.
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req slotify.CreateTimeSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.ownsService(w, r, req.ServiceID) {
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		writeError(w, http.StatusBadRequest, "Start and end time are required")
		return
	}
	if !req.EndTime.After(req.StartTime.Time) {
		writeError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	slot := slotify.TimeSlot{
		ID:        uuid.NewString(),
		ServiceID: req.ServiceID,
		StartTime: slotify.NewTimestamp(req.StartTime.Time),
		EndTime:   slotify.NewTimestamp(req.EndTime.Time),
	}
	if err := h.store.PutSlot(r.Context(), slot); err != nil {
		h.internalError(w, "create slot", err)
		return
	}
	h.logger.Info("time slot created", "slot_id", slot.ID, "service_id", slot.ServiceID)
	writeJSON(w, http.StatusCreated, slot)
}

// DeleteSlot serves DELETE /api/TimeSlot/{id}. Booked slots are kept.
func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slot, err := h.store.GetSlot(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Time slot not found")
		return
	}
	if err != nil {
		h.internalError(w, "get slot", err)
		return
	}
	if !h.ownsService(w, r, slot.ServiceID) {
		return
	}
	if slot.IsBooked {
		writeError(w, http.StatusBadRequest, "Cannot delete a booked time slot")
		return
	}
	if err := h.store.DeleteSlot(r.Context(), id); err != nil && !errors.Is(err, ErrNotFound) {
		h.internalError(w, "delete slot", err)
		return
	}
	h.logger.Info("time slot deleted", "slot_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// CreateCustomer serves POST /api/Customer: the public booking endpoint.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req slotify.CustomerBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := booking.Validate(booking.Draft{Name: req.Name, Email: req.Email, Phone: req.Phone}); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": "Validation failed", "errors": errs})
		return
	}
	svc, _, ok := h.catalog.Service(req.ServiceID)
	if !ok {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}

	customer := slotify.Customer{
		ID:        uuid.NewString(),
		ServiceID: svc.ID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: slotify.NewTimestamp(h.now()),
	}

	if req.TimeSlotID != nil && *req.TimeSlotID != "" {
		slotID := *req.TimeSlotID
		slot, err := h.store.GetSlot(r.Context(), slotID)
		if errors.Is(err, ErrNotFound) || (err == nil && slot.ServiceID != svc.ID) {
			writeError(w, http.StatusNotFound, "Time slot not found")
			return
		}
		if err != nil {
			h.internalError(w, "get slot", err)
			return
		}
		switch err := h.store.BookSlot(r.Context(), slotID, customer.ID); {
		case errors.Is(err, ErrSlotTaken):
			writeError(w, http.StatusConflict, "Time slot is already booked")
			return
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "Time slot not found")
			return
		case err != nil:
			h.internalError(w, "book slot", err)
			return
		}
		customer.TimeSlotID = slotID
	}

	if err := h.store.AddCustomer(r.Context(), svc.BusinessID, customer); err != nil {
		if customer.TimeSlotID != "" {
			if rerr := h.store.ReleaseSlot(r.Context(), customer.TimeSlotID, customer.ID); rerr != nil {
				h.logger.Error("release slot after failed booking", "slot_id", customer.TimeSlotID, "error", rerr)
			}
		}
		h.internalError(w, "add customer", err)
		return
	}
	h.logger.Info("booking created", "customer_id", customer.ID, "service_id", svc.ID, "time_slot_id", customer.TimeSlotID)
	writeJSON(w, http.StatusCreated, customer)
}

// ListCustomers serves GET /api/Customer/business/{businessId} for the owner.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	b, ok := h.catalog.Business(chi.URLParam(r, "businessId"))
	if !ok {
		writeError(w, http.StatusNotFound, "Business not found")
		return
	}
	owner, _ := httpmiddleware.OwnerFromContext(r.Context())
	if b.OwnerID != owner {
		writeError(w, http.StatusForbidden, "You do not own this business")
		return
	}
	customers, err := h.store.ListCustomers(r.Context(), b.ID)
	if err != nil {
		h.internalError(w, "list customers", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) ownsService(w http.ResponseWriter, r *http.Request, serviceID string) bool {
	_, ownerID, ok := h.catalog.Service(serviceID)
	if !ok {
		writeError(w, http.StatusNotFound, "Service not found")
		return false
	}
	owner, _ := httpmiddleware.OwnerFromContext(r.Context())
	if ownerID != owner {
		writeError(w, http.StatusForbidden, "You do not own this service")
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, action string, err error) {
	h.logger.Error("stub api failure", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError answers with a plain-text message the client shows verbatim.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
