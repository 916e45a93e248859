package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/directory"
	"github.com/resta-pos/api/internal/events"
	"github.com/resta-pos/api/internal/middleware"
	"github.com/resta-pos/api/internal/order"
	"github.com/resta-pos/api/internal/store"
	"github.com/resta-pos/api/internal/ws"
)

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (order.Order, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]order.Order, error)
}

// StatusUpdater runs the lifecycle state machine against a persisted order.
// Satisfied by *order.StatusService.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, upd order.StatusUpdate) (*order.Order, error)
}

// Assigner attaches and detaches employees on orders.
// Satisfied by *order.AssignmentService.
type Assigner interface {
	Assign(ctx context.Context, orderID, employeeID uuid.UUID) (*order.Order, error)
	Unassign(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	Restore(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	store    OrderStore
	status   StatusUpdater
	assigner Assigner
	hub      *ws.Hub
	events   events.Publisher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, status StatusUpdater, assigner Assigner, hub *ws.Hub, pub events.Publisher) *OrderHandler {
	return &OrderHandler{store: store, status: status, assigner: assigner, hub: hub, events: pub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/assign", h.Assign)
	r.Delete("/{id}/assign", h.Unassign)
	r.Post("/{id}/restore", h.Restore)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

type assignRequest struct {
	EmployeeID string `json:"employee_id"`
}

type orderResponse struct {
	ID                 uuid.UUID `json:"id"`
	Number             string    `json:"order_number"`
	Status             string    `json:"status"`
	OrderType          string    `json:"order_type"`
	Total              string    `json:"total"`
	PaymentMethod      *string   `json:"payment_method"`
	AssignedEmployeeID *string   `json:"assigned_employee_id"`
	CompletedByID      *string   `json:"completed_by_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// List handles GET /orders. The status filter accepts live statuses plus
// HISTORICAL, which reads as "COMPLETED or CANCELLED".
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		if _, err := order.ParseStatus(statusFilter); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
	}

	orders, err := h.store.ListOrders(r.Context(), store.ListOrdersParams{
		StatusFilter: statusFilter,
		Limit:        int32(limit),
		Offset:       int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	o, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateStatus handles PATCH /orders/{id}/status. Partial updates are
// allowed: status only, payment method only, or both in one call.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var upd order.StatusUpdate
	if req.Status != "" {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		upd.Status = &st
	}
	if req.PaymentMethod != "" {
		pm, err := order.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
			return
		}
		upd.PaymentMethod = &pm
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		upd.ActorID = &claims.EmployeeID
	}

	updated, err := h.status.UpdateStatus(r.Context(), orderID, upd)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, order.ErrNoUpdateFields):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, order.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, order.ErrConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(r.Context(), "order.status_updated", "order.status."+string(updated.Status), *updated)
	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}

// Assign handles POST /orders/{id}/assign.
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
		return
	}

	updated, err := h.assigner.Assign(r.Context(), orderID, employeeID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, directory.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
		case errors.Is(err, order.ErrOrderFinalized),
			errors.Is(err, order.ErrAlreadyAssigned):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, order.ErrInvalidOrderType),
			errors.Is(err, order.ErrEmployeeInactive),
			errors.Is(err, order.ErrIneligibleRole):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: assign order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(r.Context(), "order.assigned", "order.assigned", *updated)
	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}

// Unassign handles DELETE /orders/{id}/assign.
func (h *OrderHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	updated, err := h.assigner.Unassign(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, order.ErrUnassignmentNotSupported):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: unassign order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(r.Context(), "order.unassigned", "order.unassigned", *updated)
	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}

// Restore handles POST /orders/{id}/restore.
func (h *OrderHandler) Restore(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	updated, err := h.assigner.Restore(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, order.ErrRestoreNotAllowed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: restore order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(r.Context(), "order.restored", "order.restored", *updated)
	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}

// --- Helpers ---

// notify fans the mutated order out to websocket clients and the broker.
// Both are best effort: a dead consumer must not fail the mutation.
func (h *OrderHandler) notify(ctx context.Context, eventType, routingKey string, o order.Order) {
	resp := toOrderResponse(o)
	if h.hub != nil {
		if payload, err := json.Marshal(resp); err == nil {
			h.hub.Broadcast(ws.Event{Type: eventType, Payload: payload})
		}
	}
	if h.events != nil {
		if err := h.events.Publish(ctx, routingKey, resp); err != nil {
			log.Printf("ERROR: publish %s: %v", routingKey, err)
		}
	}
}

func toOrderResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		Number:    o.Number,
		Status:    string(o.Status),
		OrderType: string(o.Type),
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.PaymentMethod != "" {
		s := string(o.PaymentMethod)
		resp.PaymentMethod = &s
	}
	if o.AssignedEmployeeID != nil {
		s := o.AssignedEmployeeID.String()
		resp.AssignedEmployeeID = &s
	}
	if o.CompletedByID != nil {
		s := o.CompletedByID.String()
		resp.CompletedByID = &s
	}
	return resp
}
