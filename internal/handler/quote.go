package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/quote"
)

// QuoteEngine defines the engine method needed by the quote handler.
// Satisfied by *quote.Engine; narrow interface for testability.
type QuoteEngine interface {
	ComputeQuote(ctx context.Context, dishID, sizeID uuid.UUID, selections []quote.Selection) (*quote.Quote, error)
}

// QuoteHandler exposes the price computation endpoint consumed by the
// online-ordering frontend before an order exists.
type QuoteHandler struct {
	engine QuoteEngine
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(engine QuoteEngine) *QuoteHandler {
	return &QuoteHandler{engine: engine}
}

// RegisterRoutes registers quote endpoints on the given Chi router.
func (h *QuoteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quote", h.Compute)
}

type quoteRequest struct {
	DishID     string                  `json:"dish_id"`
	SizeID     string                  `json:"size_id"`
	Selections []quoteSelectionRequest `json:"selections"`
}

type quoteSelectionRequest struct {
	GroupID string `json:"group_id"`
	ItemID  string `json:"item_id"`
	Qty     int32  `json:"qty"`
}

type quoteResponse struct {
	BasePrice  string          `json:"base_price"`
	AddonPrice string          `json:"addon_price"`
	VATRate    string          `json:"vat_rate"`
	VATAmount  string          `json:"vat_amount"`
	TotalPrice string          `json:"total_price"`
	Breakdown  []breakdownLine `json:"breakdown"`
}

type breakdownLine struct {
	Label string `json:"label"`
	Price string `json:"price"`
}

type quoteErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Compute handles POST /quote.
func (h *QuoteHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dishID, err := uuid.Parse(req.DishID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish_id"})
		return
	}
	sizeID, err := uuid.Parse(req.SizeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid size_id"})
		return
	}

	selections := make([]quote.Selection, len(req.Selections))
	for i, sel := range req.Selections {
		groupID, err := uuid.Parse(sel.GroupID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatSelectionError(i, "invalid group_id")})
			return
		}
		itemID, err := uuid.Parse(sel.ItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatSelectionError(i, "invalid item_id")})
			return
		}
		selections[i] = quote.Selection{GroupID: groupID, ItemID: itemID, Qty: sel.Qty}
	}

	q, err := h.engine.ComputeQuote(r.Context(), dishID, sizeID, selections)
	if err != nil {
		switch {
		case quote.IsNotFound(err):
			writeJSON(w, http.StatusNotFound, quoteErrorResponse{Error: err.Error(), Kind: quote.Kind(err)})
		case quote.IsRuleViolation(err):
			writeJSON(w, http.StatusUnprocessableEntity, quoteErrorResponse{Error: err.Error(), Kind: quote.Kind(err)})
		default:
			// Catalog corruption or provider failure; not the caller's fault.
			log.Printf("ERROR: compute quote: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := quoteResponse{
		BasePrice:  q.BasePrice.StringFixed(2),
		AddonPrice: q.AddonPrice.StringFixed(2),
		VATRate:    q.VATRate.String(),
		VATAmount:  q.VATAmount.StringFixed(2),
		TotalPrice: q.Total.StringFixed(2),
		Breakdown:  make([]breakdownLine, len(q.Lines)),
	}
	for i, line := range q.Lines {
		resp.Breakdown[i] = breakdownLine{Label: line.Label, Price: line.Price.StringFixed(2)}
	}

	writeJSON(w, http.StatusOK, resp)
}

func formatSelectionError(idx int, msg string) string {
	return "selections[" + strconv.Itoa(idx) + "]: " + msg
}
