package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/communityconf/ticketing/internal/domain"
	"github.com/communityconf/ticketing/internal/usecase"
)

type TierRequest struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	BasePrice      decimal.Decimal `json:"base_price"`
	AvailableFrom  *time.Time      `json:"available_from,omitempty"`
	AvailableUntil *time.Time      `json:"available_until,omitempty"`
	AutoSelect     bool            `json:"auto_select"`
	Features       []string        `json:"features,omitempty"`
}

type CreateCatalogRequest struct {
	EventName string        `json:"event_name"`
	Currency  string        `json:"currency"`
	Tiers     []TierRequest `json:"tiers"`
}

type CreateCatalogResponse struct {
	ID string `json:"id"`
}

type CreateCouponRequest struct {
	Code       string           `json:"code"`
	PercentOff *decimal.Decimal `json:"percent_off,omitempty"`
	AmountOff  *decimal.Decimal `json:"amount_off,omitempty"`
}

type CouponResponse struct {
	Code       string  `json:"code"`
	PercentOff *string `json:"percent_off,omitempty"`
	AmountOff  *string `json:"amount_off,omitempty"`
	Valid      bool    `json:"valid"`
}

type LineItemResponse struct {
	TierID         string   `json:"tier_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	BasePrice      string   `json:"base_price"`
	EffectivePrice string   `json:"effective_price"`
	DiscountLabel  string   `json:"discount_label,omitempty"`
	AutoSelect     bool     `json:"auto_select"`
	Features       []string `json:"features,omitempty"`
}

type PricingResponse struct {
	CatalogID     string             `json:"catalog_id"`
	EventName     string             `json:"event_name"`
	Currency      string             `json:"currency"`
	Tiers         []LineItemResponse `json:"tiers"`
	DefaultTierID string             `json:"default_tier_id,omitempty"`
	DiscountLabel string             `json:"discount_label,omitempty"`
	SelectedTier  *LineItemResponse  `json:"selected_tier,omitempty"`
}

type CartQuoteItemRequest struct {
	ProductRef string          `json:"product_ref"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

type CartQuoteRequest struct {
	Currency   string                 `json:"currency"`
	Items      []CartQuoteItemRequest `json:"items"`
	CouponCode string                 `json:"coupon_code,omitempty"`
	IsMember   bool                   `json:"is_member"`
}

type CartQuoteResponse struct {
	Currency      string `json:"currency"`
	Subtotal      string `json:"subtotal"`
	Discount      string `json:"discount"`
	Total         string `json:"total"`
	DiscountLabel string `json:"discount_label,omitempty"`
}

type Handler struct {
	gateway usecase.PricingGateway
	admin   *usecase.PricingService
}

func NewHandler(gateway usecase.PricingGateway, admin *usecase.PricingService) *Handler {
	return &Handler{gateway: gateway, admin: admin}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/catalogs", h.CreateCatalog)
		r.Get("/catalogs/{id}", h.GetCatalog)
		r.Get("/catalogs/{id}/pricing", h.ResolvePricing)
		r.Post("/carts/quote", h.QuoteCart)
		r.Post("/coupons", h.CreateCoupon)
		r.Get("/coupons/{code}", h.GetCoupon)
		r.Delete("/coupons/{code}", h.InvalidateCoupon)
	})
}

func (h *Handler) CreateCatalog(w http.ResponseWriter, r *http.Request) {
	var req CreateCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventName == "" || len(req.Tiers) == 0 {
		http.Error(w, "event_name and tiers are required", http.StatusBadRequest)
		return
	}

	tiers := make([]domain.TicketTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, domain.TicketTier{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			BasePrice:      t.BasePrice,
			AvailableFrom:  t.AvailableFrom,
			AvailableUntil: t.AvailableUntil,
			AutoSelect:     t.AutoSelect,
			Features:       t.Features,
		})
	}

	id, err := h.admin.CreateCatalog(r.Context(), req.EventName, req.Currency, tiers)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTier) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateCatalogResponse{ID: id})
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.admin.GetCatalog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCatalogNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := CreateCatalogRequest{EventName: catalog.EventName, Currency: catalog.Currency}
	for _, t := range catalog.Tiers {
		resp.Tiers = append(resp.Tiers, TierRequest{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			BasePrice:      t.BasePrice,
			AvailableFrom:  t.AvailableFrom,
			AvailableUntil: t.AvailableUntil,
			AutoSelect:     t.AutoSelect,
			Features:       t.Features,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ResolvePricing(w http.ResponseWriter, r *http.Request) {
	req := usecase.ResolveRequest{
		CatalogID:  chi.URLParam(r, "id"),
		CouponCode: r.URL.Query().Get("coupon"),
		IsMember:   r.URL.Query().Get("member") == "true",
		TierID:     r.URL.Query().Get("tier"),
	}
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid at timestamp", http.StatusBadRequest)
			return
		}
		req.At = &at
	}

	view, err := h.gateway.ResolvePricing(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, domain.ErrTierNotFound) {
			http.Error(w, "this ticket is no longer available, please refresh", http.StatusConflict)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := PricingResponse{
		CatalogID:     view.CatalogID,
		EventName:     view.EventName,
		Currency:      view.Currency,
		Tiers:         make([]LineItemResponse, 0, len(view.Tiers)),
		DefaultTierID: view.DefaultTierID,
		DiscountLabel: view.DiscountLabel,
	}
	for _, item := range view.Tiers {
		resp.Tiers = append(resp.Tiers, lineItemResponse(item))
	}
	if view.SelectedTier != nil {
		selected := lineItemResponse(*view.SelectedTier)
		resp.SelectedTier = &selected
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var req CartQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	quoteReq := usecase.CartQuoteRequest{
		Currency:   req.Currency,
		CouponCode: req.CouponCode,
		IsMember:   req.IsMember,
	}
	for _, item := range req.Items {
		quoteReq.Items = append(quoteReq.Items, usecase.CartQuoteItem{
			ProductRef: item.ProductRef,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	quote, err := h.gateway.QuoteCart(r.Context(), quoteReq)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCartItem) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CartQuoteResponse{
		Currency:      quote.Currency,
		Subtotal:      quote.Subtotal.StringFixed(2),
		Discount:      quote.Discount.StringFixed(2),
		Total:         quote.Total.StringFixed(2),
		DiscountLabel: quote.DiscountLabel,
	})
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.admin.CreateCoupon(r.Context(), domain.Coupon{
		Code:       req.Code,
		PercentOff: req.PercentOff,
		AmountOff:  req.AmountOff,
		Valid:      true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCoupon) {
			http.Error(w, "coupon already exists", http.StatusConflict)
			return
		}
		if errors.Is(err, domain.ErrInvalidDiscountInput) {
			http.Error(w, "coupon needs exactly one of percent_off or amount_off", http.StatusBadRequest)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.gateway.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "coupon not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, couponResponse(coupon))
}

func (h *Handler) InvalidateCoupon(w http.ResponseWriter, r *http.Request) {
	err := h.admin.InvalidateCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "coupon not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func lineItemResponse(item usecase.LineItemView) LineItemResponse {
	return LineItemResponse{
		TierID:         item.TierID,
		Title:          item.Title,
		Description:    item.Description,
		BasePrice:      item.BasePrice.StringFixed(2),
		EffectivePrice: item.EffectivePrice.StringFixed(2),
		DiscountLabel:  item.DiscountLabel,
		AutoSelect:     item.AutoSelect,
		Features:       item.Features,
	}
}

func couponResponse(coupon *domain.Coupon) CouponResponse {
	resp := CouponResponse{Code: coupon.Code, Valid: coupon.Valid}
	if coupon.PercentOff != nil {
		s := coupon.PercentOff.String()
		resp.PercentOff = &s
	}
	if coupon.AmountOff != nil {
		s := coupon.AmountOff.StringFixed(2)
		resp.AmountOff = &s
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
