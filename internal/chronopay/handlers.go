package chronopay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/chronopay-gateway/internal/common"
	"github.com/noah-isme/chronopay-gateway/internal/hostedpay"
	"github.com/noah-isme/chronopay-gateway/internal/obs"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

type replayStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Handler exposes the HTTP surface of the plugin: the fixed IPN endpoint, the
// redirect form builder and the repost check.
type Handler struct {
	Provider  *Provider
	Audit     AuditStore
	Replay    replayStore
	ReplayTTL time.Duration
	// HomeURL is where every IPN response redirects, regardless of outcome.
	HomeURL string
	Logger  zerolog.Logger
}

// IPN processes the gateway's payment notification. The response is always a
// redirect to the store home: the gateway (or an attacker replaying payloads)
// cannot distinguish outcomes from the HTTP exchange.
func (h Handler) IPN(w http.ResponseWriter, r *http.Request) {
	outcome := OutcomeIgnored
	defer func() {
		if obs.IPNCallbackTotal != nil {
			obs.IPNCallbackTotal.WithLabelValues(string(outcome)).Inc()
		}
		http.Redirect(w, r, h.homeURL(), http.StatusFound)
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error().Err(err).Msg("ipn: read payload")
		return
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		values = r.URL.Query()
	}
	fields := hostedpay.FromForm(values)

	if h.Replay != nil && h.ReplayTTL > 0 {
		key := "ipn:chronopay:" + common.Sha256Hex(string(body))
		fresh, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			h.Logger.Error().Err(err).Msg("ipn: replay store")
			return
		}
		if !fresh {
			h.Logger.Warn().Str("transaction_id", fields.Get("transaction_id")).Msg("ipn: duplicate payload dropped")
			h.record(r.Context(), fields, body, outcome)
			return
		}
	}

	out, err := h.Provider.HandleCallback(r.Context(), fields)
	if err != nil {
		h.Logger.Error().Err(err).Str("cs1", fields.Get("cs1")).Msg("ipn: callback processing")
	}
	outcome = out
	h.record(r.Context(), fields, body, outcome)
	h.Logger.Info().
		Str("outcome", string(outcome)).
		Str("cs1", fields.Get("cs1")).
		Str("transaction_id", fields.Get("transaction_id")).
		Msg("ipn: processed")
}

func (h Handler) record(ctx context.Context, fields hostedpay.Fields, body []byte, outcome Outcome) {
	if h.Audit == nil {
		return
	}
	orderID, _ := strconv.ParseInt(fields.Get("cs1"), 10, 64)
	rec := CallbackRecord{
		ID:            uuid.New(),
		Outcome:       outcome,
		OrderID:       orderID,
		TransactionID: fields.Get("transaction_id"),
		Payload:       body,
		ReceivedAt:    time.Now().UTC(),
	}
	if err := h.Audit.Record(ctx, rec); err != nil {
		h.Logger.Error().Err(err).Msg("ipn: audit record")
	}
}

func (h Handler) homeURL() string {
	if strings.TrimSpace(h.HomeURL) == "" {
		return "/"
	}
	return h.HomeURL
}

type redirectReq struct {
	OrderID int64 `json:"orderId"`
}

// Redirect builds the signed gateway form for an order. The host renders the
// fields as a self-submitting form in the customer's browser.
func (h Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		common.JSONError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	var req redirectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if req.OrderID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "orderId is required", nil)
		return
	}
	redirect, err := h.Provider.BuildRedirect(r.Context(), req.OrderID)
	if err != nil {
		common.JSONAppError(w, mapBuildError(err))
		return
	}
	common.JSON(w, http.StatusOK, redirect)
}

// Repost reports whether the customer may retry the hosted payment and, when
// allowed, returns a freshly built redirect form.
func (h Handler) Repost(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil || h.Provider.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Provider.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "ORDER_FETCH_ERROR", err.Error(), nil)
		return
	}
	allowed := h.Provider.CanRepost(o, time.Now().UTC())
	if obs.RepostCheckTotal != nil {
		obs.RepostCheckTotal.WithLabelValues(strconv.FormatBool(allowed)).Inc()
	}
	if !allowed {
		common.JSON(w, http.StatusOK, map[string]any{"allowed": false})
		return
	}
	redirect, err := h.Provider.BuildRedirect(r.Context(), orderID)
	if err != nil {
		common.JSONAppError(w, mapBuildError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"allowed": true, "redirect": redirect})
}

func mapBuildError(err error) error {
	switch {
	case errors.Is(err, settings.ErrNotConfigured):
		return common.NewAppError("NOT_INSTALLED", "plugin is not installed", http.StatusServiceUnavailable, err)
	case errors.Is(err, order.ErrNotFound):
		return common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
	default:
		return common.NewAppError("REDIRECT_BUILD_ERROR", err.Error(), http.StatusInternalServerError, err)
	}
}
