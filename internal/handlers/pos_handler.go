package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/aws"
	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/cart"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/session"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
	"github.com/imrishuroy/go-pos-frontend/internal/views"
)

const (
	sessionCookie = "pos_session"
	sessionKey    = "pos.session"
)

// Cashier-facing messages.
const (
	msgEnterCode           = "enter a product code"
	msgProductNotFound     = "product not found"
	msgLookupFailed        = "product lookup failed"
	msgEmptyCart           = "cart is empty"
	msgPurchaseInFlight    = "a purchase is already in progress"
	msgTransactionNotFound = "transaction not found"
	msgTransactionFailed   = "transaction could not be loaded"
	msgSingleInstanceOnly  = "the POS screen is served by the single-instance server only (RUN_LOCAL=true)"
)

// Backend is the read side of the POS backend used by the views.
type Backend interface {
	GetProduct(ctx context.Context, code string) (*validation.Product, error)
	GetTransaction(ctx context.Context, id int64) (*validation.Transaction, error)
}

// HandlerConfig groups dependencies for the POS handlers.
type HandlerConfig struct {
	Backend       Backend
	Sessions      *session.Registry
	Metrics       purchase.Metrics // optional
	Logger        *zap.Logger
	SessionTTL    time.Duration
	SecureCookies bool
	// HistoryOnly serves the index and history pages and refuses the POS
	// screen. Cashier sessions live in process memory, so the screen is
	// only safe on a single long-lived instance.
	HistoryOnly bool
}

type posHandler struct {
	backend  Backend
	sessions *session.Registry
	metrics  purchase.Metrics
	logger   *zap.Logger
	validate *validatorv10.Validate
	maxAge   int
	secure   bool
}

// RegisterPOSRoutes registers the lookup, cart, purchase and history views.
func RegisterPOSRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &posHandler{
		backend:  cfg.Backend,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		validate: validation.New(),
		maxAge:   int(cfg.SessionTTL / time.Second),
		secure:   cfg.SecureCookies,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	r.SetHTMLTemplate(views.Templates())

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, views.IndexPage, nil)
	})
	r.GET("/history", h.history)

	sessionOrRefuse := h.withSession
	if cfg.HistoryOnly {
		sessionOrRefuse = refuseStateful
	}
	pos := r.Group("/pos", sessionOrRefuse)
	pos.GET("", h.show)
	pos.POST("/lookup", h.lookup)
	pos.POST("/add", h.add)
	pos.POST("/adjust", h.adjust)
	pos.POST("/purchase", h.purchase)
	pos.POST("/acknowledge", h.acknowledge)
	pos.POST("/notice/dismiss", h.dismissNotice)
}

// withSession resolves the cashier's session from its cookie, starting a
// new one when the cookie is missing or expired.
func (h *posHandler) withSession(c *gin.Context) {
	var s *session.Session
	if id, err := c.Cookie(sessionCookie); err == nil {
		s, _ = h.sessions.Get(id)
	}
	if s == nil {
		s = h.sessions.Create()
		h.logger.Info("session started", zap.String("session_id", s.ID))
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, s.ID, h.maxAge, "/", "", h.secure, true)
	c.Set(sessionKey, s)
	c.Next()
}

func refuseStateful(c *gin.Context) {
	c.String(http.StatusServiceUnavailable, msgSingleInstanceOnly)
	c.Abort()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func backToPOS(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/pos")
}

func (h *posHandler) show(c *gin.Context) {
	s := current(c)
	lk := s.Lookup()
	pv := s.Purchase.View()
	lines := s.Cart.Lines()

	c.HTML(http.StatusOK, views.POSPage, views.POS{
		Code:         lk.Code,
		Product:      lk.Product,
		Message:      lk.Message,
		Lines:        lines,
		Totals:       s.Cart.Totals(),
		CanPurchase:  len(lines) > 0 && pv.State == purchase.StateIdle,
		Confirmation: pv.Confirmation,
		Notice:       pv.Notice,
	})
}

// lookup never touches the cart.
func (h *posHandler) lookup(c *gin.Context) {
	s := current(c)

	var form validation.LookupForm
	if err := validation.BindForm(c, &form, h.validate); err != nil {
		s.ShowMessage("", msgEnterCode)
		backToPOS(c)
		return
	}
	code := strings.TrimSpace(form.Code)
	if code == "" {
		s.ShowMessage("", msgEnterCode)
		backToPOS(c)
		return
	}

	ctx := c.Request.Context()
	p, err := h.backend.GetProduct(ctx, code)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		s.ShowMessage(code, msgProductNotFound)
		h.incr(ctx, aws.MetricProductLookupMiss)
	case err != nil:
		h.logger.Error("product lookup", zap.String("session_id", s.ID), zap.String("code", code), zap.Error(err))
		s.ShowMessage(code, msgLookupFailed)
	default:
		s.ShowProduct(code, p)
	}
	backToPOS(c)
}

// add puts the displayed product into the cart with quantity 1, or bumps
// its line when it is already there.
func (h *posHandler) add(c *gin.Context) {
	s := current(c)
	p := s.TakeProduct()
	if p == nil {
		backToPOS(c)
		return
	}

	err := s.Cart.InsertNewLine(cart.NewLine(p.ID, p.Code, p.Name, p.PriceExTax, p.PriceInTax))
	if errors.Is(err, cart.ErrLineExists) {
		_, err = s.Cart.AdjustQuantity(p.ID, 1)
	}
	if err != nil {
		h.logger.Warn("add to cart", zap.String("session_id", s.ID), zap.Int64("product_id", p.ID), zap.Error(err))
		s.Flash(err.Error())
	}
	backToPOS(c)
}

func (h *posHandler) adjust(c *gin.Context) {
	s := current(c)

	var form validation.AdjustForm
	if err := validation.BindForm(c, &form, h.validate); err != nil {
		h.logger.Warn("adjust form", zap.String("session_id", s.ID), zap.Error(err))
		backToPOS(c)
		return
	}
	if _, err := s.Cart.AdjustQuantity(form.ProductID, form.Delta); err != nil {
		h.logger.Warn("adjust quantity", zap.String("session_id", s.ID), zap.Int64("product_id", form.ProductID), zap.Error(err))
	}
	backToPOS(c)
}

func (h *posHandler) purchase(c *gin.Context) {
	s := current(c)

	// the cashier cannot abort a submitted purchase by navigating away
	ctx := context.WithoutCancel(c.Request.Context())
	_, err := s.Purchase.Submit(ctx)
	switch {
	case errors.Is(err, purchase.ErrEmptyCart):
		s.Flash(msgEmptyCart)
	case errors.Is(err, purchase.ErrSubmissionInFlight):
		s.Flash(msgPurchaseInFlight)
	case err != nil:
		// the controller keeps the failure notice
	default:
		h.logger.Info("purchase confirmed", zap.String("session_id", s.ID))
	}
	backToPOS(c)
}

func (h *posHandler) acknowledge(c *gin.Context) {
	s := current(c)

	nav, err := s.Purchase.Acknowledge()
	if err != nil || nav == nil {
		backToPOS(c)
		return
	}
	h.logger.Info("purchase acknowledged",
		zap.String("session_id", s.ID),
		zap.Int64("transaction_id", nav.TransactionID))
	c.Redirect(http.StatusSeeOther, nav.Path)
}

func (h *posHandler) dismissNotice(c *gin.Context) {
	current(c).Purchase.DismissNotice()
	backToPOS(c)
}

func (h *posHandler) history(c *gin.Context) {
	var q validation.HistoryQuery
	if err := validation.BindQuery(c, &q, h.validate); err != nil {
		c.HTML(http.StatusNotFound, views.HistoryPage, views.History{Error: msgTransactionNotFound})
		return
	}

	trn, err := h.backend.GetTransaction(c.Request.Context(), q.ID)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		c.HTML(http.StatusNotFound, views.HistoryPage, views.History{Error: msgTransactionNotFound})
	case err != nil:
		h.logger.Error("load transaction", zap.Int64("transaction_id", q.ID), zap.Error(err))
		c.HTML(http.StatusBadGateway, views.HistoryPage, views.History{Error: msgTransactionFailed})
	default:
		c.HTML(http.StatusOK, views.HistoryPage, views.History{Transaction: trn})
	}
}

func (h *posHandler) incr(ctx context.Context, name string) {
	if h.metrics == nil {
		return
	}
	if err := h.metrics.Incr(ctx, name); err != nil {
		h.logger.Error("metric", zap.String("name", name), zap.Error(err))
	}
}
