package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// CreatePaymentRequest is the subset of the provider's payment body the mock reads.
type CreatePaymentRequest struct {
	PaymentMethodID   string  `json:"payment_method_id" binding:"required"`
	TransactionAmount float64 `json:"transaction_amount" binding:"required,gt=0"`
	ExternalReference string  `json:"external_reference" binding:"required"`
	Token             string  `json:"token"`
	Installments      int     `json:"installments"`
	Description       string  `json:"description"`
	NotificationURL   string  `json:"notification_url"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

type TransactionData struct {
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

// Payment mirrors the provider's payment resource.
type Payment struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	ExternalReference  string              `json:"external_reference"`
	PaymentMethodID    string              `json:"payment_method_id"`
	TransactionAmount  float64             `json:"transaction_amount"`
	Installments       int                 `json:"installments,omitempty"`
	Description        string              `json:"description,omitempty"`
	DateCreated        time.Time           `json:"date_created"`
	DateApproved       *time.Time          `json:"date_approved,omitempty"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`

	notificationURL string
}

type PreferenceRequest struct {
	ExternalReference string `json:"external_reference" binding:"required"`
	NotificationURL   string `json:"notification_url"`
}

// MockGateway keeps payments in memory and settles pix payments after a delay.
type MockGateway struct {
	mu           sync.Mutex
	payments     map[int64]*Payment
	byKey        map[string]int64
	nextID       int64
	approvalRate float64
	settleDelay  time.Duration
	rng          *rand.Rand
	client       *http.Client
}

func NewMockGateway(approvalRate float64, settleDelay time.Duration) *MockGateway {
	return &MockGateway{
		payments:     make(map[int64]*Payment),
		byKey:        make(map[string]int64),
		nextID:       1_000_000,
		approvalRate: approvalRate,
		settleDelay:  settleDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

// create stores a payment. A repeated idempotency key returns the first one.
func (m *MockGateway) create(req *CreatePaymentRequest, idempotencyKey string) (*Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idempotencyKey != "" {
		if id, ok := m.byKey[idempotencyKey]; ok {
			p := *m.payments[id]
			return &p, false
		}
	}

	m.nextID++
	p := &Payment{
		ID:                m.nextID,
		Status:            StatusPending,
		StatusDetail:      "pending_waiting_transfer",
		ExternalReference: req.ExternalReference,
		PaymentMethodID:   req.PaymentMethodID,
		TransactionAmount: req.TransactionAmount,
		Installments:      req.Installments,
		Description:       req.Description,
		DateCreated:       time.Now().UTC(),
		notificationURL:   req.NotificationURL,
	}

	if req.PaymentMethodID == "pix" {
		code := "00020126580014br.gov.bcb.pix0136" + uuid.NewString()
		p.PointOfInteraction = &PointOfInteraction{TransactionData: TransactionData{
			QRCode:       code,
			QRCodeBase64: "iVBORw0KGgo" + strconv.FormatInt(p.ID, 10),
			TicketURL:    fmt.Sprintf("https://mock.gateway/pix/%d", p.ID),
		}}
	} else {
		m.decide(p)
	}

	m.payments[p.ID] = p
	if idempotencyKey != "" {
		m.byKey[idempotencyKey] = p.ID
	}
	out := *p
	return &out, true
}

// decide must be called with mu held.
func (m *MockGateway) decide(p *Payment) {
	if m.rng.Float64() < m.approvalRate {
		now := time.Now().UTC()
		p.Status = StatusApproved
		p.StatusDetail = "accredited"
		p.DateApproved = &now
		return
	}
	p.Status = StatusRejected
	p.StatusDetail = "cc_rejected_other_reason"
}

func (m *MockGateway) get(id int64) (*Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, false
	}
	out := *p
	return &out, true
}

// search returns the payments for a reference, newest first.
func (m *MockGateway) search(ref string) []Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]Payment, 0)
	for _, p := range m.payments {
		if p.ExternalReference == ref {
			results = append(results, *p)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	return results
}

// settle moves a pending payment to its final status and fires the webhook.
func (m *MockGateway) settle(id int64) {
	m.mu.Lock()
	p, ok := m.payments[id]
	if !ok || p.Status != StatusPending {
		m.mu.Unlock()
		return
	}
	m.decide(p)
	status, target := p.Status, p.notificationURL
	m.mu.Unlock()

	log.Info().Int64("payment_id", id).Str("status", status).Msg("payment settled")
	if target != "" {
		m.notify(target, id)
	}
}

func (m *MockGateway) notify(target string, id int64) {
	body, _ := json.Marshal(gin.H{
		"action": "payment.updated",
		"type":   "payment",
		"data":   gin.H{"id": strconv.FormatInt(id, 10)},
	})
	resp, err := m.client.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("url", target).Int64("payment_id", id).Msg("webhook delivery failed")
		return
	}
	resp.Body.Close()
	log.Info().Str("url", target).Int("status", resp.StatusCode).Int64("payment_id", id).Msg("webhook delivered")
}

type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}
	if req.PaymentMethodID != "pix" && req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "token is required for card payments"})
		return
	}

	p, created := h.gateway.create(&req, c.GetHeader("X-Idempotency-Key"))
	if created && p.Status == StatusPending {
		time.AfterFunc(h.gateway.settleDelay, func() { h.gateway.settle(p.ID) })
	}

	log.Info().
		Int64("payment_id", p.ID).
		Str("method", p.PaymentMethodID).
		Str("external_reference", p.ExternalReference).
		Str("status", p.Status).
		Bool("replayed", !created).
		Msg("payment received")

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payment id"})
		return
	}
	p, ok := h.gateway.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) SearchPayments(c *gin.Context) {
	results := h.gateway.search(c.Query("external_reference"))
	c.JSON(http.StatusOK, gin.H{
		"paging":  gin.H{"total": len(results), "limit": 30, "offset": 0},
		"results": results,
	})
}

func (h *Handler) CreatePreference(c *gin.Context) {
	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}
	id := uuid.NewString()
	c.JSON(http.StatusCreated, gin.H{
		"id":                 id,
		"external_reference": req.ExternalReference,
		"init_point":         "https://mock.gateway/checkout?pref_id=" + id,
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"timestamp":     time.Now(),
		"approval_rate": h.gateway.approvalRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/payments", handler.CreatePayment)
		v1.GET("/payments/search", handler.SearchPayments)
		v1.GET("/payments/:id", handler.GetPayment)
	}
	router.POST("/checkout/preferences", handler.CreatePreference)
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	approvalRate := getEnvFloat("APPROVAL_RATE", 1)
	settleDelay := getEnvDuration("SETTLE_DELAY", 5*time.Second)

	log.Info().
		Str("port", port).
		Float64("approval_rate", approvalRate).
		Dur("settle_delay", settleDelay).
		Msg("Starting mock payment gateway")

	router := SetupRouter(NewHandler(NewMockGateway(approvalRate, settleDelay)))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
