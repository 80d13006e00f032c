package api

import (
	"context"
	"encoding/json"
	"researchchat/m/v2/app/ai/gemini"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/models"
	"researchchat/m/v2/app/payments"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// TextCompleter produces a completion for the newest turn given the prior
// history.
type TextCompleter interface {
	GenerateContent(ctx context.Context, history []models.GeminiContent, parts []models.GeminiPart) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Server struct {
	storage  mongo.Storage
	quota    *lib.QuotaGate
	text     TextCompleter
	images   ImageGenerator
	issuer   *payments.Issuer
	verifier *payments.Verifier
	statsd   *statsd.Client
}

func NewServer(storage mongo.Storage, quota *lib.QuotaGate, text TextCompleter, images ImageGenerator, issuer *payments.Issuer, verifier *payments.Verifier, statsdClient *statsd.Client) *Server {
	return &Server{
		storage:  storage,
		quota:    quota,
		text:     text,
		images:   images,
		issuer:   issuer,
		verifier: verifier,
		statsd:   statsdClient,
	}
}

func (s *Server) RegisterRoutes(rtr *router.Router) {
	rtr.GET("/health", s.Health)
	rtr.POST("/text", s.Text)
	rtr.POST("/image", s.Image)
	rtr.GET("/user/{userId}", s.User)
	rtr.POST("/messages", s.PostMessage)
	rtr.GET("/messages/{userId}", s.ListMessages)
	rtr.POST("/create-order", s.CreateOrder)
	rtr.POST("/verify-payment", s.VerifyPayment)
}

func (s *Server) Health(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.WriteString("ok")
}

func (s *Server) Text(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.text", nil, 1)

	var request models.ChatRequest
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil || len(request.Messages) == 0 {
		s.writeErrorBody(ctx, "error", lib.Validationf("Invalid or missing messages array"))
		return
	}

	history, parts := gemini.Convert(request.Messages)
	content, err := s.text.GenerateContent(ctx, history, parts)
	if err != nil {
		s.writeErrorBody(ctx, "error", err)
		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"content": content})
}

func (s *Server) Image(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.image", nil, 1)

	var request models.ImageRequest
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil || request.Prompt == "" {
		s.writeErrorBody(ctx, "error", lib.Validationf("Invalid or missing prompt"))
		return
	}

	image, err := s.images.GenerateImage(ctx, request.Prompt)
	if err != nil {
		s.writeErrorBody(ctx, "error", err)
		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"image": image})
}

func (s *Server) User(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.user", nil, 1)

	userID, _ := ctx.UserValue("userId").(string)
	if userID == "" {
		s.writeError(ctx, lib.Validationf("User ID is required"))
		return
	}

	user, err := s.storage.GetOrCreateUser(ctx, userID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, user)
}

type postMessageRequest struct {
	UserID     string `json:"userId"`
	Message    string `json:"message"`
	IsFromUser *bool  `json:"isFromUser"`
}

func (s *Server) PostMessage(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.messages.post", nil, 1)

	var request postMessageRequest
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil || request.UserID == "" || request.Message == "" {
		s.writeError(ctx, lib.Validationf("Missing userId or message content"))
		return
	}
	isFromUser := true
	if request.IsFromUser != nil {
		isFromUser = *request.IsFromUser
	}

	user, err := s.storage.FindUser(ctx, request.UserID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	if err := s.quota.Admit(ctx, user, isFromUser); err != nil {
		s.writeError(ctx, err)
		return
	}

	message, err := s.storage.InsertMessage(ctx, user.ID, request.Message, isFromUser)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, message)
}

func (s *Server) ListMessages(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.messages.list", nil, 1)

	userID, _ := ctx.UserValue("userId").(string)
	if userID == "" {
		s.writeError(ctx, lib.Validationf("User ID is required"))
		return
	}

	if _, err := s.storage.FindUser(ctx, userID); err != nil {
		s.writeError(ctx, err)
		return
	}

	messages, err := s.storage.ListMessages(ctx, userID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, messages)
}

type createOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	UserID   string  `json:"userId"`
}

func (s *Server) CreateOrder(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.create_order", nil, 1)

	var request createOrderRequest
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil {
		s.writeError(ctx, lib.Validationf("Invalid request body"))
		return
	}
	if request.Amount <= 0 {
		s.writeError(ctx, lib.Validationf("Invalid or missing amount"))
		return
	}
	if request.UserID == "" {
		s.writeError(ctx, lib.Validationf("userId is required to create an order"))
		return
	}

	if _, err := s.storage.FindUser(ctx, request.UserID); err != nil {
		s.writeError(ctx, err)
		return
	}

	order, err := s.issuer.CreateOrder(ctx, request.UserID, request.Amount, request.Currency)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, order)
}

type verifyPaymentRequest struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
	UserID    string `json:"userId"`
	Method    string `json:"method"`
}

func (s *Server) VerifyPayment(ctx *fasthttp.RequestCtx) {
	s.statsd.Incr("api.verify_payment", nil, 1)

	var request verifyPaymentRequest
	if err := json.Unmarshal(ctx.Request.Body(), &request); err != nil ||
		request.PaymentID == "" || request.OrderID == "" || request.Signature == "" || request.UserID == "" {
		s.writeVerifyError(ctx, lib.Validationf("Missing payment verification details or userId"))
		return
	}

	_, err := s.verifier.Verify(ctx, payments.VerificationRequest{
		OrderID:   request.OrderID,
		PaymentID: request.PaymentID,
		Signature: request.Signature,
		UserID:    request.UserID,
		Method:    request.Method,
	})
	if err != nil {
		s.writeVerifyError(ctx, err)
		return
	}

	s.writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"message": "Payment verified and subscription updated",
		"success": true,
	})
}
