package api

import (
	"encoding/json"
	"errors"
	"researchchat/m/v2/app/lib"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

func statusForError(err error) int {
	var validation *lib.ValidationError
	if errors.As(err, &validation) {
		return fasthttp.StatusBadRequest
	}

	switch {
	case errors.Is(err, lib.ErrQuotaExceeded):
		return fasthttp.StatusForbidden
	case errors.Is(err, lib.ErrNotFound), errors.Is(err, lib.ErrOrderNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, lib.ErrSignatureInvalid), errors.Is(err, lib.ErrIdentityMismatch):
		return fasthttp.StatusBadRequest
	}

	var upstream *lib.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.StatusCode >= fasthttp.StatusBadRequest {
			return upstream.StatusCode
		}
		return fasthttp.StatusBadGateway
	}
	return fasthttp.StatusInternalServerError
}

func messageForError(err error) string {
	var validation *lib.ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}

	switch {
	case errors.Is(err, lib.ErrQuotaExceeded):
		return "Upgrade to pro to send more messages"
	case errors.Is(err, lib.ErrNotFound):
		return "User not found"
	case errors.Is(err, lib.ErrOrderNotFound):
		return "Order not found on the payment gateway"
	case errors.Is(err, lib.ErrSignatureInvalid):
		return "Invalid payment signature"
	case errors.Is(err, lib.ErrIdentityMismatch):
		return "User ID mismatch during verification"
	}

	var upstream *lib.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Message
	}
	return "Internal server error"
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body interface{}) {
	ctx.SetStatusCode(status)
	ctx.Response.Header.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		log.Errorf("writeJSON: %v", err)
	}
}

// writeError renders the default {"message": ...} error shape.
func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	s.writeErrorBody(ctx, "message", err)
}

func (s *Server) writeErrorBody(ctx *fasthttp.RequestCtx, field string, err error) {
	status := statusForError(err)
	if status >= fasthttp.StatusInternalServerError {
		log.Errorf("%s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	s.writeJSON(ctx, status, map[string]interface{}{field: messageForError(err)})
}

// writeVerifyError keeps the verify-payment response contract: the message
// plus an explicit success flag.
func (s *Server) writeVerifyError(ctx *fasthttp.RequestCtx, err error) {
	status := statusForError(err)
	if status >= fasthttp.StatusInternalServerError {
		log.Errorf("%s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	s.writeJSON(ctx, status, map[string]interface{}{
		"message": messageForError(err),
		"success": false,
	})
}
