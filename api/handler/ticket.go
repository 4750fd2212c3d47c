package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/queueflow/backend/api/transport"
	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/pkg/httpcontext"
	"github.com/queueflow/backend/usecase/dispatch"
)

// TicketHandler serves the public ticket surface and the staff actions that
// target one specific ticket.
type TicketHandler struct {
	baseHandler
	dispatcher *dispatch.Dispatcher
}

func NewTicketHandler(dispatcher *dispatch.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
}

// Register creates a waiting ticket. Public: kiosks and the web form hit
// this without a token.
func (h *TicketHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterTicketRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.Register(stdCtx, dispatch.RegisterInput{
		ServiceID: req.ServiceID,
		Customer: domain.Customer{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: req.CustomerEmail,
		},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, view)
}

// Status returns the derived view for one ticket id.
func (h *TicketHandler) Status(ctx *fasthttp.RequestCtx) {
	ticketID, ok := ctx.UserValue("id").(string)
	if !ok || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.Status(stdCtx, ticketID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// StatusByNumber looks a ticket up by its printed number, e.g. B042.
func (h *TicketHandler) StatusByNumber(ctx *fasthttp.RequestCtx) {
	number, ok := ctx.UserValue("number").(string)
	if !ok || number == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.StatusByNumber(stdCtx, number)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// Cancel is the public no-show path: the customer abandons their own ticket.
func (h *TicketHandler) Cancel(ctx *fasthttp.RequestCtx) {
	ticketID, ok := ctx.UserValue("id").(string)
	if !ok || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.MarkNoShow(stdCtx, ticketID, "")
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// Call brings a specific ticket to the counter out of FIFO order.
func (h *TicketHandler) Call(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	ticketID, okID := ctx.UserValue("id").(string)
	if !okID || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.CallTicket(stdCtx, ticketID, id.StaffID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// Complete closes the caller's called ticket.
func (h *TicketHandler) Complete(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	ticketID, okID := ctx.UserValue("id").(string)
	if !okID || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.Complete(stdCtx, ticketID, id.StaffID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// NoShow is the staff no-show path for a customer who did not come forward.
func (h *TicketHandler) NoShow(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	ticketID, okID := ctx.UserValue("id").(string)
	if !okID || ticketID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.MarkNoShow(stdCtx, ticketID, id.StaffID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}
