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

// QueueHandler serves the staff dashboard: pulling the next customer and
// inspecting a department's line.
type QueueHandler struct {
	baseHandler
	dispatcher *dispatch.Dispatcher
}

func NewQueueHandler(dispatcher *dispatch.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
}

// CallNext pulls the oldest waiting ticket of a department. The department
// defaults to the caller's own when the body omits it.
func (h *QueueHandler) CallNext(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}

	var req transport.CallNextRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return
		}
	}
	departmentID := req.DepartmentID
	if departmentID == "" {
		departmentID = id.DepartmentID
	}
	if departmentID == "" {
		h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "department id is required"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.CallNext(stdCtx, departmentID, id.StaffID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// DepartmentQueue lists the active line, oldest first, with positions and
// wait estimates.
func (h *QueueHandler) DepartmentQueue(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}
	departmentID, okID := ctx.UserValue("id").(string)
	if !okID || departmentID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	views, err := h.dispatcher.DepartmentQueue(stdCtx, departmentID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, views)
}

// CurrentTicket returns the caller's called ticket, or null when free.
func (h *QueueHandler) CurrentTicket(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.dispatcher.CurrentTicket(stdCtx, id.StaffID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}
