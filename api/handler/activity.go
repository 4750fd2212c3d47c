package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/internal/infrastructure/journal"
	"github.com/queueflow/backend/pkg/httpcontext"
	"github.com/queueflow/backend/usecase/dispatch"
)

// ActivityHandler exposes the journaled event history to admins.
type ActivityHandler struct {
	baseHandler
	journal *journal.Store
}

func NewActivityHandler(store *journal.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     store,
	}
}

// Recent returns the newest journaled events, admin only.
func (h *ActivityHandler) Recent(ctx *fasthttp.RequestCtx) {
	id, ok := h.identity(ctx)
	if !ok {
		return
	}
	if id.Role != dispatch.RoleAdmin {
		h.respondError(ctx, domain.ErrForbidden)
		return
	}

	limit := 50
	if raw := string(ctx.QueryArgs().Peek("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.journal.Recent(limit)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeUnavailable, "activity journal unavailable", err))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}
