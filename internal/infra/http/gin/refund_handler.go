package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	refundapp "rentflow/internal/app/handlers/refund"
	"rentflow/internal/app/queries"
)

type RefundHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createRefundRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type updateRefundStatusRequest struct {
	Status string `json:"status"`
}

func (h RefundHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := refundapp.CreateRefundRequestCommand{
		ActorID:         actor,
		BookingID:       strings.TrimSpace(req.BookingID),
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[refundapp.CreateRefundRequestCommand, *dto.RefundRequestDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RefundHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateRefundStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := refundapp.UpdateRefundStatusCommand{
		ActorID:         actor,
		RefundID:        strings.TrimSpace(c.Param("id")),
		Status:          strings.ToLower(strings.TrimSpace(req.Status)),
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[refundapp.UpdateRefundStatusCommand, *refundapp.UpdateRefundStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RefundHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := refundapp.GetRefundRequestQuery{
		ActorID:  actor,
		RefundID: strings.TrimSpace(c.Param("id")),
	}
	result, err := queries.Ask[refundapp.GetRefundRequestQuery, dto.RefundRequestDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RefundHTTP = RefundHandler{}
