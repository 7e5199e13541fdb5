package refund

import (
	"context"

	"rentflow/internal/app/dto"
	handlersupport "rentflow/internal/app/handlers/support"
	"rentflow/internal/app/queries"
	"rentflow/internal/app/uow"
	domainrefund "rentflow/internal/domain/refund"
	"rentflow/internal/domain/shared/errs"
)

var ErrNotVisible = errs.Forbidden("refund: request belongs to another booking party")

type GetRefundRequestQuery struct {
	ActorID  string `validate:"required"`
	RefundID string `validate:"required"`
}

func (q GetRefundRequestQuery) Key() string { return getRefundRequestKey }

type GetRefundRequestHandler struct {
	UoWFactory uow.UoWFactory
	AdminID    string
}

func (h *GetRefundRequestHandler) Handle(ctx context.Context, q GetRefundRequestQuery) (dto.RefundRequestDTO, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RefundRequestDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	req, err := unit.RefundRequests().ByID(execCtx, domainrefund.RequestID(q.RefundID))
	if err != nil {
		return dto.RefundRequestDTO{}, err
	}
	switch q.ActorID {
	case req.RenterID, req.LeaserID:
	default:
		if h.AdminID == "" || q.ActorID != h.AdminID {
			return dto.RefundRequestDTO{}, ErrNotVisible
		}
	}
	return dto.MapRefundRequest(req), nil
}

var _ queries.Handler[GetRefundRequestQuery, dto.RefundRequestDTO] = (*GetRefundRequestHandler)(nil)
