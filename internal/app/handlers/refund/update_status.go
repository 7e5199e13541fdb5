package refund

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentflow/internal/app/clock"
	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	"rentflow/internal/app/middleware"
	"rentflow/internal/app/outbox"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/uow"
	domainrefund "rentflow/internal/domain/refund"
	"rentflow/internal/domain/shared/errs"
	domainwallet "rentflow/internal/domain/wallet"
)

// UpdateRefundStatusCommand settles a refund request: accept moves the money,
// reject only closes the request.
type UpdateRefundStatusCommand struct {
	ActorID         string `validate:"required"`
	RefundID        string `validate:"required"`
	Status          string `validate:"required,oneof=accept reject"`
	IdempotencyKeyV string
}

func (c UpdateRefundStatusCommand) Key() string { return updateRefundStatusKey }

func (c UpdateRefundStatusCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdateRefundStatusCommand) ResultPrototype() any { return &UpdateRefundStatusResult{} }

type UpdateRefundStatusResult struct {
	Refund   dto.RefundRequestDTO `json:"refund"`
	Transfer *dto.TransferDTO     `json:"transfer,omitempty"`
}

// UpdateRefundStatusHandler is the settlement engine. The leaser of the
// booking or the platform admin may decide a request.
type UpdateRefundStatusHandler struct {
	Clock   clock.Clock
	AdminID string
	NewID   func() string
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateRefundStatusHandler) Handle(ctx context.Context, cmd UpdateRefundStatusCommand) (*UpdateRefundStatusResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	status, err := domainrefund.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	if status == domainrefund.StatusPending {
		return nil, domainrefund.ErrDecisionRequired
	}
	req, err := unit.RefundRequests().ByID(ctx, domainrefund.RequestID(cmd.RefundID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != req.LeaserID && (h.AdminID == "" || cmd.ActorID != h.AdminID) {
		return nil, domainrefund.ErrLeaserOnly
	}
	if !req.IsPending() {
		return nil, domainrefund.ErrAlreadyProcessed
	}
	now := h.Clock.Now()

	if status == domainrefund.StatusReject {
		if err := req.Reject(now); err != nil {
			return nil, err
		}
		if err := unit.RefundRequests().Save(ctx, req); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.encoder(), req.Drain()); err != nil {
			return nil, err
		}
		policies.Enqueue(ctx, policies.Notification{
			UserID:   req.RenterID,
			Title:    "Refund rejected",
			Body:     "Your refund request was rejected.",
			Metadata: map[string]string{"refund_id": string(req.ID), "booking_id": string(req.BookingID), "type": "refund_rejected"},
		})
		h.logger().InfoContext(ctx, "refund rejected", "refund_id", req.ID, "actor_id", cmd.ActorID)
		return &UpdateRefundStatusResult{Refund: dto.MapRefundRequest(req)}, nil
	}
	return h.accept(ctx, unit, req, now)
}

func (h *UpdateRefundStatusHandler) accept(ctx context.Context, unit uow.UnitOfWork, req *domainrefund.Request, now time.Time) (*UpdateRefundStatusResult, error) {
	b, err := unit.Bookings().ByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	wallets := map[string]*domainwallet.Wallet{}
	load := func(userID string) (*domainwallet.Wallet, error) {
		if w, ok := wallets[userID]; ok {
			return w, nil
		}
		w, err := unit.Wallets().ByUserID(ctx, userID)
		if errs.Is(err, errs.KindNotFound) {
			w, err = domainwallet.New(userID, 0, now)
		}
		if err != nil {
			return nil, err
		}
		wallets[userID] = w
		return w, nil
	}
	renter, err := load(req.RenterID)
	if err != nil {
		return nil, err
	}
	leaser, err := load(req.LeaserID)
	if err != nil {
		return nil, err
	}
	admin, err := load(h.AdminID)
	if err != nil {
		return nil, err
	}

	transfer := domainwallet.PlanTransfer(req.TotalRefundAmount, req.Deduction, b.PriceDetails.AdminFee, b.PriceDetails.Tax)
	settlement, err := domainwallet.Settle(domainwallet.SettleParams{
		Reference: string(req.ID),
		Transfer:  transfer,
		Renter:    renter,
		Leaser:    leaser,
		Admin:     admin,
		NewID:     func() domainwallet.TransactionID { return domainwallet.TransactionID(h.newID()) },
		Now:       now,
	})
	if err != nil {
		h.logger().WarnContext(ctx, "refund settlement refused", "refund_id", req.ID, "error", err)
		return nil, err
	}
	if err := req.Accept(now); err != nil {
		return nil, err
	}
	if err := b.Cancel(now); err != nil {
		return nil, err
	}
	listing.ReleaseBooking(string(b.ID), now)

	for _, w := range settlement.Wallets {
		if err := unit.Wallets().Save(ctx, w); err != nil {
			return nil, err
		}
	}
	if err := unit.Ledger().AppendBatch(ctx, settlement.Rows); err != nil {
		return nil, err
	}
	if err := unit.RefundRequests().Save(ctx, req); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.encoder(), outbox.Drain(req, b, settlement)); err != nil {
		return nil, err
	}

	meta := map[string]string{"refund_id": string(req.ID), "booking_id": string(b.ID), "type": "refund_accepted"}
	policies.Enqueue(ctx,
		policies.Notification{UserID: req.RenterID, Title: "Refund accepted", Body: fmt.Sprintf("%.2f was credited to your wallet.", transfer.RenterCredit.Rounded()), Metadata: meta},
		policies.Notification{UserID: req.LeaserID, Title: "Refund settled", Body: fmt.Sprintf("%.2f was debited from your wallet.", transfer.LeaserDebit.Rounded()), Metadata: meta},
		policies.Notification{UserID: h.AdminID, Title: "Cancellation fee collected", Body: fmt.Sprintf("%.2f was collected for refund %s.", transfer.AdminCredit.Rounded(), req.ID), Metadata: meta},
	)
	h.logger().InfoContext(ctx, "refund settled",
		"refund_id", req.ID,
		"booking_id", b.ID,
		"renter_credit", float64(transfer.RenterCredit),
		"leaser_debit", float64(transfer.LeaserDebit),
		"admin_credit", float64(transfer.AdminCredit),
	)
	out := dto.MapTransfer(transfer)
	return &UpdateRefundStatusResult{Refund: dto.MapRefundRequest(req), Transfer: &out}, nil
}

func (h *UpdateRefundStatusHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *UpdateRefundStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *UpdateRefundStatusHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[UpdateRefundStatusCommand, *UpdateRefundStatusResult] = (*UpdateRefundStatusHandler)(nil)
var _ middleware.IdempotentCommand = (*UpdateRefundStatusCommand)(nil)
