package dto

import (
	"time"

	domainwallet "rentflow/internal/domain/wallet"
)

type WalletTransactionDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Source    string    `json:"source"`
	Reference string    `json:"reference,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type WalletStatement struct {
	UserID       string                 `json:"user_id"`
	Balance      float64                `json:"balance"`
	Transactions []WalletTransactionDTO `json:"transactions"`
}

// TransferDTO reports the money moved by an accepted refund.
type TransferDTO struct {
	RenterCredit float64 `json:"renter_credit"`
	LeaserDebit  float64 `json:"leaser_debit"`
	AdminCredit  float64 `json:"admin_credit"`
}

func MapWalletTransaction(t domainwallet.Transaction) WalletTransactionDTO {
	return WalletTransactionDTO{
		ID:        string(t.ID),
		UserID:    t.UserID,
		Type:      string(t.Type),
		Amount:    t.Amount.Rounded(),
		Source:    t.Source,
		Reference: t.Reference,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

func MapTransfer(t domainwallet.Transfer) TransferDTO {
	return TransferDTO{
		RenterCredit: t.RenterCredit.Rounded(),
		LeaserDebit:  t.LeaserDebit.Rounded(),
		AdminCredit:  t.AdminCredit.Rounded(),
	}
}
