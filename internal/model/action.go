package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionID uniquely identifies a pending action
type ActionID string

// ActionKind is the closed set of actions a player can request
type ActionKind string

const (
	ActionBuyAsset      ActionKind = "buy-asset"
	ActionSellAsset     ActionKind = "sell-asset"
	ActionTakeLoan      ActionKind = "take-loan"
	ActionPayLoan       ActionKind = "pay-loan"
	ActionRequestMoney  ActionKind = "request-money"
	ActionTransferMoney ActionKind = "transfer-money"
)

// ActionStatus is the review state of a pending action. Only pending
// entries are ever stored; decided entries are retired, not archived.
type ActionStatus string

const (
	StatusPending  ActionStatus = "pending"
	StatusApproved ActionStatus = "approved"
	StatusRejected ActionStatus = "rejected"
)

// ActionDetails is the kind-specific payload of an action request.
// Each kind carries its own concrete type so dispatch is exhaustive at
// compile time. Numeric fields that the processor must distinguish between
// "absent" and "zero" are pointers; all of them are untrusted until the
// processor validates them at apply time.
type ActionDetails interface {
	Kind() ActionKind
}

// BuyAssetDetails requests adding an asset in exchange for money.
type BuyAssetDetails struct {
	AssetType     AssetType    `json:"assetType"`
	Name          string       `json:"name"`
	Value         float64      `json:"value"`
	DownPayment   *float64     `json:"downPayment,omitempty"`
	CashFlow      *float64     `json:"cashFlow,omitempty"`
	PurchaseType  PurchaseType `json:"purchaseType,omitempty"`
	Quantity      *int         `json:"quantity,omitempty"`
	PricePerShare *float64     `json:"pricePerShare,omitempty"`
}

func (BuyAssetDetails) Kind() ActionKind { return ActionBuyAsset }

// SellAssetDetails requests removing an asset for a negotiated price.
// SellPrice is accepted verbatim and may differ from the recorded value.
type SellAssetDetails struct {
	AssetID   string  `json:"assetId"`
	SellPrice float64 `json:"sellPrice"`
}

func (SellAssetDetails) Kind() ActionKind { return ActionSellAsset }

// TakeLoanDetails requests a new liability plus the loaned money.
type TakeLoanDetails struct {
	LoanType       string  `json:"loanType"`
	Purpose        string  `json:"purpose"`
	Amount         float64 `json:"amount"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

func (TakeLoanDetails) Kind() ActionKind { return ActionTakeLoan }

// PayLoanDetails requests paying down an existing liability.
type PayLoanDetails struct {
	LiabilityID   string  `json:"liabilityId"`
	PaymentAmount float64 `json:"paymentAmount"`
}

func (PayLoanDetails) Kind() ActionKind { return ActionPayLoan }

// RequestMoneyDetails requests an unconditional credit from the bank.
type RequestMoneyDetails struct {
	Amount  *float64 `json:"amount"`
	Purpose string   `json:"purpose,omitempty"`
}

func (RequestMoneyDetails) Kind() ActionKind { return ActionRequestMoney }

// TransferMoneyDetails requests moving money to another player.
type TransferMoneyDetails struct {
	Amount        *float64   `json:"amount"`
	RecipientCode PlayerCode `json:"recipientCode"`
	RecipientName string     `json:"recipientName,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

func (TransferMoneyDetails) Kind() ActionKind { return ActionTransferMoney }

// DecodeDetails parses a raw details payload into the concrete type for the
// given kind. Structural problems (wrong JSON types) surface here; value
// range problems are deferred to the processor.
func DecodeDetails(kind ActionKind, raw json.RawMessage) (ActionDetails, error) {
	var (
		details ActionDetails
		err     error
	)
	switch kind {
	case ActionBuyAsset:
		var d BuyAssetDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case ActionSellAsset:
		var d SellAssetDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case ActionTakeLoan:
		var d TakeLoanDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case ActionPayLoan:
		var d PayLoanDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case ActionRequestMoney:
		var d RequestMoneyDetails
		err = json.Unmarshal(raw, &d)
		details = d
	case ActionTransferMoney:
		var d TransferMoneyDetails
		err = json.Unmarshal(raw, &d)
		details = d
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetails, err)
	}
	return details, nil
}

// PendingAction is a player-submitted request awaiting a facilitator
// decision. It lives until decided or reclaimed by the stale sweep; player
// disconnects do not destroy it.
type PendingAction struct {
	ID         ActionID      `json:"id"`
	PlayerCode PlayerCode    `json:"playerCode"`
	Action     ActionKind    `json:"action"`
	Details    ActionDetails `json:"details"`
	Status     ActionStatus  `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Clone returns a copy of the action. Details values are immutable once
// decoded, so the interface value is shared.
func (a *PendingAction) Clone() *PendingAction {
	cp := *a
	return &cp
}

// UnmarshalJSON decodes the details payload into its kind-specific type.
func (a *PendingAction) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID         ActionID        `json:"id"`
		PlayerCode PlayerCode      `json:"playerCode"`
		Action     ActionKind      `json:"action"`
		Details    json.RawMessage `json:"details"`
		Status     ActionStatus    `json:"status"`
		Timestamp  time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	details, err := DecodeDetails(wire.Action, wire.Details)
	if err != nil {
		return err
	}
	*a = PendingAction{
		ID:         wire.ID,
		PlayerCode: wire.PlayerCode,
		Action:     wire.Action,
		Details:    details,
		Status:     wire.Status,
		Timestamp:  wire.Timestamp,
	}
	return nil
}
