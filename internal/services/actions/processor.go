package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cashflowgame/server/internal/dependencies/random"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/services/finance"
	"github.com/cashflowgame/server/internal/storage"
)

// Result reports what an approved action did. Applied is false when the
// payload failed validation: the action is a no-op and must be reported as
// processed-but-unapplied, never silently dropped.
type Result struct {
	Applied bool
	Reason  string
	// Recipient is the second affected player for applied transfers
	Recipient *model.Player
}

// Processor applies approved actions to player state via the fixed
// transaction rules. All numeric details are untrusted until validated
// here; asset and liability ids are always generated server-side.
type Processor struct {
	storage storage.Storage
	finance *finance.Service
	random  random.Random
	logger  *slog.Logger
}

// NewProcessor creates an action processor
func NewProcessor(store storage.Storage, fin *finance.Service, rnd random.Random, logger *slog.Logger) *Processor {
	return &Processor{
		storage: store,
		finance: fin,
		random:  rnd,
		logger:  logger.With(slog.String("component", "processor")),
	}
}

// Apply executes an approved action against the player. On success the
// affected registry records are persisted atomically. Validation failures
// short-circuit before any mutation, except request-money which still runs
// the shared post-processing as a zero-amount no-op.
func (p *Processor) Apply(ctx context.Context, player *model.Player, details model.ActionDetails) (Result, error) {
	var result Result

	switch d := details.(type) {
	case model.BuyAssetDetails:
		result = p.buyAsset(player, d)
	case model.SellAssetDetails:
		result = p.sellAsset(player, d)
	case model.TakeLoanDetails:
		result = p.takeLoan(player, d)
	case model.PayLoanDetails:
		result = p.payLoan(player, d)
	case model.RequestMoneyDetails:
		result = p.requestMoney(player, d)
	case model.TransferMoneyDetails:
		var err error
		result, err = p.transferMoney(ctx, player, d)
		if err != nil {
			return result, err
		}
	default:
		return Result{Reason: "unknown action kind"}, model.ErrUnknownActionKind
	}

	if !result.Applied {
		p.logger.Warn("action not applied",
			slog.String("player", string(player.Code)),
			slog.String("action", string(details.Kind())),
			slog.String("reason", result.Reason))
		// request-money falls through to the shared post-processing even
		// when invalid; every other kind stops before mutating anything
		if details.Kind() != model.ActionRequestMoney {
			return result, nil
		}
	}

	p.finance.RecomputeBaseline(player)
	affected := []*model.Player{player}
	if result.Recipient != nil {
		p.finance.RecomputeBaseline(result.Recipient)
		affected = append(affected, result.Recipient)
	}
	if err := p.storage.SavePlayers(ctx, affected...); err != nil {
		return result, err
	}

	if result.Applied {
		p.logger.Info("action applied",
			slog.String("player", string(player.Code)),
			slog.String("action", string(details.Kind())),
			slog.Float64("money", player.Money))
	}
	return result, nil
}

func (p *Processor) buyAsset(player *model.Player, d model.BuyAssetDetails) Result {
	asset := model.Asset{
		ID:    p.random.ID(),
		Name:  d.Name,
		Type:  d.AssetType,
		Value: d.Value,
	}

	switch d.AssetType {
	case model.AssetRealEstate:
		if d.CashFlow == nil {
			return Result{Reason: "invalid cash flow"}
		}
		asset.CashFlow = *d.CashFlow
		asset.PurchaseType = d.PurchaseType
		if asset.PurchaseType == "" {
			asset.PurchaseType = model.PurchaseDownPayment
		}
		if asset.PurchaseType == model.PurchaseFullPayment {
			// Full value recorded as the down payment for bookkeeping
			// uniformity with financed purchases
			asset.DownPayment = asset.Value
			player.Assets = append(player.Assets, asset)
			player.Money -= asset.Value
		} else {
			if d.DownPayment == nil || *d.DownPayment <= 0 {
				return Result{Reason: "invalid down payment"}
			}
			asset.DownPayment = *d.DownPayment
			player.Assets = append(player.Assets, asset)
			player.Money -= asset.DownPayment
		}

	case model.AssetBusiness:
		if d.CashFlow == nil {
			return Result{Reason: "invalid cash flow"}
		}
		asset.CashFlow = *d.CashFlow
		player.Assets = append(player.Assets, asset)
		player.Money -= asset.Value

	case model.AssetStock:
		if d.Quantity == nil || *d.Quantity <= 0 {
			return Result{Reason: "invalid quantity"}
		}
		if d.PricePerShare == nil || *d.PricePerShare <= 0 {
			return Result{Reason: "invalid price per share"}
		}
		if d.CashFlow == nil {
			return Result{Reason: "invalid cash flow"}
		}
		asset.Quantity = *d.Quantity
		asset.PricePerShare = *d.PricePerShare
		asset.CashFlow = *d.CashFlow
		player.Assets = append(player.Assets, asset)
		// Value is accepted as submitted, not re-derived from
		// quantity x price per share
		player.Money -= asset.Value

	default:
		return Result{Reason: fmt.Sprintf("invalid asset type %q", d.AssetType)}
	}

	return Result{Applied: true}
}

func (p *Processor) sellAsset(player *model.Player, d model.SellAssetDetails) Result {
	i := player.FindAsset(d.AssetID)
	if i < 0 {
		return Result{Reason: "asset not found"}
	}
	asset := player.Assets[i]
	// Negotiated sale price is accepted verbatim; log the delta against the
	// recorded value so the facilitator can audit it
	if d.SellPrice != asset.Value {
		p.logger.Info("asset sold off book value",
			slog.String("player", string(player.Code)),
			slog.String("asset", asset.ID),
			slog.Float64("value", asset.Value),
			slog.Float64("sellPrice", d.SellPrice))
	}
	player.Assets = append(player.Assets[:i], player.Assets[i+1:]...)
	player.Money += d.SellPrice
	return Result{Applied: true}
}

func (p *Processor) takeLoan(player *model.Player, d model.TakeLoanDetails) Result {
	liability := model.Liability{
		ID:             p.random.ID(),
		Name:           fmt.Sprintf("%s - %s", d.LoanType, d.Purpose),
		Type:           d.LoanType,
		Amount:         d.Amount,
		MonthlyPayment: d.MonthlyPayment,
	}
	player.Liabilities = append(player.Liabilities, liability)
	player.Money += d.Amount
	return Result{Applied: true}
}

func (p *Processor) payLoan(player *model.Player, d model.PayLoanDetails) Result {
	i := player.FindLiability(d.LiabilityID)
	if i < 0 {
		return Result{Reason: "liability not found"}
	}
	liability := &player.Liabilities[i]
	payment := d.PaymentAmount
	if payment > liability.Amount {
		payment = liability.Amount
	}
	liability.Amount -= payment
	player.Money -= payment
	if liability.Amount <= 0 {
		player.Liabilities = append(player.Liabilities[:i], player.Liabilities[i+1:]...)
	}
	return Result{Applied: true}
}

func (p *Processor) requestMoney(player *model.Player, d model.RequestMoneyDetails) Result {
	if d.Amount == nil || *d.Amount <= 0 {
		return Result{Reason: "invalid amount"}
	}
	player.Money += *d.Amount
	return Result{Applied: true}
}

func (p *Processor) transferMoney(ctx context.Context, player *model.Player, d model.TransferMoneyDetails) (Result, error) {
	if d.Amount == nil || *d.Amount <= 0 {
		return Result{Reason: "invalid amount"}, nil
	}
	if d.RecipientCode == "" {
		return Result{Reason: "missing recipient code"}, nil
	}
	if player.Money < *d.Amount {
		return Result{Reason: "insufficient funds"}, nil
	}

	recipient, err := p.storage.GetPlayer(ctx, d.RecipientCode)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return Result{Reason: "recipient not found"}, nil
		}
		return Result{}, err
	}

	player.Money -= *d.Amount
	recipient.Money += *d.Amount
	return Result{Applied: true, Recipient: recipient}, nil
}
