package finance

import (
	"log/slog"

	"github.com/cashflowgame/server/internal/model"
)

// DefaultChildExpenses is the per-dependent monthly cost used when the
// player has no profession to supply one.
const DefaultChildExpenses = 640

// Service computes a player's financial baseline. Income and expenses come
// from the profession alone; asset cash flow and liability payments are
// applied to money at transaction time and are never folded into the
// baseline fields.
type Service struct {
	logger *slog.Logger
}

// New creates a finance service
func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger.With(slog.String("component", "finance")),
	}
}

// RecomputeBaseline sets income and expenses from the player's profession.
// It is idempotent and writes nothing else.
func (s *Service) RecomputeBaseline(p *model.Player) {
	var income, expenses float64
	if p.Profession != nil {
		income = p.Profession.Salary
		expenses = p.Profession.TotalExpenses
	}
	p.Income = income
	p.Expenses = expenses

	s.logger.Debug("recomputed baseline",
		slog.String("player", string(p.Code)),
		slog.Float64("income", income),
		slog.Float64("expenses", expenses),
		slog.Float64("childrenExpenses", s.ChildExpenses(p)),
		slog.Float64("netCashFlow", s.NetCashFlow(p)))
}

// ChildExpenses is the monthly cost of the player's dependents. Informational
// only; it is never stored on the player.
func (s *Service) ChildExpenses(p *model.Player) float64 {
	perChild := float64(DefaultChildExpenses)
	if p.Profession != nil && p.Profession.ChildExpenses != 0 {
		perChild = p.Profession.ChildExpenses
	}
	return float64(p.Children) * perChild
}

// NetCashFlow derives the player's monthly net position on demand:
// baseline plus asset cash flow, minus liability payments and dependents.
func (s *Service) NetCashFlow(p *model.Player) float64 {
	var assetCashFlow float64
	for _, a := range p.Assets {
		assetCashFlow += a.CashFlow
	}
	var liabilityPayments float64
	for _, l := range p.Liabilities {
		liabilityPayments += l.MonthlyPayment
	}
	return p.Income - p.Expenses + assetCashFlow - liabilityPayments - s.ChildExpenses(p)
}
