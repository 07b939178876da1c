package response

import (
	"time"

	"github.com/cashflowgame/server/internal/model"
)

// GenerateCodeResponse carries a freshly minted player code.
type GenerateCodeResponse struct {
	PlayerCode model.PlayerCode `json:"playerCode"`
}

// PlayersResponse carries the full roster with complete financial state.
type PlayersResponse struct {
	Players []*model.Player `json:"players"`
}

// PlayerSummary is the reduced roster entry players may see of each other,
// used to pick transfer recipients.
type PlayerSummary struct {
	Code       model.PlayerCode `json:"code"`
	Name       string           `json:"name"`
	Profession string           `json:"profession"`
}

// PlayerSummaryFromModel converts a model.Player to a PlayerSummary
func PlayerSummaryFromModel(p *model.Player) PlayerSummary {
	s := PlayerSummary{
		Code: p.Code,
		Name: p.Name,
	}
	if p.Profession != nil {
		s.Profession = p.Profession.Name
	}
	return s
}

// PlayerListResponse carries the reduced roster.
type PlayerListResponse struct {
	Players []PlayerSummary `json:"players"`
}

// ClearAllResponse acknowledges a session wipe.
type ClearAllResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}
