package request

import "github.com/cashflowgame/server/internal/model"

// UpdatePlayerRequest is the request body for a facilitator overwrite of a
// player. Nil fields are left untouched.
type UpdatePlayerRequest struct {
	Name        *string           `json:"name,omitempty"`
	Profession  *model.Profession `json:"profession,omitempty"`
	Money       *float64          `json:"money,omitempty"`
	Assets      []model.Asset     `json:"assets,omitempty"`
	Liabilities []model.Liability `json:"liabilities,omitempty"`
	Children    *int              `json:"children,omitempty"`
}
