package model

import "time"

// PlayerCode uniquely identifies a player across the session.
// Codes are opaque, externally generated, and stable across reconnects.
type PlayerCode string

// ConnectionID identifies a live transport connection. It is only
// meaningful while the connection is open.
type ConnectionID string

// Profession is the recurring income/expense profile a player joins with.
// Field names match the wire format consumed by existing clients.
type Profession struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Salary        float64 `json:"salary"`
	Taxes         float64 `json:"taxes,omitempty"`
	OtherExpenses float64 `json:"otherExpenses,omitempty"`
	ChildExpenses float64 `json:"childExpenses,omitempty"`
	TotalExpenses float64 `json:"totalExpenses"`
	CashFlow      float64 `json:"cashFlow,omitempty"`
}

// AssetType discriminates the asset variants
type AssetType string

const (
	AssetRealEstate AssetType = "real-estate"
	AssetBusiness   AssetType = "business"
	AssetStock      AssetType = "stock"
)

// PurchaseType is how a real-estate asset was paid for
type PurchaseType string

const (
	PurchaseDownPayment PurchaseType = "down-payment"
	PurchaseFullPayment PurchaseType = "full-payment"
)

// Asset is something a player owns. Value is the purchase price; for stock
// it is accepted as submitted rather than re-derived from quantity and
// price per share. Cash flow is applied to money at transaction time only,
// never as a recurring accrual.
type Asset struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          AssetType    `json:"type"`
	Value         float64      `json:"value"`
	DownPayment   float64      `json:"downPayment,omitempty"`
	CashFlow      float64      `json:"cashFlow,omitempty"`
	PurchaseType  PurchaseType `json:"purchaseType,omitempty"`
	Quantity      int          `json:"quantity,omitempty"`
	PricePerShare float64      `json:"pricePerShare,omitempty"`
}

// Liability is an outstanding obligation. Amount decreases toward zero;
// MonthlyPayment is informational, each payment is an explicit transaction.
type Liability struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

// Player is the authoritative financial and connection state for one
// participant. Income and Expenses are derived from the profession only and
// are recomputed after every mutation; they never drift with asset or
// liability activity.
type Player struct {
	ConnectionID      ConnectionID `json:"id"`
	Code              PlayerCode   `json:"code"`
	Name              string       `json:"name"`
	Profession        *Profession  `json:"profession"`
	Money             float64      `json:"money"`
	Assets            []Asset      `json:"assets"`
	Liabilities       []Liability  `json:"liabilities"`
	Income            float64      `json:"income"`
	Expenses          float64      `json:"expenses"`
	Children          int          `json:"children"`
	Connected         bool         `json:"connected"`
	LastDisconnected  *time.Time   `json:"lastDisconnected,omitempty"`
	HasPendingUpdates bool         `json:"hasPendingUpdates,omitempty"`
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (p *Player) Clone() *Player {
	cp := *p
	if p.Profession != nil {
		prof := *p.Profession
		cp.Profession = &prof
	}
	if p.LastDisconnected != nil {
		t := *p.LastDisconnected
		cp.LastDisconnected = &t
	}
	if p.Assets != nil {
		cp.Assets = append([]Asset(nil), p.Assets...)
	}
	if p.Liabilities != nil {
		cp.Liabilities = append([]Liability(nil), p.Liabilities...)
	}
	return &cp
}

// FindAsset returns the index of the asset with the given id, or -1.
func (p *Player) FindAsset(id string) int {
	for i, a := range p.Assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// FindLiability returns the index of the liability with the given id, or -1.
func (p *Player) FindLiability(id string) int {
	for i, l := range p.Liabilities {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// DisplayName is the player's name, falling back to the code for players
// that never identified themselves.
func (p *Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.Code)
}
