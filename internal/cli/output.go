package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case PlayersResult:
		o.printPlayers(v)
	case GenerateCodeResult:
		fmt.Printf("Player code: %s\n", v.PlayerCode)
	case ClearAllResult:
		fmt.Println(v.Message)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Profession response type (matches API)
type Profession struct {
	Name          string  `json:"name"`
	Salary        float64 `json:"salary"`
	TotalExpenses float64 `json:"totalExpenses"`
}

// Asset response type
type Asset struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	CashFlow float64 `json:"cashFlow"`
}

// Liability response type
type Liability struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

// Player response type
type Player struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Profession  *Profession `json:"profession"`
	Money       float64     `json:"money"`
	Income      float64     `json:"income"`
	Expenses    float64     `json:"expenses"`
	Children    int         `json:"children"`
	Connected   bool        `json:"connected"`
	Assets      []Asset     `json:"assets"`
	Liabilities []Liability `json:"liabilities"`
}

// PlayersResult is the roster response
type PlayersResult struct {
	Players []Player `json:"players"`
}

// GenerateCodeResult is the generate-code response
type GenerateCodeResult struct {
	PlayerCode string `json:"playerCode"`
}

// ClearAllResult is the clear-all response
type ClearAllResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResult is the health response
type HealthResult struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

func (o *Output) printPlayer(p Player) {
	name := p.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Player: %s (%s)\n", name, p.Code)
	if p.Profession != nil {
		fmt.Printf("Profession: %s\n", p.Profession.Name)
	}
	fmt.Printf("Money: %.2f\n", p.Money)
	fmt.Printf("Income: %.2f\n", p.Income)
	fmt.Printf("Expenses: %.2f\n", p.Expenses)
	if p.Children > 0 {
		fmt.Printf("Children: %d\n", p.Children)
	}
	fmt.Printf("Connected: %t\n", p.Connected)

	if len(p.Assets) > 0 {
		fmt.Printf("Assets (%d):\n", len(p.Assets))
		for _, a := range p.Assets {
			fmt.Printf("  - %s [%s] value=%.2f cashFlow=%.2f\n", a.Name, a.Type, a.Value, a.CashFlow)
		}
	}
	if len(p.Liabilities) > 0 {
		fmt.Printf("Liabilities (%d):\n", len(p.Liabilities))
		for _, l := range p.Liabilities {
			fmt.Printf("  - %s amount=%.2f monthly=%.2f\n", l.Name, l.Amount, l.MonthlyPayment)
		}
	}
}

func (o *Output) printPlayers(r PlayersResult) {
	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		name := p.Name
		if name == "" {
			name = "(unnamed)"
		}
		status := "offline"
		if p.Connected {
			status = "online"
		}
		fmt.Printf("  - %s (%s) money=%.2f [%s]\n", name, p.Code, p.Money, status)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Uptime: %.0fs\n", h.Uptime)
}
