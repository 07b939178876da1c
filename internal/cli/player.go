package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	playerCmd := &cobra.Command{
		Use:   "player",
		Short: "Manage players",
	}

	playerCmd.AddCommand(newPlayerListCmd())
	playerCmd.AddCommand(newPlayerGetCmd())
	playerCmd.AddCommand(newPlayerGenerateCodeCmd())
	playerCmd.AddCommand(newPlayerUpdateCmd())
	playerCmd.AddCommand(newPlayerRemoveCmd())

	return playerCmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players with full financial state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayersResult
			if err := client.Get("/api/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player-code>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayersResult
			if err := client.Get("/api/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			for _, p := range result.Players {
				if p.Code == args[0] {
					out.Print(p)
					return nil
				}
			}
			return fmt.Errorf("player %s not found", args[0])
		},
	}
}

func newPlayerGenerateCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-code",
		Short: "Generate a fresh player code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GenerateCodeResult
			if err := client.Post("/api/player/generate-code", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerUpdateCmd() *cobra.Command {
	var (
		name     string
		money    float64
		children int
		patch    string
	)

	cmd := &cobra.Command{
		Use:   "update <player-code>",
		Short: "Overwrite fields of a player",
		Long: `Overwrite fields of a player directly.

Use flags for common fields, or --patch with a raw JSON object for full
control (professions, assets, liabilities).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if patch != "" {
				if err := json.Unmarshal([]byte(patch), &body); err != nil {
					return fmt.Errorf("invalid --patch JSON: %w", err)
				}
			}
			if cmd.Flags().Changed("name") {
				body["name"] = name
			}
			if cmd.Flags().Changed("money") {
				body["money"] = money
			}
			if cmd.Flags().Changed("children") {
				body["children"] = children
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result Player
			if err := client.Put("/api/player/"+args[0], body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Set the player's name")
	cmd.Flags().Float64Var(&money, "money", 0, "Set the player's cash balance")
	cmd.Flags().IntVar(&children, "children", 0, "Set the player's child count")
	cmd.Flags().StringVar(&patch, "patch", "", "Raw JSON patch body")

	return cmd
}

func newPlayerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <player-code>",
		Short: "Remove a player from the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/player/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Player %s removed", args[0]))
			return nil
		},
	}
}
