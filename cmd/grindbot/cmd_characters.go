package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"grindbot/internal/game"
)

// listCharactersCmd lists every character on the account.
var listCharactersCmd = &cobra.Command{
	Use:   "list-characters",
	Short: "List all characters on the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gc, err := buildClient(cfg)
		if err != nil {
			return err
		}
		chars, err := gc.GetCharacters(cmd.Context())
		if err != nil {
			return err
		}
		if len(chars) == 0 {
			fmt.Println(dimStyle.Render("no characters"))
			return nil
		}
		for _, c := range chars {
			fmt.Printf("%s  level %d  hp %d/%d  (%d,%d)  %d gold\n",
				labelStyle.Render(c.Name), c.Level, c.HP, c.MaxHP, c.X, c.Y, c.Gold)
		}
		return nil
	},
}

// statusCharacterCmd prints a full character status card.
var statusCharacterCmd = &cobra.Command{
	Use:   "status-character [name]",
	Short: "Show a character's current status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gc, err := buildClient(cfg)
		if err != nil {
			return err
		}
		c, err := gc.GetCharacter(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(c.Name))
		fmt.Println(statusLine("level", fmt.Sprintf("%d (%d/%d xp)", c.Level, c.XP, c.MaxXP)))
		hp := fmt.Sprintf("%d/%d", c.HP, c.MaxHP)
		if c.HPRatio() < 0.5 {
			hp = warnStyle.Render(hp)
		}
		fmt.Println(statusLine("hp", hp))
		fmt.Println(statusLine("position", fmt.Sprintf("(%d,%d)", c.X, c.Y)))
		fmt.Println(statusLine("gold", fmt.Sprintf("%d", c.Gold)))
		fmt.Println(statusLine("inventory", fmt.Sprintf("%d/%d items", c.InventoryTotal(), c.InventoryMaxItems)))

		var skills []string
		for _, s := range game.AllSkills {
			if lvl := c.SkillLevel(s); lvl > 0 {
				skills = append(skills, fmt.Sprintf("%s %d", s, lvl))
			}
		}
		if len(skills) > 0 {
			fmt.Println(statusLine("skills", strings.Join(skills, ", ")))
		}

		var worn []string
		for _, entry := range game.SlotTable {
			if code := c.Equipment[entry.Slot]; code != "" {
				worn = append(worn, fmt.Sprintf("%s=%s", entry.Slot, code))
			}
		}
		if len(worn) > 0 {
			fmt.Println(statusLine("equipment", strings.Join(worn, ", ")))
		}
		if !c.CooldownExpiresAt.IsZero() {
			fmt.Println(statusLine("cooldown until", c.CooldownExpiresAt.String()))
		}
		return nil
	},
}

// createCharacterCmd creates a character on the account.
var createCharacterCmd = &cobra.Command{
	Use:   "create-character [name]",
	Short: "Create a new character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gc, err := buildClient(cfg)
		if err != nil {
			return err
		}
		c, err := gc.CreateCharacter(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", okStyle.Render(fmt.Sprintf("created %s at (%d,%d)", c.Name, c.X, c.Y)))
		return nil
	},
}

// deleteCharacterCmd deletes a character. Destructive; requires --yes.
var deleteCharacterCmd = &cobra.Command{
	Use:   "delete-character [name]",
	Short: "Delete a character (requires --yes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed {
			return fmt.Errorf("refusing to delete %s without --yes", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gc, err := buildClient(cfg)
		if err != nil {
			return err
		}
		if err := gc.DeleteCharacter(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s\n", errStyle.Render("deleted "+args[0]))
		return nil
	},
}

func init() {
	deleteCharacterCmd.Flags().Bool("yes", false, "confirm the deletion")
}
