package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"grindbot/internal/actions"
	"grindbot/internal/planner"
	"grindbot/internal/player"
	"grindbot/internal/state"
)

// diagnoseStateCmd prints the live planning state for a character.
var diagnoseStateCmd = &cobra.Command{
	Use:   "diagnose-state [name]",
	Short: "Show the derived planning state for a character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.Refresh(cmd.Context()); err != nil {
			return err
		}

		world := session.BuildState()
		fmt.Println(titleStyle.Render("planning state for " + args[0]))
		printState(world)

		monsters, resources, items, workshops := session.Knowledge().Counts()
		fmt.Println()
		fmt.Println(titleStyle.Render("knowledge"))
		fmt.Println(statusLine("monsters", fmt.Sprintf("%d", monsters)))
		fmt.Println(statusLine("resources", fmt.Sprintf("%d", resources)))
		fmt.Println(statusLine("items", fmt.Sprintf("%d", items)))
		fmt.Println(statusLine("workshops", fmt.Sprintf("%d", workshops)))
		fmt.Println(statusLine("map tiles", fmt.Sprintf("%d", session.Worldmap().Len())))
		return nil
	},
}

// diagnoseActionsCmd lists the action catalogue and which actions are
// currently applicable.
var diagnoseActionsCmd = &cobra.Command{
	Use:   "diagnose-actions [name]",
	Short: "List the action catalogue and current applicability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.Refresh(cmd.Context()); err != nil {
			return err
		}

		world := session.BuildState()
		applicable := map[string]bool{}
		for _, d := range session.Registry().Applicable(world) {
			applicable[d.Name] = true
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("%d registered actions", session.Registry().Len())))
		for _, d := range session.Registry().All() {
			mark := dimStyle.Render("blocked")
			if applicable[d.Name] {
				mark = okStyle.Render("applicable")
			}
			fmt.Printf("%-32s w=%-3.0f %s\n", d.Name, d.Weight, mark)
		}
		return nil
	},
}

// diagnosePlanCmd plans toward the currently selected goal and prints
// the plan without executing it.
var diagnosePlanCmd = &cobra.Command{
	Use:   "diagnose-plan [name]",
	Short: "Plan for the current goal without executing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer session.Close()
		if err := session.Refresh(cmd.Context()); err != nil {
			return err
		}

		goal := session.Goals().Select(session.Context().Character, session.Knowledge())
		if goal == nil {
			fmt.Println(dimStyle.Render("no eligible goal"))
			return nil
		}
		session.Goals().Activate(goal, session.Context(), session.Context().Character)
		world := session.BuildState()

		fmt.Println(statusLine("goal", goal.Name))
		plan, err := session.Planner().Plan(world, goal.Desired)
		if err != nil {
			fmt.Println(errStyle.Render("no plan: " + err.Error()))
			return nil
		}
		if plan.Empty() {
			fmt.Println(okStyle.Render("goal already satisfied"))
			return nil
		}
		fmt.Println(statusLine("cost", fmt.Sprintf("%.0f", plan.Cost)))
		fmt.Println(statusLine("nodes", fmt.Sprintf("%d", plan.NodesExpanded)))
		for i, name := range plan.Actions {
			fmt.Printf("  %2d. %s\n", i+1, name)
		}
		return nil
	},
}

// testPlanningCmd exercises the planner offline against synthetic
// states; no server connection needed.
var testPlanningCmd = &cobra.Command{
	Use:   "test-planning",
	Short: "Run offline planner self-tests against synthetic states",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := actions.DefaultRegistry(nil)
		p := planner.New(registry)

		scenarios := []struct {
			name  string
			start state.Map
			goal  state.Map
		}{
			{
				name: "hunt from idle",
				start: state.From(map[string]any{
					actions.KeyAlive:        true,
					actions.KeySafe:         true,
					actions.KeyHPFull:       true,
					actions.KeyCombatStatus: actions.CombatIdle,
					actions.KeyAtTarget:     false,
				}),
				goal: state.From(map[string]any{
					actions.KeyCombatStatus: actions.CombatCompleted,
				}),
			},
			{
				name: "craft from nothing",
				start: state.From(map[string]any{
					actions.KeyAlive:           true,
					actions.KeySafe:            true,
					actions.KeyMaterialsStatus: actions.MaterialsUnknown,
					actions.KeyResourceKnown:   false,
					actions.KeyWorkshopKnown:   false,
					actions.KeyAtResource:      false,
					actions.KeyAtWorkshop:      false,
					actions.KeyHasTargetItem:   false,
				}),
				goal: state.From(map[string]any{
					actions.KeyHasTargetItem: true,
				}),
			},
			{
				name: "recover health",
				start: state.From(map[string]any{
					actions.KeyAlive:  true,
					actions.KeyHPFull: false,
				}),
				goal: state.From(map[string]any{
					actions.KeyHPFull: true,
				}),
			},
		}

		failures := 0
		for _, sc := range scenarios {
			plan, err := p.Plan(sc.start, sc.goal)
			if err != nil {
				failures++
				fmt.Printf("%s %s: %v\n", errStyle.Render("FAIL"), sc.name, err)
				continue
			}
			fmt.Printf("%s %s: %s (cost %.0f)\n", okStyle.Render("ok"),
				sc.name, strings.Join(plan.Actions, " -> "), plan.Cost)
		}
		if failures > 0 {
			return fmt.Errorf("%d planning scenario(s) failed", failures)
		}
		return nil
	},
}

// openSession builds a session for diagnostic commands.
func openSession(cmd *cobra.Command, name string) (*player.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	gc, err := buildClient(cfg)
	if err != nil {
		return nil, err
	}
	return player.NewSession(cfg, gc, name)
}

// printState renders the nested state map as sorted dotted leaves.
func printState(world state.Map) {
	var lines []string
	var walk func(prefix string, m state.Map)
	walk = func(prefix string, m state.Map) {
		for key, v := range m {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			if sub, ok := v.(state.Map); ok {
				walk(path, sub)
				continue
			}
			if sub, ok := v.(map[string]any); ok {
				walk(path, state.Map(sub))
				continue
			}
			lines = append(lines, fmt.Sprintf("%-40s %v", path, v))
		}
	}
	walk("", world)
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Println("  " + l)
	}
}
