package actions

import (
	"context"
	"fmt"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// exploreScanBudget is the live-scan allowance for a deliberate
// exploration pass, larger than the per-search default because
// exploration is the point.
const exploreScanBudget = 50

// NewMapLookupAction scans the tile at the bound destination, or the
// current tile when none is bound, learning whatever content it holds.
func NewMapLookupAction() *Descriptor {
	return &Descriptor{
		Name: "map_lookup",
		Preconditions: state.From(map[string]any{
			KeyAlive: true,
		}),
		Effects: state.From(map[string]any{
			KeyLocationKnown: true,
		}),
		Weight: WeightSearch,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			p := actx.Position()
			if dest, ok := actx.Destination(); ok {
				p = dest
			}
			tile, err := scanTile(ctx, gc, actx, p.X, p.Y)
			if err != nil {
				return Fail(err)
			}

			r := Ok(state.From(map[string]any{
				KeyLocationKnown: true,
			}))
			r.ObserveTile(tile)
			content := "empty"
			if tile.Content != nil {
				content = fmt.Sprintf("%s:%s", tile.Content.Type, tile.Content.Code)
			}
			return r.WithData("x", p.X).WithData("y", p.Y).WithData("content", content)
		},
	}
}

// NewExploreMapAction walks expanding rings around the character,
// scanning unseen tiles within the exploration budget. Everything found
// flows into the map cache and knowledge base; the action succeeds even
// when the area is empty, because knowing emptiness is progress too.
func NewExploreMapAction() *Descriptor {
	return &Descriptor{
		Name: "explore_map",
		Preconditions: state.From(map[string]any{
			KeyAlive: true,
			KeySafe:  true,
		}),
		Effects: state.From(map[string]any{
			KeyMapExplored:   true,
			KeyLocationKnown: true,
		}),
		Weight: WeightExplore,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			from := actx.Position()
			before := actx.Map.Len()

			tiles, err := actx.Map.Search(ctx, from, actx.Radius(), nil, gc,
				worldmapExploreOptions())
			if err != nil && len(tiles) == 0 {
				return Fail(err)
			}
			discovered := actx.Map.Len() - before
			interesting := 0
			r := Ok(state.From(map[string]any{
				KeyMapExplored:   true,
				KeyLocationKnown: true,
			}))
			for _, t := range tiles {
				if t.Content != nil {
					interesting++
					r.ObserveTile(t)
				}
			}
			logging.Actions("explored around (%d,%d): %d new tiles, %d with content",
				from.X, from.Y, discovered, interesting)
			return r.WithData("new_tiles", discovered).WithData("content_tiles", interesting)
		},
	}
}

// NewAnalyzeKnowledgeStateAction reports what the agent knows and where
// the gaps are. Local; feeds goal selection and diagnostics.
func NewAnalyzeKnowledgeStateAction() *Descriptor {
	return &Descriptor{
		Name: "analyze_knowledge_state",
		Preconditions: state.From(map[string]any{
			KeyAlive: true,
		}),
		Effects: state.From(map[string]any{
			KeyKnowledgeAssessed: true,
		}),
		Weight: WeightAnalyze,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			monsters, resources, items, workshops := actx.Knowledge.Counts()
			tiles := actx.Map.Len()

			level := 1
			if actx.Character != nil {
				level = actx.Character.Level
			}
			engageable := len(actx.Knowledge.EngageableMonsters(level))

			logging.Actions("knowledge: %d monsters (%d engageable), %d resources, %d items, %d workshops, %d tiles",
				monsters, engageable, resources, items, workshops, tiles)
			r := Ok(state.From(map[string]any{
				KeyKnowledgeAssessed: true,
			}))
			return r.WithData("monsters", monsters).
				WithData("engageable", engageable).
				WithData("resources", resources).
				WithData("items", items).
				WithData("workshops", workshops).
				WithData("tiles", tiles)
		},
	}
}

// NewLookupItemInfoAction queries the server's item search for
// level-appropriate gear. Registered only when the client implements
// the ItemSearcher probe.
func NewLookupItemInfoAction() *Descriptor {
	return &Descriptor{
		Name: "lookup_item_info",
		Preconditions: state.From(map[string]any{
			KeyAlive:         true,
			KeyItemInfoKnown: false,
		}),
		Effects: state.From(map[string]any{
			KeyItemInfoKnown: true,
		}),
		Weight: WeightAnalyze,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			searcher, ok := gc.(client.ItemSearcher)
			if !ok {
				return Failf(clienterr.KindValidation,
					"client does not support item search")
			}

			level := 1
			if actx.Character != nil {
				level = actx.Character.Level
			}
			query := client.ItemQuery{MaxLevel: level}
			if actx.Target.ItemCode == "" && actx.Target.Kind == TargetItem {
				query.Type = game.ItemTypeWeapon
			}
			items, err := searcher.SearchItems(ctx, query)
			if err != nil {
				return Fail(err)
			}
			for i := range items {
				item := items[i]
				if _, err := actx.Knowledge.GetItem(ctx, item.Code); err != nil {
					continue
				}
			}
			logging.Actions("item lookup at level %d: %d items", level, len(items))

			r := Ok(state.From(map[string]any{
				KeyItemInfoKnown: true,
			}))
			codes := make([]string, 0, len(items))
			for _, it := range items {
				codes = append(codes, it.Code)
			}
			return r.WithData("items", codes)
		},
	}
}
