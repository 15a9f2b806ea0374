// Package player assembles the subsystems into a playing session and
// runs the perceive-plan-execute-learn loop for one character.
package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grindbot/internal/actions"
	"grindbot/internal/client"
	"grindbot/internal/config"
	"grindbot/internal/cooldown"
	"grindbot/internal/executor"
	"grindbot/internal/goals"
	"grindbot/internal/journal"
	"grindbot/internal/knowledge"
	"grindbot/internal/logging"
	"grindbot/internal/planner"
	"grindbot/internal/worldmap"
)

// State file names inside the per-character data directory.
const (
	knowledgeFile = "knowledge.yaml"
	mapFile       = "map.yaml"
	journalFile   = "journal.db"

	// stopFile is the sentinel another process drops to request a
	// graceful stop of a running session.
	stopFile = "stop"
)

// RequestStop drops the stop sentinel for a character, asking a
// running session to finish its current action and exit.
func RequestStop(cfg *config.Config, name string) error {
	dir := cfg.CharacterDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stopFile), []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0o644)
}

// stopRequested consumes the stop sentinel if present.
func (s *Session) stopRequested() bool {
	path := filepath.Join(s.dir, stopFile)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_ = os.Remove(path)
	return true
}

// Session owns everything needed to play one character.
type Session struct {
	cfg  *config.Config
	name string
	dir  string

	gc        client.GameClient
	knowledge *knowledge.Base
	worldmap  *worldmap.Cache
	gate      *cooldown.Gate
	registry  *actions.Registry
	planner   *planner.Planner
	goals     *goals.Manager
	executor  *executor.Executor
	journal   *journal.Journal

	actx *actions.Context

	lastSave time.Time
}

// NewSession wires a session from config. Persistent state for the
// character is loaded when present.
func NewSession(cfg *config.Config, gc client.GameClient, name string) (*Session, error) {
	dir := cfg.CharacterDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}

	kb := knowledge.NewBase(
		knowledge.WithFetcher(gc),
		knowledge.WithPolicy(knowledge.Policy{
			MinCombatResults:          cfg.Knowledge.MinCombatResults,
			UnknownMonsterLevelMargin: cfg.Knowledge.UnknownMonsterLevelMargin,
			MinWinRate:                cfg.Knowledge.MinWinRate,
		}),
	)
	if err := kb.Load(filepath.Join(dir, knowledgeFile)); err != nil {
		return nil, fmt.Errorf("failed to load knowledge: %w", err)
	}

	cache := worldmap.NewCache()
	if err := cache.Load(filepath.Join(dir, mapFile)); err != nil {
		return nil, fmt.Errorf("failed to load map cache: %w", err)
	}

	jnl, err := journal.Open(filepath.Join(dir, journalFile))
	if err != nil {
		return nil, err
	}

	gate := cooldown.NewGate()
	registry := actions.DefaultRegistry(gc)
	s := &Session{
		cfg:       cfg,
		name:      name,
		dir:       dir,
		gc:        gc,
		knowledge: kb,
		worldmap:  cache,
		gate:      gate,
		registry:  registry,
		planner:   planner.New(registry, planner.WithMaxNodes(cfg.Planner.MaxNodes)),
		goals:     goals.NewManager(goals.WithThresholds(cfg.Goals)),
		executor:  executor.New(gc, registry, gate, executor.WithJournal(jnl)),
		journal:   jnl,
		actx: &actions.Context{
			CharacterName: name,
			SearchRadius:  cfg.Loop.SearchRadius,
			Knowledge:     kb,
			Map:           cache,
			Gate:          gate,
		},
		lastSave: time.Now(),
	}
	return s, nil
}

// Registry exposes the action catalogue (diagnostics).
func (s *Session) Registry() *actions.Registry { return s.registry }

// Planner exposes the planner (diagnostics).
func (s *Session) Planner() *planner.Planner { return s.planner }

// Goals exposes the goal manager (diagnostics).
func (s *Session) Goals() *goals.Manager { return s.goals }

// Knowledge exposes the knowledge base (diagnostics).
func (s *Session) Knowledge() *knowledge.Base { return s.knowledge }

// Worldmap exposes the map cache (diagnostics).
func (s *Session) Worldmap() *worldmap.Cache { return s.worldmap }

// Journal exposes the action journal (diagnostics).
func (s *Session) Journal() *journal.Journal { return s.journal }

// Context exposes the action context (diagnostics).
func (s *Session) Context() *actions.Context { return s.actx }

// ApplyConfig folds a hot-reloaded config into the running session.
// Only tunables safe to change mid-session are applied.
func (s *Session) ApplyConfig(cfg *config.Config) {
	s.goals.SetThresholds(cfg.Goals)
	s.knowledge.SetPolicy(knowledge.Policy{
		MinCombatResults:          cfg.Knowledge.MinCombatResults,
		UnknownMonsterLevelMargin: cfg.Knowledge.UnknownMonsterLevelMargin,
		MinWinRate:                cfg.Knowledge.MinWinRate,
	})
	s.actx.SearchRadius = cfg.Loop.SearchRadius
	s.cfg = cfg
	logging.Config("session %s applied reloaded config", s.name)
}

// Save flushes dirty persistent state to disk.
func (s *Session) Save() error {
	if s.knowledge.Dirty() {
		if err := s.knowledge.Save(filepath.Join(s.dir, knowledgeFile)); err != nil {
			return fmt.Errorf("failed to save knowledge: %w", err)
		}
	}
	if s.worldmap.Dirty() {
		if err := s.worldmap.Save(filepath.Join(s.dir, mapFile)); err != nil {
			return fmt.Errorf("failed to save map cache: %w", err)
		}
	}
	s.lastSave = time.Now()
	return nil
}

// saveIfDue flushes when the save interval has elapsed.
func (s *Session) saveIfDue() {
	if time.Since(s.lastSave) < s.cfg.GetSaveInterval() {
		return
	}
	if err := s.Save(); err != nil {
		logging.Loop("periodic save failed: %v", err)
	}
}

// Close saves state and releases resources.
func (s *Session) Close() error {
	saveErr := s.Save()
	closeErr := s.journal.Close()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

// Refresh forces a fresh character snapshot (diagnostics).
func (s *Session) Refresh(ctx context.Context) error {
	return s.refreshSnapshot(ctx, true)
}

// refreshSnapshot fetches the character when the cached snapshot is
// stale, arming the gate from any cooldown still running server-side.
func (s *Session) refreshSnapshot(ctx context.Context, force bool) error {
	if !force && s.actx.Character != nil {
		return nil
	}
	c, err := s.gc.GetCharacter(ctx, s.name)
	if err != nil {
		return err
	}
	s.actx.Character = c
	if !c.CooldownExpiresAt.IsZero() {
		s.gate.ArmUntil(c.CooldownExpiresAt)
	}
	return nil
}
