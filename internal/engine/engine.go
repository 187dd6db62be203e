// Package engine wires the store, combat, DEX, mining, movement,
// move-processing, and ongoing-operations subsystems into the single
// per-block orchestrator spec.md §4.9 describes. It is the top-level
// collaborator the rest of the module builds towards; nothing outside
// this package runs a block.
//
// Structurally grounded on klingon-v2/internal/node.Node: a struct
// holding every wired subsystem plus a component logger and a
// context/cancel pair, a New constructor that does all the wiring once
// up front, and a mu sync.RWMutex guarding the one stateful field
// (lastCommitment) that outlives a single ProcessBlock call.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/combat"
	"github.com/hexrealm/taurion-gsp/internal/commitment"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/gamestatejson"
	"github.com/hexrealm/taurion-gsp/internal/mining"
	"github.com/hexrealm/taurion-gsp/internal/movement"
	"github.com/hexrealm/taurion-gsp/internal/moveproc"
	"github.com/hexrealm/taurion-gsp/internal/ongoing"
	"github.com/hexrealm/taurion-gsp/internal/store"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

// BlockResult is what a successful ProcessBlock call hands back: the
// committed height, the resulting state-commitment hash, and the fresh
// JSON state projection, so callers (the feed hub, an RPC façade) never
// need to re-derive either from scratch.
type BlockResult struct {
	Height       int64               `json:"height"`
	Commitment   string              `json:"commitment"`
	State        *gamestatejson.State `json:"state"`
}

// Engine is the top-level per-block orchestrator (spec.md §4.9, §5:
// "single-threaded per block"). A process holds exactly one Engine per
// chain; ProcessBlock must never be called concurrently with itself —
// the caller (not Engine) is responsible for that single-threading,
// matching spec.md §5's "mutable handles are only obtained from the
// block processor's thread".
type Engine struct {
	store  *store.Store
	tables *database.Tables
	cfg    *config.ChainConfig
	params *config.Params

	combat     *combat.Engine
	dispatcher *moveproc.Dispatcher
	mining     *mining.Processor
	movement   *movement.Stepper
	ongoing    *ongoing.Scheduler
	projector  *gamestatejson.Projector

	log       *logging.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	mu             sync.RWMutex
	lastCommitment commitment.Hash
}

// New constructs an Engine: it opens (or creates) the backing store,
// bootstraps every entity table over it, and wires the subsystem
// collaborators together exactly once. The chain configuration must
// already be loaded (config.Load / config.LoadEmbedded).
func New(ctx context.Context, storeCfg *store.Config, cfg *config.ChainConfig) (*Engine, error) {
	ctx, cancel := context.WithCancel(ctx)

	s, err := store.New(storeCfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("engine: open store: %w", err)
	}

	tables := database.NewTables(s, cfg)
	params := config.NewParams(cfg)

	e := &Engine{
		store:  s,
		tables: tables,
		cfg:    cfg,
		params: params,

		combat: combat.NewEngine(
			tables.Characters, tables.Buildings, tables.BuildingInventory,
			tables.GroundLoot, tables.Ongoing, tables.Regions, tables.Accounts, cfg,
		),
		dispatcher: moveproc.NewDispatcher(tables, cfg, params),
		mining:     mining.NewProcessor(tables.Characters, tables.Regions, tables.ItemCounts, cfg),
		movement:   movement.NewStepper(tables.Characters, tables.Buildings, cfg),
		ongoing: ongoing.NewScheduler(
			tables.Ongoing, tables.Characters, tables.Buildings, tables.Regions,
			tables.BuildingInventory, tables.ItemCounts, cfg, params,
		),
		projector: gamestatejson.NewProjector(tables, cfg),

		log:       logging.GetDefault().Component("engine"),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	return e, nil
}

// Close releases the backing store and cancels the engine's context.
// Callers must not invoke ProcessBlock after Close.
func (e *Engine) Close() error {
	e.cancel()
	return e.store.Close()
}

// Tables exposes the entity tables backing this engine, for callers
// (e.g. a test harness, or an RPC façade reading outside block
// processing) that need direct read-only access alongside ProcessBlock.
func (e *Engine) Tables() *database.Tables { return e.tables }

// blockSeed derives the deterministic per-block randomness seed from the
// block's identifying data: height and timestamp. original_source seeds
// xaya::Random from the block's on-chain randomness commitment, which
// this module's input envelope (spec.md §6) does not carry; height and
// timestamp are the next-best "unpredictable-to-the-engine, fixed-by-the-
// chain" values actually present on BlockInfo, and a correlation UUID is
// layered on top purely for log grouping, never fed into the seed
// (spec.md §9: determinism must not depend on anything but committed
// block data).
func blockSeed(b moveproc.BlockInfo) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(b.Height))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(b.Timestamp))
	sum := sha256.Sum256(buf)
	return sum[:]
}

// ProcessBlock runs one block through the full pipeline of spec.md §4.9,
// in its mandated fixed order:
//
//  1. Combat damage/regen, against targets the previous block's
//     AcquireTargets left in place.
//  2. Ongoing operations due at this height.
//  3. Move ingestion (admin commands, then every move's sub-commands).
//  4. Mining.
//  5. Movement stepper.
//  6. "Enter building" resolutions.
//  7. Combat target acquisition, feeding the next block's damage step.
//
// On success it returns the resulting state commitment and a fresh JSON
// projection. Any error aborts the block; per spec.md §5 the caller must
// discard the in-memory attempt and may retry, since every subsystem call
// below either fully applies or fails outright rather than partially
// mutating shared state (malformed individual sub-commands are rejected
// and logged internally, never surfaced as a Go error here).
func (e *Engine) ProcessBlock(env *moveproc.BlockEnvelope) (*BlockResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobID := uuid.New()
	height := env.Block.Height
	log := e.log.With("job", jobID.String(), "height", height)
	log.Info("processing block")

	rnd, err := blockrand.New(blockSeed(env.Block))
	if err != nil {
		return nil, fmt.Errorf("engine: derive block randomness: %w", err)
	}

	if err := e.combat.Run(height, rnd); err != nil {
		return nil, fmt.Errorf("engine: combat step: %w", err)
	}
	if err := e.ongoing.Run(height, rnd); err != nil {
		return nil, fmt.Errorf("engine: ongoing-operations step: %w", err)
	}
	if err := e.dispatcher.ProcessBlock(height, env, rnd); err != nil {
		return nil, fmt.Errorf("engine: move-ingestion step: %w", err)
	}
	if err := e.mining.Run(height, rnd); err != nil {
		return nil, fmt.Errorf("engine: mining step: %w", err)
	}
	if err := e.movement.Run(); err != nil {
		return nil, fmt.Errorf("engine: movement step: %w", err)
	}
	if err := e.dispatcher.ResolveEnterBuilding(); err != nil {
		return nil, fmt.Errorf("engine: enter-building resolution: %w", err)
	}
	if err := e.combat.AcquireTargets(rnd); err != nil {
		return nil, fmt.Errorf("engine: target-acquisition step: %w", err)
	}

	state, err := e.projector.Build(height, height)
	if err != nil {
		return nil, fmt.Errorf("engine: build state projection: %w", err)
	}

	commit, err := e.commit(height, state)
	if err != nil {
		return nil, err
	}

	log.Info("block processed", "commitment", commitment.String(commit))
	return &BlockResult{
		Height:     height,
		Commitment: commitment.String(commit),
		State:      state,
	}, nil
}

// commit folds the post-block projection into the next state-commitment
// hash, chained onto the previous one the way a blockchain header chains
// to its predecessor (internal/commitment). The running commitment lives
// only in Engine's memory for the process's lifetime; nothing in spec.md
// requires it to survive a restart, since durability guarantees beyond
// the store are an explicit Non-goal.
func (e *Engine) commit(height int64, state *gamestatejson.State) (commitment.Hash, error) {
	leaves := make([]commitment.Leaf, 0,
		len(state.Accounts)+len(state.Buildings)+len(state.Characters)+len(state.GroundLoot)+len(state.Ongoing))

	add := func(key string, v interface{}) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("engine: marshal commitment leaf %q: %w", key, err)
		}
		leaves = append(leaves, commitment.Leaf{Key: key, Bytes: b})
		return nil
	}

	for _, a := range state.Accounts {
		if err := add("account:"+a.Name, a); err != nil {
			return commitment.Hash{}, err
		}
	}
	for _, b := range state.Buildings {
		if err := add(fmt.Sprintf("building:%d", b.ID), b); err != nil {
			return commitment.Hash{}, err
		}
	}
	for _, c := range state.Characters {
		if err := add(fmt.Sprintf("character:%d", c.ID), c); err != nil {
			return commitment.Hash{}, err
		}
	}
	for _, g := range state.GroundLoot {
		if err := add(fmt.Sprintf("groundloot:%d,%d", g.Pos.X, g.Pos.Y), g); err != nil {
			return commitment.Hash{}, err
		}
	}
	for _, o := range state.Ongoing {
		if err := add(fmt.Sprintf("ongoing:%d", o.ID), o); err != nil {
			return commitment.Hash{}, err
		}
	}

	h := commitment.Compute(uint64(height), e.lastCommitment, leaves)
	e.lastCommitment = h
	return h, nil
}

// LastCommitment returns the most recently computed state-commitment
// hash, or the zero hash if no block has been processed yet.
func (e *Engine) LastCommitment() commitment.Hash {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastCommitment
}

// Uptime reports how long this Engine instance has been running.
func (e *Engine) Uptime() time.Duration {
	return time.Since(e.startTime)
}
