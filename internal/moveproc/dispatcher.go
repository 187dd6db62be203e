package moveproc

import (
	"github.com/hexrealm/taurion-gsp/internal/blockrand"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/database"
	"github.com/hexrealm/taurion-gsp/internal/dynobstacles"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

// Dispatcher runs the move-ingestion stage of the per-block pipeline
// (spec.md §4.9 step 3): admin commands, then every move's sub-commands
// in the fixed order moveprocessor.cpp applies them in.
type Dispatcher struct {
	tables *database.Tables
	cfg    *config.ChainConfig
	params *config.Params
	log    *logging.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(tables *database.Tables, cfg *config.ChainConfig, params *config.Params) *Dispatcher {
	return &Dispatcher{
		tables: tables,
		cfg:    cfg,
		params: params,
		log:    logging.GetDefault().Component("moveproc"),
	}
}

// ProcessBlock applies every move in env against the current state at
// height, in order: build the obstacles overlay, run admin commands,
// then dispatch each move's sub-commands (spec.md §4.9 step 3).
func (d *Dispatcher) ProcessBlock(height int64, env *BlockEnvelope, rnd *blockrand.Source) error {
	ov, err := d.buildOverlay()
	if err != nil {
		return err
	}

	if err := d.processAdmin(env.Admin); err != nil {
		return err
	}

	for _, mv := range env.Moves {
		if err := d.processMove(height, mv, ov, rnd); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) buildOverlay() (*dynobstacles.Overlay, error) {
	ov := dynobstacles.New()

	buildings, err := d.tables.Buildings.ListAll()
	if err != nil {
		return nil, err
	}
	for _, b := range buildings {
		if err := ov.AddBuilding(b.Shape(d.cfg)); err != nil {
			return nil, err
		}
	}

	chars, err := d.tables.Characters.ListOnMap()
	if err != nil {
		return nil, err
	}
	for _, c := range chars {
		ov.AddVehicle(*c.Pos, c.Faction)
	}
	return ov, nil
}

// processMove dispatches one move's sub-commands in moveprocessor.cpp's
// fixed order: coin operations, then (if gameplay hasn't started on this
// chain yet) stop; DEX operations; account initialisation; then (if the
// account is still uninitialised) stop; character updates; character
// creation; building updates; service operations. The acting account's
// handle stays open for the whole move.
func (d *Dispatcher) processMove(height int64, mv Move, ov *dynobstacles.Overlay, rnd *blockrand.Source) error {
	acct, err := d.tables.Accounts.GetOrCreate(mv.Name)
	if err != nil {
		return err
	}
	defer acct.Release()

	if mv.Move.Coins != nil {
		if err := d.handleCoins(acct, mv); err != nil {
			return err
		}
	}
	if height < d.cfg.Params.GameStartHeight {
		return nil
	}

	for _, op := range mv.Move.Dex {
		if err := d.handleDexOp(height, acct, op); err != nil {
			return err
		}
	}

	if mv.Move.Account != nil {
		d.handleAccountUpdate(acct, mv.Move.Account)
	}
	if !acct.Get().IsInitialised() {
		return nil
	}

	if mv.Move.Character != nil {
		if err := d.handleCharacterMove(height, acct.Get().Name, mv.Move.Character, ov); err != nil {
			return err
		}
	}

	if len(mv.Move.NewCharacters) > 0 {
		if err := d.handleCharacterCreate(acct, mv, len(mv.Move.NewCharacters)); err != nil {
			return err
		}
	}

	if mv.Move.Building != nil {
		if err := d.handleBuildingMove(height, acct.Get().Name, mv.Move.Building); err != nil {
			return err
		}
	}

	for _, op := range mv.Move.Service {
		if err := d.handleServiceOp(height, acct.Get().Name, op, rnd); err != nil {
			return err
		}
	}

	return nil
}
