package moveproc

import "github.com/hexrealm/taurion-gsp/internal/database"

// handleBuildingMove applies the "b" sub-command to every building id it
// names. Fee changes never take effect immediately: they are queued as a
// building_config_update ongoing operation due building_update_delay
// blocks later (spec.md §4.7).
func (d *Dispatcher) handleBuildingMove(height int64, owner string, bm *BuildingMove) error {
	ids, err := parseIDList(bm.ID)
	if err != nil {
		d.log.Warn("b sub-command rejected", "account", owner, "err", err)
		return nil
	}

	for _, id := range ids {
		if err := d.applyBuildingMove(height, owner, id, bm); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) applyBuildingMove(height int64, owner string, id int64, bm *BuildingMove) error {
	h, err := d.tables.Buildings.GetByID(id)
	if err != nil {
		return err
	}
	if h == nil {
		d.log.Warn("b targets unknown building, dropping", "id", id)
		return nil
	}
	defer h.Release()

	if h.Get().Owner != owner {
		d.log.Warn("b targets a building not owned by the acting account, dropping", "id", id, "account", owner)
		return nil
	}

	if bm.ServiceFee != nil || bm.DexFee != nil {
		sf := h.Get().Blob().ServiceFeePercent
		if bm.ServiceFee != nil {
			if *bm.ServiceFee < 0 || *bm.ServiceFee > d.cfg.Params.MaxServiceFeePercent {
				d.log.Warn("b.sf out of range, ignoring", "id", id, "sf", *bm.ServiceFee)
			} else {
				sf = *bm.ServiceFee
			}
		}

		xf := h.Get().Blob().DexFeeBps
		if bm.DexFee != nil {
			if *bm.DexFee < 0 || *bm.DexFee > d.cfg.Params.MaxDexFeeBps {
				d.log.Warn("b.xf out of range, ignoring", "id", id, "xf", *bm.DexFee)
			} else {
				xf = *bm.DexFee
			}
		}

		op := &database.OngoingOperation{
			TargetHeight: height + d.cfg.Params.BuildingUpdateDelay,
			BuildingID:   &id,
			Variant:      database.OngoingBuildingConfigUpdate,
			Payload:      database.OngoingPayload{NewServiceFee: sf, NewDexFeeBps: xf},
		}
		if _, err := d.tables.Ongoing.CreateNew(op); err != nil {
			return err
		}
	}

	if bm.Send != nil {
		h.Mutable().Owner = *bm.Send
	}

	return nil
}
