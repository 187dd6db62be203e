package config

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

func TestLoadEmbeddedRegtest(t *testing.T) {
	cfg, err := LoadEmbedded(ChainRegtest)
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	if !cfg.GodMode {
		t.Error("regtest should have god_mode enabled")
	}
	if cfg.Params.CharacterLimit == 0 {
		t.Error("expected a non-zero character limit")
	}
}

func TestItemOrNilBlueprintSuffixes(t *testing.T) {
	cfg, err := LoadEmbedded(ChainRegtest)
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	if _, ok := cfg.ItemOrNil("raw a"); !ok {
		t.Fatal("expected base item 'raw a' to exist")
	}
	if _, ok := cfg.ItemOrNil("foo bpo"); ok {
		t.Error("'foo' has no blueprint, 'foo bpo' should not resolve")
	}
	if it, ok := cfg.ItemOrNil("raw a bpo"); !ok || it.Space != 0 {
		t.Errorf("expected blueprint-original pseudo-item, got %+v ok=%v", it, ok)
	}
	if it, ok := cfg.ItemOrNil("raw a bpc"); !ok || it.Space != 0 {
		t.Errorf("expected blueprint-copy pseudo-item, got %+v ok=%v", it, ok)
	}
	if _, ok := cfg.ItemOrNil("nonexistent"); ok {
		t.Error("unknown item should not resolve")
	}
}

func TestItemPanicsOnUnknown(t *testing.T) {
	cfg, _ := LoadEmbedded(ChainRegtest)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown item type")
		}
	}()
	cfg.Item("definitely-not-configured")
}

func TestIsLowPrizeZone(t *testing.T) {
	cfg, _ := LoadEmbedded(ChainRegtest)
	p := NewParams(cfg)

	if !p.IsLowPrizeZone(hexcoord.NewCoord(5, 0)) {
		t.Error("expected position near starter zone to be low-prize")
	}
	if p.IsLowPrizeZone(hexcoord.NewCoord(10000, 10000)) {
		t.Error("expected far-away position to not be low-prize")
	}
}

func TestRevEngSuccessChanceDecreasesWithCopies(t *testing.T) {
	cfg, _ := LoadEmbedded(ChainRegtest)
	p := NewParams(cfg)

	prev := p.RevEngSuccessChance(0)
	for i := int64(1); i < 10; i++ {
		cur := p.RevEngSuccessChance(i)
		if cur < prev {
			t.Fatalf("chance should be non-decreasing (N growing => harder) as copies grow: %d -> %d", prev, cur)
		}
		prev = cur
	}
	if got := p.RevEngSuccessChance(1000); got != 1_000_000_000 {
		t.Errorf("expected chance to floor at 1e9, got %d", got)
	}
}
