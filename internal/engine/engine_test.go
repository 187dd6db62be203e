package engine

import (
	"context"
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/commitment"
	"github.com/hexrealm/taurion-gsp/internal/config"
	"github.com/hexrealm/taurion-gsp/internal/moveproc"
	"github.com/hexrealm/taurion-gsp/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := config.LoadEmbedded(config.ChainRegtest)
	if err != nil {
		t.Fatalf("config.LoadEmbedded() error = %v", err)
	}

	eng, err := New(context.Background(), &store.Config{InMemory: true}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func emptyEnvelope(height, timestamp int64) *moveproc.BlockEnvelope {
	return &moveproc.BlockEnvelope{
		Block: moveproc.BlockInfo{Height: height, Timestamp: timestamp},
	}
}

func TestProcessBlockEmptyBlockCommits(t *testing.T) {
	eng := newTestEngine(t)

	zero := eng.LastCommitment()
	result, err := eng.ProcessBlock(emptyEnvelope(1, 1000))
	if err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}
	if result.Height != 1 {
		t.Errorf("got height %d, want 1", result.Height)
	}
	if result.Commitment == "" {
		t.Error("commitment string is empty")
	}
	if eng.LastCommitment() == zero {
		t.Error("LastCommitment() did not advance past the zero hash")
	}
	if result.State == nil {
		t.Fatal("result.State is nil")
	}
	if len(result.State.Accounts) != 0 || len(result.State.Characters) != 0 {
		t.Errorf("expected an empty projection for a fresh store, got %+v", result.State)
	}
}

func TestProcessBlockIsDeterministicGivenSameInput(t *testing.T) {
	engA := newTestEngine(t)
	engB := newTestEngine(t)

	resultA, err := engA.ProcessBlock(emptyEnvelope(5, 42))
	if err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}
	resultB, err := engB.ProcessBlock(emptyEnvelope(5, 42))
	if err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	if resultA.Commitment != resultB.Commitment {
		t.Errorf("two fresh engines given the same block produced different commitments: %q vs %q",
			resultA.Commitment, resultB.Commitment)
	}
}

func TestProcessBlockAdvancesCommitmentAcrossHeights(t *testing.T) {
	eng := newTestEngine(t)

	first, err := eng.ProcessBlock(emptyEnvelope(1, 1000))
	if err != nil {
		t.Fatalf("ProcessBlock(1) error = %v", err)
	}
	second, err := eng.ProcessBlock(emptyEnvelope(2, 1001))
	if err != nil {
		t.Fatalf("ProcessBlock(2) error = %v", err)
	}
	if first.Commitment == second.Commitment {
		t.Error("commitment did not change between two distinct block heights")
	}
	if got := commitment.String(eng.LastCommitment()); got != second.Commitment {
		t.Errorf("LastCommitment() = %s, want %s", got, second.Commitment)
	}
}
