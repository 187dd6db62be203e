// Package moveproc parses and applies the move-ingestion stage of the
// per-block pipeline (spec.md §4.9 step 3): building the dynamic
// obstacles overlay, running admin commands, and then dispatching every
// move's sub-commands in the fixed order the spec lays out — coin
// operations, DEX operations, account initialisation, character
// updates, character creation, building updates, and service
// operations.
//
// Grounded on original_source/src/moveprocessor.cpp (the per-move
// dispatch order and its "validate, then silently skip on failure"
// idiom) and banking.cpp (the vc coin-operation atoms). Every
// sub-command validation failure is logged at WARNING and the
// sub-command is dropped; the rest of the move still runs (spec.md §7).
// Only store I/O failures propagate as Go errors, which abort the
// block.
package moveproc
