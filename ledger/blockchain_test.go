package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/luca-patrignani/powchain/pow"
)

// testClock returns a clock that advances one second per call, so that every
// block gets a distinct, reproducible timestamp.
func testClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return testTime.Add(time.Duration(n) * time.Second)
	}
}

// buildChain appends the three transfers of the reference walkthrough.
func buildChain(t *testing.T, opts ...option) *Blockchain {
	t.Helper()
	bc := NewBlockchain(append([]option{WithClock(testClock())}, opts...)...)
	payloads := []Payload{
		transfer(10, "Alice", "Bob"),
		transfer(5, "Bob", "Charlie"),
		transfer(3, "Charlie", "Alice"),
	}
	for _, p := range payloads {
		if _, err := bc.Append(bc.NextBlock(p)); err != nil {
			t.Fatalf("unexpected error appending block: %v", err)
		}
	}
	return bc
}

func leadingZeros(digest string) int {
	return len(digest) - len(strings.TrimLeft(digest, "0"))
}

// TestNewBlockchainGenesis verifies that a new blockchain holds exactly the genesis block
// with index 0 and the "0" sentinel as previous digest.
func TestNewBlockchainGenesis(t *testing.T) {
	bc := NewBlockchain()
	if bc.Len() != 1 {
		t.Fatalf("expected 1 block (genesis), got %d", bc.Len())
	}
	genesis, err := bc.GetLatest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if genesis.Index() != 0 {
		t.Fatalf("genesis index should be 0, got %d", genesis.Index())
	}
	if genesis.PrevDigest() != GenesisPrevDigest {
		t.Fatalf("genesis PrevDigest should be '0', got %s", genesis.PrevDigest())
	}
	if genesis.Nonce() != 0 {
		t.Fatalf("genesis should not be mined, nonce is %d", genesis.Nonce())
	}
	if genesis.Digest() != genesis.CalculateDigest() {
		t.Fatal("genesis digest should match its content")
	}
	if bc.Mode() != ModeUnmined || bc.Difficulty() != DefaultDifficulty || bc.Hasher().Name() != "sha256" {
		t.Fatalf("unexpected defaults: mode %s, difficulty %d, hasher %s", bc.Mode(), bc.Difficulty(), bc.Hasher().Name())
	}
}

// TestGenesisIsNotMined verifies that a proof-of-work chain does not mine its genesis block,
// even at a difficulty it would fail.
func TestGenesisIsNotMined(t *testing.T) {
	bc := NewBlockchain(WithMode(ModeProofOfWork), WithDifficulty(64))
	genesis, _ := bc.GetByIndex(0)
	if genesis.Nonce() != 0 {
		t.Fatalf("genesis should not be mined, nonce is %d", genesis.Nonce())
	}
	if !bc.IsValid() {
		t.Fatal("a chain holding only genesis should be valid")
	}
}

// TestAppendLinksToTail verifies that Append sets the previous digest from the tail and
// stores a consistent digest.
func TestAppendLinksToTail(t *testing.T) {
	bc := NewBlockchain(WithClock(testClock()))
	genesis, _ := bc.GetLatest()
	b := NewBlock(1, testTime, transfer(10, "Alice", "Bob"), "placeholder")

	report, err := bc.Append(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != nil {
		t.Fatal("unmined chains should not return a mining report")
	}
	if bc.Len() != 2 {
		t.Fatalf("expected 2 blocks after append, got %d", bc.Len())
	}
	if b.PrevDigest() != genesis.Digest() {
		t.Fatal("new block's PrevDigest should match previous block's digest")
	}
	if b.Digest() != b.CalculateDigest() {
		t.Fatalf("appended block has a stale digest:\n%s", spew.Sdump(b))
	}
	latest, _ := bc.GetLatest()
	if latest != b {
		t.Fatal("GetLatest should return the appended block")
	}
}

// TestAppendAdoptsChainHasher verifies that appended blocks digest with the chain's hasher.
func TestAppendAdoptsChainHasher(t *testing.T) {
	bc := NewBlockchain(WithHasher(SHA3))
	b := NewBlock(1, testTime, transfer(1, "a", "b"), "")
	if _, err := bc.Append(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Hasher().Name() != "sha3" {
		t.Fatalf("expected sha3, got %s", b.Hasher().Name())
	}
	want, _ := Digest(SHA3, b.Index(), b.Timestamp(), b.Payload(), b.PrevDigest(), b.Nonce())
	if b.Digest() != want {
		t.Fatal("digest was not computed with the chain hasher")
	}
}

// TestFreshChainIsValid verifies that a chain built without tampering validates.
func TestFreshChainIsValid(t *testing.T) {
	bc := buildChain(t)
	res := bc.Validate()
	if !res.Valid {
		t.Fatalf("fresh chain should be valid, got %s", res)
	}
	if err := bc.Verify(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestTamperPayloadIsDetected verifies that changing a payload without recomputing the
// digest is reported as a hash mismatch on that block.
func TestTamperPayloadIsDetected(t *testing.T) {
	bc := buildChain(t)
	b1, _ := bc.GetByIndex(1)
	b1.SetPayload(transfer(10000, "Alice", "Bob (Tampered)"))

	res := bc.Validate()
	if res.Valid {
		t.Fatal("tampered chain should be invalid")
	}
	if res.BlockIndex != 1 || res.Reason != ReasonHashMismatchOrDifficultyUnmet {
		t.Fatalf("expected hash mismatch at block 1, got %s", spew.Sdump(res))
	}
	if res.Actual != b1.Digest() || res.Expected != b1.CalculateDigest() {
		t.Fatal("result should carry the stored and recomputed digests")
	}
	if !errors.Is(bc.Verify(), ErrHashMismatchOrDifficultyUnmet) {
		t.Fatalf("expected ErrHashMismatchOrDifficultyUnmet, got %v", bc.Verify())
	}
}

// TestRecomputeOnlyTamperedBlock verifies that refreshing just the tampered block's digest
// moves the failure to the successor's stale link.
func TestRecomputeOnlyTamperedBlock(t *testing.T) {
	bc := buildChain(t)
	b1, _ := bc.GetByIndex(1)
	b1.SetPayload(transfer(10000, "Alice", "Bob (Tampered)"))
	b1.RecomputeDigest()

	res := bc.Validate()
	if res.Valid || res.BlockIndex != 2 || res.Reason != ReasonLinkMismatch {
		t.Fatalf("expected link mismatch at block 2, got %s", res)
	}
	var verr *ValidationError
	if !errors.As(bc.Verify(), &verr) {
		t.Fatalf("expected a *ValidationError, got %v", bc.Verify())
	}
	if !errors.Is(verr, ErrLinkMismatch) {
		t.Fatal("validation error should unwrap to ErrLinkMismatch")
	}
}

// TestManualRepairRestoresValidity verifies that propagating previous digests and digests
// through every later block, in order, makes the chain valid again.
func TestManualRepairRestoresValidity(t *testing.T) {
	bc := buildChain(t)
	b1, _ := bc.GetByIndex(1)
	b1.SetPayload(transfer(10000, "Alice", "Bob (Tampered)"))
	b1.RecomputeDigest()

	for i := 2; i < bc.Len(); i++ {
		current, _ := bc.GetByIndex(i)
		previous, _ := bc.GetByIndex(i - 1)
		current.SetPrevDigest(previous.Digest())
		current.RecomputeDigest()
	}
	if res := bc.Validate(); !res.Valid {
		t.Fatalf("repaired chain should be valid, got %s", res)
	}
}

// TestRepair verifies that Repair restores a tampered chain in both modes.
func TestRepair(t *testing.T) {
	for _, mode := range []Mode{ModeUnmined, ModeProofOfWork} {
		t.Run(mode.String(), func(t *testing.T) {
			bc := buildChain(t, WithMode(mode), WithDifficulty(1))
			b2, _ := bc.GetByIndex(2)
			b2.SetPayload(transfer(500, "Bob", "Mallory"))
			if bc.IsValid() {
				t.Fatal("tampered chain should be invalid")
			}
			if err := bc.Repair(2); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res := bc.Validate(); !res.Valid {
				t.Fatalf("repaired chain should be valid, got %s", res)
			}
			if b2.Payload()["to"] != "Mallory" {
				t.Fatal("repair must keep the new payload")
			}
		})
	}
}

// TestRepairOutOfRange verifies that Repair rejects positions outside the chain.
func TestRepairOutOfRange(t *testing.T) {
	bc := buildChain(t)
	for _, i := range []int{-1, bc.Len()} {
		if err := bc.Repair(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("expected ErrIndexOutOfRange for %d, got %v", i, err)
		}
	}
}

// TestOrderCheck verifies that, when enabled, Append rejects blocks whose index is not the
// next position, and that without it any index is accepted.
func TestOrderCheck(t *testing.T) {
	bc := NewBlockchain(WithOrderCheck())
	_, err := bc.Append(NewBlock(5, testTime, transfer(1, "a", "b"), ""))
	var oerr *OrderError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected an *OrderError, got %v", err)
	}
	if oerr.Expected != 1 || oerr.Got != 5 {
		t.Fatalf("unexpected order error: %v", oerr)
	}
	if !errors.Is(err, ErrOrder) {
		t.Fatal("order error should unwrap to ErrOrder")
	}
	if bc.Len() != 1 {
		t.Fatalf("rejected block should not be stored, length is %d", bc.Len())
	}

	lax := NewBlockchain()
	if _, err := lax.Append(NewBlock(5, testTime, transfer(1, "a", "b"), "")); err != nil {
		t.Fatalf("without order checking any index is accepted, got %v", err)
	}
}

// TestAppendRejectsUnencodablePayload verifies that a block whose payload cannot be encoded
// is never stored.
func TestAppendRejectsUnencodablePayload(t *testing.T) {
	bc := NewBlockchain(WithMode(ModeProofOfWork))
	_, err := bc.Append(NewBlock(1, testTime, Payload{"ch": make(chan int)}, ""))
	if err == nil {
		t.Fatal("expected an error")
	}
	if bc.Len() != 1 {
		t.Fatalf("block should not be stored, length is %d", bc.Len())
	}
}

// TestAppendNil verifies that a nil block is rejected.
func TestAppendNil(t *testing.T) {
	bc := NewBlockchain()
	if _, err := bc.Append(nil); !errors.Is(err, ErrNilBlock) {
		t.Fatalf("expected ErrNilBlock, got %v", err)
	}
}

// TestEmptyChain verifies that operations on a chain without genesis fail with ErrEmptyChain.
func TestEmptyChain(t *testing.T) {
	var bc Blockchain
	if _, err := bc.GetLatest(); !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("expected ErrEmptyChain, got %v", err)
	}
	if _, err := bc.Append(NewBlock(0, testTime, Payload{}, "")); !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("expected ErrEmptyChain, got %v", err)
	}
}

// TestGetByIndex verifies lookups and that the returned block is the stored one.
func TestGetByIndex(t *testing.T) {
	bc := buildChain(t)
	for i := 0; i < bc.Len(); i++ {
		b, err := bc.GetByIndex(i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Index() != uint64(i) {
			t.Fatalf("expected index %d, got %d", i, b.Index())
		}
		if bc.Blocks()[i] != b {
			t.Fatal("Blocks and GetByIndex should return the same pointers")
		}
	}
	if _, err := bc.GetByIndex(bc.Len()); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

// TestProofOfWorkAppend verifies that every mined block meets the difficulty and that the
// report matches the stored block.
func TestProofOfWorkAppend(t *testing.T) {
	bc := buildChain(t, WithMode(ModeProofOfWork), WithDifficulty(2))
	for i := 1; i < bc.Len(); i++ {
		b, _ := bc.GetByIndex(i)
		if !strings.HasPrefix(b.Digest(), "00") {
			t.Fatalf("block %d does not meet difficulty 2:\n%s", i, spew.Sdump(b))
		}
	}
	if res := bc.Validate(); !res.Valid {
		t.Fatalf("mined chain should be valid, got %s", res)
	}

	b := bc.NextBlock(transfer(7, "Dave", "Eve"))
	report, err := bc.Append(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report == nil {
		t.Fatal("proof-of-work chains should return a mining report")
	}
	if report.Nonce != b.Nonce() || report.Digest != b.Digest() {
		t.Fatalf("report does not match block: %s", spew.Sdump(report, b))
	}
}

// TestProofOfWorkWithEveryHasher verifies mining and validation with each hasher.
func TestProofOfWorkWithEveryHasher(t *testing.T) {
	for _, h := range Hashers {
		t.Run(h.Name(), func(t *testing.T) {
			bc := buildChain(t, WithMode(ModeProofOfWork), WithDifficulty(1), WithHasher(h))
			if res := bc.Validate(); !res.Valid {
				t.Fatalf("mined chain should be valid, got %s", res)
			}
		})
	}
}

// TestParallelMiningChain verifies that a chain mined by several workers validates.
func TestParallelMiningChain(t *testing.T) {
	bc := buildChain(t, WithMode(ModeProofOfWork), WithDifficulty(2), WithParallelMining(4))
	if res := bc.Validate(); !res.Valid {
		t.Fatalf("mined chain should be valid, got %s", res)
	}
}

// TestAppendContextCancelled verifies that a cancelled search does not store the block.
func TestAppendContextCancelled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		bc := NewBlockchain(WithMode(ModeProofOfWork), WithDifficulty(16), WithParallelMining(workers))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := bc.AppendContext(ctx, bc.NextBlock(transfer(1, "a", "b")))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
		if bc.Len() != 1 {
			t.Fatalf("workers=%d: cancelled block should not be stored", workers)
		}
	}
}

// TestRaisingDifficultyInvalidatesOlderBlocks verifies that validation uses the live
// difficulty: a block mined under a lower difficulty fails once the difficulty exceeds its
// leading zero count, even though its digest and links are consistent.
func TestRaisingDifficultyInvalidatesOlderBlocks(t *testing.T) {
	bc := buildChain(t, WithMode(ModeProofOfWork), WithDifficulty(1))
	if !bc.IsValid() {
		t.Fatal("mined chain should be valid")
	}
	b1, _ := bc.GetByIndex(1)
	bc.SetDifficulty(leadingZeros(b1.Digest()) + 1)

	res := bc.Validate()
	if res.Valid || res.BlockIndex != 1 || res.Reason != ReasonHashMismatchOrDifficultyUnmet {
		t.Fatalf("expected difficulty failure at block 1, got %s", res)
	}
	if res.Expected != res.Actual {
		t.Fatal("the digest itself is consistent, only the difficulty is unmet")
	}
	if res.Difficulty != bc.Difficulty() {
		t.Fatalf("result should carry the live difficulty %d, got %d", bc.Difficulty(), res.Difficulty)
	}
}

// TestUnminedChainIgnoresDifficulty verifies that difficulty plays no part in unmined mode.
func TestUnminedChainIgnoresDifficulty(t *testing.T) {
	bc := buildChain(t)
	bc.SetDifficulty(10)
	if !bc.IsValid() {
		t.Fatal("unmined chains are not subject to difficulty")
	}
}

// TestEndToEndDifficultyRaise reproduces the reference mining walkthrough: three blocks at
// difficulty 2, then a fourth at difficulty 4. Older blocks are judged against the new
// difficulty, so the first of them with fewer than four leading zeros is reported.
func TestEndToEndDifficultyRaise(t *testing.T) {
	bc := buildChain(t, WithMode(ModeProofOfWork), WithDifficulty(2))
	for i := 1; i < bc.Len(); i++ {
		b, _ := bc.GetByIndex(i)
		if !strings.HasPrefix(b.Digest(), "00") {
			t.Fatalf("block %d does not start with 00: %s", i, b.Digest())
		}
	}
	if !bc.IsValid() {
		t.Fatal("chain should be valid at difficulty 2")
	}

	bc.SetDifficulty(4)
	b4 := bc.NextBlock(transfer(7, "Dave", "Eve"))
	if _, err := bc.Append(b4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(b4.Digest(), "0000") {
		t.Fatalf("block 4 does not start with 0000: %s", b4.Digest())
	}

	want := ValidationResult{Valid: true}
	for i := 1; i <= 3; i++ {
		b, _ := bc.GetByIndex(i)
		if !pow.MeetsDifficulty(b.Digest(), 4) {
			want = ValidationResult{BlockIndex: i, Reason: ReasonHashMismatchOrDifficultyUnmet}
			break
		}
	}
	res := bc.Validate()
	if res.Valid != want.Valid || res.BlockIndex != want.BlockIndex || res.Reason != want.Reason {
		t.Fatalf("expected %s, got %s", want, res)
	}
}

// TestValidateAllCollectsEveryViolation verifies that the full report lists every violated
// rule in chain order while Validate stops at the first.
func TestValidateAllCollectsEveryViolation(t *testing.T) {
	bc := buildChain(t)
	b1, _ := bc.GetByIndex(1)
	b1.SetPayload(transfer(10000, "Alice", "Bob (Tampered)"))
	b3, _ := bc.GetByIndex(3)
	b3.SetPrevDigest("forged")

	all := bc.ValidateAll()
	want := []struct {
		index  int
		reason Reason
	}{
		{1, ReasonHashMismatchOrDifficultyUnmet},
		{3, ReasonHashMismatchOrDifficultyUnmet},
		{3, ReasonLinkMismatch},
	}
	if len(all) != len(want) {
		t.Fatalf("expected %d violations, got %s", len(want), spew.Sdump(all))
	}
	for i, w := range want {
		if all[i].BlockIndex != w.index || all[i].Reason != w.reason {
			t.Fatalf("violation %d: expected block %d %s, got %s", i, w.index, w.reason, all[i])
		}
	}
	if first := bc.Validate(); first.BlockIndex != 1 {
		t.Fatalf("Validate should stop at block 1, got %s", first)
	}
	if len(buildChain(t).ValidateAll()) != 0 {
		t.Fatal("a valid chain should report no violations")
	}
}
