package ledger

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/luca-patrignani/powchain/pow"
)

// GenesisPrevDigest is the sentinel stored as the genesis block's previous
// digest.
const GenesisPrevDigest = "0"

// DefaultDifficulty is the difficulty a proof-of-work chain starts with.
const DefaultDifficulty = 2

// Mode selects whether appended blocks are mined.
type Mode int

const (
	ModeUnmined Mode = iota
	ModeProofOfWork
)

func (m Mode) String() string {
	switch m {
	case ModeUnmined:
		return "unmined"
	case ModeProofOfWork:
		return "proof-of-work"
	default:
		return "unknown"
	}
}

// Blockchain is the ordered sequence of blocks. It is owned by a single
// caller and is not safe for concurrent use.
type Blockchain struct {
	blocks     []*Block
	mode       Mode
	difficulty int
	hasher     Hasher
	logger     *slog.Logger
	checkOrder bool
	workers    int
	now        func() time.Time
}

type option func(Blockchain) Blockchain

// WithMode selects unmined or proof-of-work operation.
func WithMode(m Mode) option {
	return func(bc Blockchain) Blockchain {
		bc.mode = m
		return bc
	}
}

// WithDifficulty sets the initial difficulty.
func WithDifficulty(d int) option {
	return func(bc Blockchain) Blockchain {
		bc.difficulty = d
		return bc
	}
}

// WithHasher makes every block of the chain, genesis included, digest with h.
func WithHasher(h Hasher) option {
	return func(bc Blockchain) Blockchain {
		if h != nil {
			bc.hasher = h
		}
		return bc
	}
}

func WithLogger(l *slog.Logger) option {
	return func(bc Blockchain) Blockchain {
		if l != nil {
			bc.logger = l
		}
		return bc
	}
}

// WithOrderCheck makes Append reject blocks whose index is not the next
// position in the chain.
func WithOrderCheck() option {
	return func(bc Blockchain) Blockchain {
		bc.checkOrder = true
		return bc
	}
}

// WithParallelMining mines with the given number of goroutines. One worker
// means the plain sequential search.
func WithParallelMining(workers int) option {
	return func(bc Blockchain) Blockchain {
		bc.workers = workers
		return bc
	}
}

// WithClock replaces time.Now for the genesis block and NextBlock.
func WithClock(now func() time.Time) option {
	return func(bc Blockchain) Blockchain {
		if now != nil {
			bc.now = now
		}
		return bc
	}
}

// NewBlockchain creates a chain holding only the genesis block. The genesis
// block has index 0, previous digest "0" and is never mined.
func NewBlockchain(opts ...option) *Blockchain {
	bc := Blockchain{
		mode:       ModeUnmined,
		difficulty: DefaultDifficulty,
		hasher:     SHA256,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:    1,
		now:        time.Now,
	}
	for _, opt := range opts {
		bc = opt(bc)
	}
	bc.blocks = []*Block{bc.createGenesis()}
	bc.logger.Debug("created genesis block", "digest", bc.blocks[0].digest, "mode", bc.mode, "hasher", bc.hasher.Name())
	return &bc
}

func (bc *Blockchain) createGenesis() *Block {
	return NewBlockWithHasher(bc.hasher, 0, bc.now(), Payload{"data": "Genesis Block"}, GenesisPrevDigest)
}

// NextBlock builds an uninserted block for the next position, timestamped
// with the chain's clock.
func (bc *Blockchain) NextBlock(payload Payload) *Block {
	return NewBlockWithHasher(bc.hasher, uint64(len(bc.blocks)), bc.now(), payload, "")
}

// Append links block to the current tail and stores it. In proof-of-work
// mode the block is mined against the live difficulty first and the search
// telemetry is returned; in unmined mode the result is nil.
func (bc *Blockchain) Append(block *Block) (*pow.Result, error) {
	return bc.AppendContext(context.Background(), block)
}

// AppendContext is Append with a cancellable mining search. A cancelled
// block is not stored.
func (bc *Blockchain) AppendContext(ctx context.Context, block *Block) (*pow.Result, error) {
	if block == nil {
		return nil, ErrNilBlock
	}
	latest, err := bc.GetLatest()
	if err != nil {
		return nil, err
	}
	if bc.checkOrder && block.index != uint64(len(bc.blocks)) {
		return nil, &OrderError{Expected: uint64(len(bc.blocks)), Got: block.index}
	}
	if _, err := block.payload.Canonical(); err != nil {
		return nil, errors.Wrapf(err, "cannot append block %d", block.index)
	}

	block.hasher = bc.hasher
	block.prevDigest = latest.digest
	block.RecomputeDigest()

	var report *pow.Result
	if bc.mode == ModeProofOfWork {
		r, err := bc.mine(ctx, block)
		if err != nil {
			return nil, errors.Wrapf(err, "mining block %d", block.index)
		}
		report = &r
	}

	bc.blocks = append(bc.blocks, block)
	bc.logger.Debug("appended block", "index", block.index, "digest", block.digest, "prev", block.prevDigest)
	return report, nil
}

func (bc *Blockchain) mine(ctx context.Context, block *Block) (pow.Result, error) {
	bc.logger.Info("mining block", "index", block.index, "difficulty", bc.difficulty)
	var (
		r   pow.Result
		err error
	)
	if bc.workers > 1 {
		r, err = pow.MineParallel(ctx, block, bc.difficulty, bc.workers)
	} else {
		r, err = pow.MineContext(ctx, block, bc.difficulty)
	}
	if err != nil {
		return r, err
	}
	bc.logger.Info("mined block",
		"index", block.index,
		"digest", r.Digest,
		"nonce", r.Nonce,
		"attempts", r.Attempts,
		"elapsed", r.Elapsed,
	)
	return r, nil
}

// GetLatest returns the tail of the chain.
func (bc *Blockchain) GetLatest() (*Block, error) {
	if len(bc.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return bc.blocks[len(bc.blocks)-1], nil
}

// GetByIndex returns the stored block at index. The pointer is live:
// mutating it mutates the chain.
func (bc *Blockchain) GetByIndex(index int) (*Block, error) {
	if index < 0 || index >= len(bc.blocks) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(bc.blocks))
	}
	return bc.blocks[index], nil
}

// Blocks returns the stored blocks in order. The slice is a copy, the blocks
// are not.
func (bc *Blockchain) Blocks() []*Block {
	out := make([]*Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

func (bc *Blockchain) Len() int       { return len(bc.blocks) }
func (bc *Blockchain) Mode() Mode     { return bc.mode }
func (bc *Blockchain) Hasher() Hasher { return bc.hasher }

// Difficulty returns the live difficulty.
func (bc *Blockchain) Difficulty() int { return bc.difficulty }

// SetDifficulty overwrites the live difficulty. It applies to every future
// mining search and every future validation, including validation of blocks
// mined earlier.
func (bc *Blockchain) SetDifficulty(d int) {
	bc.logger.Info("difficulty changed", "from", bc.difficulty, "to", d)
	bc.difficulty = d
}

// Validate checks the whole chain against the live difficulty and stops at
// the first violation.
func (bc *Blockchain) Validate() ValidationResult {
	res := Validate(bc.blocks, bc.mode, bc.difficulty)
	if !res.Valid {
		bc.logger.Warn("chain is invalid", "block", res.BlockIndex, "reason", res.Reason)
	}
	return res
}

// ValidateAll checks the whole chain and reports every violation.
func (bc *Blockchain) ValidateAll() []ValidationResult {
	return ValidateAll(bc.blocks, bc.mode, bc.difficulty)
}

// IsValid reports whether Validate passes.
func (bc *Blockchain) IsValid() bool {
	return bc.Validate().Valid
}

// Verify is Validate expressed as an error.
func (bc *Blockchain) Verify() error {
	return bc.Validate().Err()
}

// Repair restores consistency from block from onwards: each block is
// relinked to its predecessor and its digest recomputed, in order. In
// proof-of-work mode each block after genesis is also re-mined against the
// live difficulty.
func (bc *Blockchain) Repair(from int) error {
	if from < 0 || from >= len(bc.blocks) {
		return errors.Wrapf(ErrIndexOutOfRange, "cannot repair from %d, length %d", from, len(bc.blocks))
	}
	for i := from; i < len(bc.blocks); i++ {
		b := bc.blocks[i]
		if i > 0 {
			b.prevDigest = bc.blocks[i-1].digest
		}
		b.RecomputeDigest()
		if bc.mode == ModeProofOfWork && i > 0 {
			if _, err := bc.mine(context.Background(), b); err != nil {
				return errors.Wrapf(err, "re-mining block %d", i)
			}
		}
		bc.logger.Debug("repaired block", "index", i, "digest", b.digest)
	}
	return nil
}
