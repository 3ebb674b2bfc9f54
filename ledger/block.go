package ledger

import "time"

// Block is a single record of the chain. Its digest is stored, not derived:
// changing a field leaves the stored digest stale until RecomputeDigest is
// called.
type Block struct {
	index      uint64
	timestamp  time.Time
	payload    Payload
	prevDigest string
	nonce      uint64
	digest     string

	hasher Hasher
}

// NewBlock creates a block with nonce 0 and computes its initial digest
// with SHA256. The previous digest is usually a placeholder; Append
// overwrites it.
func NewBlock(index uint64, timestamp time.Time, payload Payload, prevDigest string) *Block {
	return NewBlockWithHasher(SHA256, index, timestamp, payload, prevDigest)
}

// NewBlockWithHasher is like NewBlock but digests with h.
func NewBlockWithHasher(h Hasher, index uint64, timestamp time.Time, payload Payload, prevDigest string) *Block {
	b := &Block{
		index:      index,
		timestamp:  timestamp,
		payload:    payload,
		prevDigest: prevDigest,
		hasher:     h,
	}
	b.RecomputeDigest()
	return b
}

func (b *Block) Index() uint64        { return b.index }
func (b *Block) Timestamp() time.Time { return b.timestamp }
func (b *Block) Payload() Payload     { return b.payload }
func (b *Block) PrevDigest() string   { return b.prevDigest }
func (b *Block) Nonce() uint64        { return b.nonce }
func (b *Block) Digest() string       { return b.digest }

// Hasher returns the hasher the block digests with.
func (b *Block) Hasher() Hasher {
	if b.hasher == nil {
		return SHA256
	}
	return b.hasher
}

// CalculateDigest derives the digest from the block's current fields without
// storing it. A payload that cannot be encoded yields an empty digest, which
// never matches a stored one.
func (b *Block) CalculateDigest() string {
	return b.DigestWithNonce(b.nonce)
}

// DigestWithNonce derives the digest the block would have if its nonce were
// nonce. The block is not modified, so concurrent calls are safe as long as
// nobody mutates the block meanwhile.
func (b *Block) DigestWithNonce(nonce uint64) string {
	d, err := Digest(b.Hasher(), b.index, b.timestamp, b.payload, b.prevDigest, nonce)
	if err != nil {
		return ""
	}
	return d
}

// RecomputeDigest overwrites the stored digest with the one derived from the
// current fields and returns it. The nonce is left untouched.
func (b *Block) RecomputeDigest() string {
	b.digest = b.CalculateDigest()
	return b.digest
}

// SetPayload replaces the payload. The stored digest is not refreshed.
func (b *Block) SetPayload(p Payload) {
	b.payload = p
}

// SetPrevDigest replaces the link to the predecessor. The stored digest is
// not refreshed.
func (b *Block) SetPrevDigest(d string) {
	b.prevDigest = d
}

// SetNonce replaces the nonce. The stored digest is not refreshed.
func (b *Block) SetNonce(n uint64) {
	b.nonce = n
}

// SetDigest overwrites the stored digest with an arbitrary value.
func (b *Block) SetDigest(d string) {
	b.digest = d
}
