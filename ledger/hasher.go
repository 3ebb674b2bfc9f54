package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v4/xof/blake2xb"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DigestSize is the size in bytes of every digest produced by a Hasher.
const DigestSize = 32

// Hasher turns the canonical encoding of a block into a hex digest of
// 2*DigestSize characters.
type Hasher interface {
	Name() string
	Sum(data []byte) string
}

var (
	SHA256   Hasher = sha256Hasher{}
	SHA3     Hasher = sha3Hasher{}
	BLAKE2b  Hasher = blake2bHasher{}
	BLAKE2Xb Hasher = blake2xbHasher{}
)

// Hashers lists every available hasher, default first.
var Hashers = []Hasher{SHA256, SHA3, BLAKE2b, BLAKE2Xb}

// HasherByName looks up a hasher by its Name, case-insensitively.
func HasherByName(name string) (Hasher, error) {
	for _, h := range Hashers {
		if strings.EqualFold(h.Name(), name) {
			return h, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownHasher, "%q", name)
}

type sha256Hasher struct{}

func (sha256Hasher) Name() string { return "sha256" }

func (sha256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type sha3Hasher struct{}

func (sha3Hasher) Name() string { return "sha3" }

func (sha3Hasher) Sum(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type blake2bHasher struct{}

func (blake2bHasher) Name() string { return "blake2b" }

func (blake2bHasher) Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type blake2xbHasher struct{}

func (blake2xbHasher) Name() string { return "blake2xb" }

func (blake2xbHasher) Sum(data []byte) string {
	xof := blake2xb.New(nil)
	_, _ = xof.Write(data)
	out := make([]byte, DigestSize)
	_, _ = xof.Read(out)
	return hex.EncodeToString(out)
}

// Payload is the application data carried by a block. Its canonical form is
// JSON with map keys sorted, so equal payloads always encode the same way.
type Payload map[string]any

// Canonical returns the deterministic encoding of the payload.
func (p Payload) Canonical() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode payload")
	}
	return b, nil
}

// Digest computes the digest of a block made of the given fields. Every field
// is length-prefixed so that no two distinct field tuples share an encoding.
func Digest(h Hasher, index uint64, timestamp time.Time, payload Payload, prevDigest string, nonce uint64) (string, error) {
	data, err := payload.Canonical()
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	writeField(buf, []byte(strconv.FormatUint(index, 10)))
	writeField(buf, []byte(timestamp.UTC().Format(time.RFC3339Nano)))
	writeField(buf, data)
	writeField(buf, []byte(prevDigest))
	writeField(buf, []byte(strconv.FormatUint(nonce, 10)))
	return h.Sum(buf.Bytes()), nil
}

func writeField(buf *bytes.Buffer, b []byte) {
	var l [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(l[:], uint64(len(b)))
	buf.Write(l[:n])
	buf.Write(b)
}
