package valueobjects

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier
// Value objects are immutable and have no identity beyond their value
type NodeID struct {
	value string
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID is NewNodeIDFromString for literals known to be valid.
func MustNodeID(id string) NodeID {
	nid, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nid
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = s
	return nil
}

// IDGenerator allocates node and media identifiers.
type IDGenerator interface {
	NextID() NodeID
}

// TimestampGenerator produces ids of the form <unix-millis><random base36 suffix>.
type TimestampGenerator struct {
	now func() time.Time
}

// NewTimestampGenerator returns the default generator.
func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now}
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NextID implements IDGenerator
func (g *TimestampGenerator) NextID() NodeID {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			n = big.NewInt(int64(i))
		}
		suffix[i] = base36[n.Int64()]
	}
	return NodeID{value: strconv.FormatInt(g.now().UnixMilli(), 10) + string(suffix)}
}

// UUIDGenerator produces random UUIDv4 ids.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID based generator
func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// NextID implements IDGenerator
func (UUIDGenerator) NextID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// SequenceGenerator produces deterministic ids prefix-1, prefix-2, ...
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a deterministic generator, mostly for tests.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix, next: 1}
}

// NextID implements IDGenerator
func (g *SequenceGenerator) NextID() NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s%d", g.prefix, g.next)
	g.next++
	return NodeID{value: id}
}

// NewIDGenerator resolves a generator by name: "timestamp", "uuid" or "sequence".
func NewIDGenerator(kind string) (IDGenerator, error) {
	switch kind {
	case "", "timestamp":
		return NewTimestampGenerator(), nil
	case "uuid":
		return NewUUIDGenerator(), nil
	case "sequence":
		return NewSequenceGenerator("n"), nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}
