package guild

import (
	"errors"
	"fmt"
	"sort"
)

// Platform enumerates the identity platforms an account may link.
type Platform uint8

const (
	PlatformEvmChain Platform = iota + 1
	PlatformDiscord
	PlatformTelegram
)

// Platforms lists every supported platform in canonical order.
var Platforms = []Platform{PlatformEvmChain, PlatformDiscord, PlatformTelegram}

func (p Platform) String() string {
	switch p {
	case PlatformEvmChain:
		return "evm"
	case PlatformDiscord:
		return "discord"
	case PlatformTelegram:
		return "telegram"
	default:
		return fmt.Sprintf("platform(%d)", uint8(p))
	}
}

// ParsePlatform parses the string representation of a platform.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// Valid returns true for known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformEvmChain, PlatformDiscord, PlatformTelegram:
		return true
	default:
		return false
	}
}

var ErrPlatformAlreadyLinked = errors.New("platform already linked")

// Identity is a verified association between an account and a platform
// handle. Exactly one of Address (EvmChain) and UserID (Discord, Telegram)
// is meaningful, as selected by Platform. Use the constructors below rather
// than filling the struct by hand.
type Identity struct {
	Platform Platform
	Address  EvmAddress
	UserID   uint64
}

func EvmChainIdentity(address EvmAddress) Identity {
	return Identity{Platform: PlatformEvmChain, Address: address}
}

func DiscordIdentity(userID uint64) Identity {
	return Identity{Platform: PlatformDiscord, UserID: userID}
}

func TelegramIdentity(userID uint64) Identity {
	return Identity{Platform: PlatformTelegram, UserID: userID}
}

// Validate checks that only the fields of the identity's platform are set.
func (i Identity) Validate() error {
	switch i.Platform {
	case PlatformEvmChain:
		if i.UserID != 0 {
			return fmt.Errorf("evm identity must not carry a user id")
		}
		return nil
	case PlatformDiscord, PlatformTelegram:
		if i.Address != (EvmAddress{}) {
			return fmt.Errorf("%s identity must not carry an evm address", i.Platform)
		}
		return nil
	default:
		return fmt.Errorf("invalid identity platform %d", i.Platform)
	}
}

func (i Identity) String() string {
	switch i.Platform {
	case PlatformEvmChain:
		return fmt.Sprintf("%s:%s", i.Platform, i.Address)
	default:
		return fmt.Sprintf("%s:%d", i.Platform, i.UserID)
	}
}

// IdentityWithAuth is an identity together with the proof that the
// requester controls it. EvmChain identities carry a 65-byte recoverable
// signature over the canonical identity message of the requesting account.
// Off-chain platforms carry no proof; they are trusted at this layer.
//
// The proof is consumed when the identity is linked and never persisted.
type IdentityWithAuth struct {
	Identity  Identity
	Signature []byte
}

// IdentityMap is the identity registry of a single account: at most one
// identity per platform, kept sorted by platform.
type IdentityMap struct {
	Entries []Identity
}

// NewIdentityMap builds a registry from the given identities. It fails if two
// identities share a platform.
func NewIdentityMap(identities ...Identity) (IdentityMap, error) {
	var m IdentityMap
	for _, id := range identities {
		err := m.Link(id)
		if err != nil {
			return IdentityMap{}, err
		}
	}
	return m, nil
}

func (m IdentityMap) index(p Platform) (int, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool {
		return m.Entries[i].Platform >= p
	})
	return i, i < len(m.Entries) && m.Entries[i].Platform == p
}

// Get returns the identity linked for the platform, if any.
func (m IdentityMap) Get(p Platform) (Identity, bool) {
	i, ok := m.index(p)
	if !ok {
		return Identity{}, false
	}
	return m.Entries[i], true
}

// EvmAddress returns the linked EVM address, if any.
func (m IdentityMap) EvmAddress() (EvmAddress, bool) {
	id, ok := m.Get(PlatformEvmChain)
	if !ok {
		return EvmAddress{}, false
	}
	return id.Address, true
}

// Link adds the identity. Linking the exact same identity twice is a no-op;
// linking a different identity for an already linked platform returns
// ErrPlatformAlreadyLinked and leaves the registry untouched.
func (m *IdentityMap) Link(id Identity) error {
	err := id.Validate()
	if err != nil {
		return err
	}
	i, ok := m.index(id.Platform)
	if ok {
		if m.Entries[i] == id {
			return nil
		}
		return fmt.Errorf("could not link %s: %w", id, ErrPlatformAlreadyLinked)
	}
	m.Entries = append(m.Entries, Identity{})
	copy(m.Entries[i+1:], m.Entries[i:])
	m.Entries[i] = id
	return nil
}

// Unlink removes the identity of the given platform and reports whether one
// was linked.
func (m *IdentityMap) Unlink(p Platform) bool {
	i, ok := m.index(p)
	if !ok {
		return false
	}
	m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
	return true
}

// Merge links the given identities into a copy of m. Either all
// identities are linked or none.
func (m IdentityMap) Merge(identities ...Identity) (IdentityMap, error) {
	merged := IdentityMap{Entries: append([]Identity(nil), m.Entries...)}
	for _, id := range identities {
		err := merged.Link(id)
		if err != nil {
			return m, err
		}
	}
	return merged, nil
}

func (m IdentityMap) Len() int { return len(m.Entries) }

func (m IdentityMap) Empty() bool { return len(m.Entries) == 0 }
