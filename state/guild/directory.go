package guild

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/guildnet/guild-oracle/model/encoding"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/state"
	"github.com/guildnet/guild-oracle/state/oracle"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Directory holds guilds, their roles, the identity registry and role
// memberships. Registration and join requests are resolved through the
// oracle coordinator; the directory applies their answers.
type Directory struct {
	log         zerolog.Logger
	guilds      storage.Guilds
	identities  storage.Identities
	memberships storage.Memberships
	coordinator *oracle.Coordinator
	encoder     encoding.Encoder
}

// NewDirectory creates the directory and registers its result handlers
// with the coordinator.
func NewDirectory(
	log zerolog.Logger,
	guilds storage.Guilds,
	identities storage.Identities,
	memberships storage.Memberships,
	coordinator *oracle.Coordinator,
	encoder encoding.Encoder,
) *Directory {
	d := &Directory{
		log:         log.With().Str("component", "guild_directory").Logger(),
		guilds:      guilds,
		identities:  identities,
		memberships: memberships,
		coordinator: coordinator,
		encoder:     encoder,
	}
	coordinator.RegisterHandler(guild.RequestRegister, oracle.ResultHandlerFunc(d.applyRegister))
	coordinator.RegisterHandler(guild.RequestJoin, oracle.ResultHandlerFunc(d.applyJoin))
	return d
}

// CreateGuild creates an empty guild owned by origin.
func (d *Directory) CreateGuild(tx *transaction.Tx, origin guild.AccountID, name guild.Name, metadata []byte) error {
	g := guild.Guild{
		Name:     name,
		Owner:    origin,
		Metadata: append([]byte(nil), metadata...),
	}
	err := d.guilds.InsertTx(&g)(tx)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("guild %q: %w", name, ErrGuildAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("could not insert guild: %w", err)
	}

	tx.OnSucceed(func() {
		d.log.Info().Str("guild", name.String()).Hex("owner", origin[:]).Msg("guild created")
	})
	return nil
}

// CreateRole adds a role to a guild owned by origin. Role names are unique
// within a guild and the requirements must be valid and non-empty.
func (d *Directory) CreateRole(tx *transaction.Tx, origin guild.AccountID, guildName guild.Name, role guild.Role) error {
	err := role.Requirements.Validate()
	if err != nil {
		return state.NewInvalidExtrinsicErrorf("invalid requirements for role %q: %w", role.Name, err)
	}

	g, err := d.guildTx(tx, guildName)
	if err != nil {
		return err
	}
	if g.Owner != origin {
		return fmt.Errorf("create role in guild %q: %w", guildName, state.ErrBadOrigin)
	}
	err = g.AddRole(role)
	if err != nil {
		return state.NewInvalidExtrinsicErrorf("could not add role: %w", err)
	}
	err = d.guilds.UpdateTx(g)(tx)
	if err != nil {
		return fmt.Errorf("could not update guild: %w", err)
	}

	tx.OnSucceed(func() {
		d.log.Info().
			Str("guild", guildName.String()).
			Str("role", role.Name.String()).
			Int("requirements", len(role.Requirements.Requirements)).
			Msg("role created")
	})
	return nil
}

// RequestRegistration submits a registration request for the identities.
// EVM ownership proofs are checked here so that invalid signatures fail
// before an operator is involved.
func (d *Directory) RequestRegistration(tx *transaction.Tx, origin guild.AccountID, identities []guild.IdentityWithAuth) (*guild.Request, error) {
	if len(identities) == 0 {
		return nil, state.NewInvalidExtrinsicError("registration without identities")
	}
	plain := make([]guild.Identity, 0, len(identities))
	for _, auth := range identities {
		id, err := signature.IdentityFromAuth(auth, origin)
		if err != nil {
			return nil, fmt.Errorf("could not verify identity: %w", err)
		}
		plain = append(plain, id)
	}
	_, err := guild.NewIdentityMap(plain...)
	if err != nil {
		return nil, state.NewInvalidExtrinsicErrorf("conflicting identities: %w", err)
	}

	payload, err := d.encoder.Encode(guild.RegisterPayload{Identities: identities})
	if err != nil {
		return nil, fmt.Errorf("could not encode registration payload: %w", err)
	}
	return d.coordinator.SubmitRequest(tx, origin, guild.RequestRegister, payload)
}

// RequestJoin submits a request to evaluate a role's requirements for
// origin. Proofs are optional allowlist proofs supplied by the requester.
func (d *Directory) RequestJoin(tx *transaction.Tx, origin guild.AccountID, guildName guild.Name, roleName guild.Name, proofs []guild.AllowlistProof) (*guild.Request, error) {
	_, err := d.roleTx(tx, guildName, roleName)
	if err != nil {
		return nil, err
	}
	_, err = d.identities.ByAccountTx(origin)(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("join %q/%q: %w", guildName, roleName, ErrNotRegistered)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve identities: %w", err)
	}
	member, err := d.memberships.IsMember(guild.Membership{Guild: guildName, Role: roleName, Account: origin})
	if err != nil {
		return nil, err
	}
	if member {
		return nil, fmt.Errorf("join %q/%q: %w", guildName, roleName, ErrAlreadyMember)
	}

	payload, err := d.encoder.Encode(guild.JoinPayload{Guild: guildName, Role: roleName, Proofs: proofs})
	if err != nil {
		return nil, fmt.Errorf("could not encode join payload: %w", err)
	}
	return d.coordinator.SubmitRequest(tx, origin, guild.RequestJoin, payload)
}

// Unregister removes every identity linked to origin. Memberships are kept.
func (d *Directory) Unregister(tx *transaction.Tx, origin guild.AccountID) error {
	err := d.identities.RemoveTx(origin)(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotRegistered
	}
	if err != nil {
		return fmt.Errorf("could not remove identities: %w", err)
	}
	tx.OnSucceed(func() {
		d.log.Info().Hex("account", origin[:]).Msg("identities removed")
	})
	return nil
}

// Leave gives up a role membership.
func (d *Directory) Leave(tx *transaction.Tx, origin guild.AccountID, guildName guild.Name, roleName guild.Name) error {
	err := d.memberships.RevokeTx(guild.Membership{Guild: guildName, Role: roleName, Account: origin})(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("leave %q/%q: %w", guildName, roleName, ErrNotMember)
	}
	if err != nil {
		return fmt.Errorf("could not revoke membership: %w", err)
	}
	return nil
}

// Guild returns the guild with its roles.
func (d *Directory) Guild(name guild.Name) (*guild.Guild, error) {
	g, err := d.guilds.ByName(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("guild %q: %w", name, ErrGuildNotFound)
	}
	return g, err
}

func (d *Directory) Role(guildName guild.Name, roleName guild.Name) (guild.Role, error) {
	g, err := d.Guild(guildName)
	if err != nil {
		return guild.Role{}, err
	}
	role, ok := g.Role(roleName)
	if !ok {
		return guild.Role{}, fmt.Errorf("role %q in guild %q: %w", roleName, guildName, ErrRoleNotFound)
	}
	return role, nil
}

// Identities returns the identities linked to account.
func (d *Directory) Identities(account guild.AccountID) (guild.IdentityMap, error) {
	ids, err := d.identities.ByAccount(account)
	if errors.Is(err, storage.ErrNotFound) {
		return guild.IdentityMap{}, ErrNotRegistered
	}
	return ids, err
}

func (d *Directory) IsMember(m guild.Membership) (bool, error) {
	return d.memberships.IsMember(m)
}

// Members lists holders of a role ordered by account. See
// storage.Memberships for the pagination contract.
func (d *Directory) Members(guildName guild.Name, roleName guild.Name, after guild.AccountID, limit uint) ([]guild.AccountID, error) {
	return d.memberships.Members(guildName, roleName, after, limit)
}

func (d *Directory) guildTx(tx *transaction.Tx, name guild.Name) (*guild.Guild, error) {
	g, err := d.guilds.ByNameTx(name)(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("guild %q: %w", name, ErrGuildNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve guild: %w", err)
	}
	return g, nil
}

func (d *Directory) roleTx(tx *transaction.Tx, guildName guild.Name, roleName guild.Name) (guild.Role, error) {
	g, err := d.guildTx(tx, guildName)
	if err != nil {
		return guild.Role{}, err
	}
	role, ok := g.Role(roleName)
	if !ok {
		return guild.Role{}, fmt.Errorf("role %q in guild %q: %w", roleName, guildName, ErrRoleNotFound)
	}
	return role, nil
}
