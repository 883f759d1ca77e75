package guild

import (
	"errors"
	"fmt"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/state/oracle"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

func (d *Directory) decodeResult(answer []byte) (bool, error) {
	var result guild.CallbackResult
	err := d.encoder.Decode(answer, &result)
	if err != nil {
		return false, oracle.NewDecodeFailure(err)
	}
	return result.Result, nil
}

// applyRegister links the identities of an approved registration. Either
// all identities are linked or, on a platform clash with the current
// registry, none and the request is rejected.
func (d *Directory) applyRegister(tx *transaction.Tx, req *guild.Request, answer []byte) error {
	ok, err := d.decodeResult(answer)
	if err != nil {
		return err
	}
	var payload guild.RegisterPayload
	err = d.encoder.Decode(req.Payload, &payload)
	if err != nil {
		return oracle.NewDecodeFailure(err)
	}
	if !ok {
		return nil
	}

	identities := make([]guild.Identity, 0, len(payload.Identities))
	for _, auth := range payload.Identities {
		id, err := signature.IdentityFromAuth(auth, req.Requester)
		if err != nil {
			return oracle.NewRejectionErrorf("could not verify identity: %w", err)
		}
		identities = append(identities, id)
	}

	current, err := d.identities.ByAccountTx(req.Requester)(tx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not retrieve identities: %w", err)
	}
	merged, err := current.Merge(identities...)
	if errors.Is(err, guild.ErrPlatformAlreadyLinked) {
		return oracle.NewRejectionErrorf("could not register identities: %w", err)
	}
	if err != nil {
		return oracle.NewRejectionErrorf("invalid identities: %w", err)
	}

	err = d.identities.StoreTx(req.Requester, merged)(tx)
	if err != nil {
		return fmt.Errorf("could not store identities: %w", err)
	}
	tx.OnSucceed(func() {
		d.log.Info().
			Hex("account", req.Requester[:]).
			Int("identities", merged.Len()).
			Msg("identities registered")
	})
	return nil
}

// applyJoin grants the requested role when the operator found its
// requirements satisfied. A negative answer finalizes the request without
// granting anything.
func (d *Directory) applyJoin(tx *transaction.Tx, req *guild.Request, answer []byte) error {
	ok, err := d.decodeResult(answer)
	if err != nil {
		return err
	}
	var payload guild.JoinPayload
	err = d.encoder.Decode(req.Payload, &payload)
	if err != nil {
		return oracle.NewDecodeFailure(err)
	}
	if !ok {
		return nil
	}

	_, err = d.roleTx(tx, payload.Guild, payload.Role)
	if errors.Is(err, ErrGuildNotFound) || errors.Is(err, ErrRoleNotFound) {
		return oracle.NewRejectionErrorf("could not grant role: %w", err)
	}
	if err != nil {
		return err
	}

	membership := guild.Membership{Guild: payload.Guild, Role: payload.Role, Account: req.Requester}
	err = d.memberships.GrantTx(membership)(tx)
	if err != nil {
		return fmt.Errorf("could not grant membership: %w", err)
	}
	tx.OnSucceed(func() {
		d.log.Info().
			Str("guild", payload.Guild.String()).
			Str("role", payload.Role.String()).
			Hex("account", req.Requester[:]).
			Msg("role granted")
	})
	return nil
}
