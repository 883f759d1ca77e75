package module

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/signature"
)

// OracleLedger is the view of the ledger an operator process needs: its
// own registration, the requests assigned to it, the state required to
// verify them, and the callback extrinsic.
type OracleLedger interface {
	Height() (uint64, error)

	// Operator returns the registration of account.
	Operator(account guild.AccountID) (*guild.Operator, error)

	// PendingRequests lists requests assigned to operator, ordered by id,
	// starting after the given id. A limit of zero lists all.
	PendingRequests(operator guild.AccountID, after guild.RequestID, limit uint) ([]*guild.Request, error)

	Identities(account guild.AccountID) (guild.IdentityMap, error)
	Role(guildName guild.Name, roleName guild.Name) (guild.Role, error)

	// Callback submits the signed answer to request id.
	Callback(origin guild.AccountID, id guild.RequestID, answer []byte, sig signature.MultiSignature) error
}
