package oracle

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// ResultHandler applies an authenticated answer to the ledger state.
//
// Apply runs inside the transaction that finalizes the request. It must
// decode and validate the answer before writing: returning a
// RejectionError (for instance via NewDecodeFailure) finalizes the request
// as Rejected and commits. Any other error aborts the transaction.
type ResultHandler interface {
	Apply(tx *transaction.Tx, req *guild.Request, answer []byte) error
}

// ResultHandlerFunc adapts a function to a ResultHandler.
type ResultHandlerFunc func(tx *transaction.Tx, req *guild.Request, answer []byte) error

func (f ResultHandlerFunc) Apply(tx *transaction.Tx, req *guild.Request, answer []byte) error {
	return f(tx, req, answer)
}

// storeAnswer keeps the raw answer on the request.
func storeAnswer(_ *transaction.Tx, req *guild.Request, answer []byte) error {
	req.Answer = append([]byte(nil), answer...)
	return nil
}
