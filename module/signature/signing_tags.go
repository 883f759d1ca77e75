package signature

import (
	"encoding/binary"

	"github.com/guildnet/guild-oracle/model/guild"
)

// List of domain separation tags for protocol signatures.
//
// Every message an account or operator signs starts with a tag naming the
// object being signed, so that a signature produced for one purpose can
// never be replayed for another.

// protocol version and prefix
const protocolPrefix = "GUILD-ORACLE-V0_"

func tag(domain string) string {
	return protocolPrefix + domain
}

var (
	// IdentityLinkTag prefixes the message an EVM address signs to be linked
	// to a ledger account.
	IdentityLinkTag = tag("Identity-Link:")
	// CallbackTag prefixes operator callbacks.
	CallbackTag = tag("Callback")
)

// CanonicalIdentityMessage is the message the owner of an EVM address signs
// to link it to account. It is human readable so wallets can display it.
func CanonicalIdentityMessage(account guild.AccountID) []byte {
	return []byte(IdentityLinkTag + account.String())
}

// CallbackMessage is the message an operator signs to answer request id.
func CallbackMessage(id guild.RequestID, answer []byte) []byte {
	msg := make([]byte, 0, len(CallbackTag)+8+len(answer))
	msg = append(msg, CallbackTag...)
	msg = binary.BigEndian.AppendUint64(msg, uint64(id))
	msg = append(msg, answer...)
	return msg
}
