package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/guildnet/guild-oracle/model/guild"
)

const (

	// codes for special database markers
	codeMax    = 1 // keeps track of the maximum key size
	codeDBType = 2 // specifies a database type

	// codes for views with special meaning
	codeHeight         = 10 // latest ledger height
	codeRequestCounter = 11 // next request id
	codeRoundRobin     = 12 // round robin pointer into the active operator list
	codeActiveList     = 13 // ordered list of active operators

	// codes for entities
	codeOperator   = 20
	codeRequest    = 21
	codeGuild      = 22
	codeIdentities = 23
	codeMembership = 24

	// codes for indexes
	codePendingByOperator = 40 // operator, request id -> request id
	codePendingByExpiry   = 41 // expiry height, request id -> request id
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case guild.RequestID:
		return b(uint64(i))
	case guild.AccountID:
		return i[:]
	case guild.Name:
		return i[:]
	case guild.Hash:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}

func keyUint64(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
