package storage

// All includes every storage module the ledger uses.
type All struct {
	Operators   Operators
	Requests    Requests
	Guilds      Guilds
	Identities  Identities
	Memberships Memberships
}
