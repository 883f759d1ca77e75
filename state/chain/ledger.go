package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/guildnet/guild-oracle/model/encoding/cbor"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/state"
	gstate "github.com/guildnet/guild-oracle/state/guild"
	"github.com/guildnet/guild-oracle/state/oracle"
	bstorage "github.com/guildnet/guild-oracle/storage/badger"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

type Config struct {
	Oracle oracle.Config
	// SweepLimit bounds the number of requests expired per sweep batch.
	SweepLimit uint
}

func DefaultConfig() Config {
	return Config{
		Oracle:     oracle.DefaultConfig(),
		SweepLimit: 100,
	}
}

// Ledger is a local single-node ledger executing extrinsics one at a time.
// It owns the block height and the root account, and wires the oracle
// coordinator to the guild directory.
type Ledger struct {
	mu          sync.Mutex
	log         zerolog.Logger
	metrics     module.OracleMetrics
	db          *badger.DB
	config      Config
	root        guild.AccountID
	height      uint64
	coordinator *oracle.Coordinator
	directory   *gstate.Directory
}

var _ module.OracleLedger = (*Ledger)(nil)

// New opens the ledger on db, bootstrapping it at height zero when the
// database is empty.
func New(
	log zerolog.Logger,
	oracleMetrics module.OracleMetrics,
	cacheMetrics module.CacheMetrics,
	db *badger.DB,
	root guild.AccountID,
	config Config,
) (*Ledger, error) {
	log = log.With().Str("component", "ledger").Logger()
	all := bstorage.InitAll(cacheMetrics, db)
	coordinator := oracle.NewCoordinator(log, oracleMetrics, db, all.Operators, all.Requests, root, config.Oracle)
	directory := gstate.NewDirectory(log, all.Guilds, all.Identities, all.Memberships, coordinator, cbor.NewEncoder())

	l := &Ledger{
		log:         log,
		metrics:     oracleMetrics,
		db:          db,
		config:      config,
		root:        root,
		coordinator: coordinator,
		directory:   directory,
	}

	height, err := coordinator.Height()
	if err == nil {
		l.height = height
		log.Info().Uint64("height", height).Msg("ledger opened")
		oracleMetrics.BlockHeight(height)
		return l, nil
	}
	if !errors.Is(err, state.ErrNotBootstrapped) {
		return nil, fmt.Errorf("could not read ledger height: %w", err)
	}

	err = transaction.Update(db, func(tx *transaction.Tx) error {
		err := operation.InsertHeight(0)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not insert height: %w", err)
		}
		return coordinator.Bootstrap(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("could not bootstrap ledger: %w", err)
	}
	log.Info().Hex("root", root[:]).Msg("ledger bootstrapped")
	oracleMetrics.BlockHeight(0)
	return l, nil
}

// execute runs one extrinsic in its own transaction.
func (l *Ledger) execute(name string, origin guild.AccountID, f func(tx *transaction.Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := transaction.Update(l.db, f)
	if err != nil {
		l.log.Debug().Err(err).Str("extrinsic", name).Hex("origin", origin[:]).Msg("extrinsic failed")
		return err
	}
	l.log.Debug().Str("extrinsic", name).Hex("origin", origin[:]).Uint64("height", l.height).Msg("extrinsic executed")
	return nil
}

// Root returns the root account.
func (l *Ledger) Root() guild.AccountID {
	return l.root
}

// Height returns the current block height.
func (l *Ledger) Height() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height, nil
}

// AdvanceBlocks moves the ledger n blocks forward and persists the
// expiry of every request whose window elapsed.
func (l *Ledger) AdvanceBlocks(n uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	height := l.height + n
	swept := 0
	err := transaction.Update(l.db, func(tx *transaction.Tx) error {
		err := operation.UpdateHeight(height)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not update height: %w", err)
		}
		for {
			count, err := l.coordinator.SweepExpired(tx, l.config.SweepLimit)
			if err != nil {
				return fmt.Errorf("could not sweep expired requests: %w", err)
			}
			swept += count
			if l.config.SweepLimit == 0 || count < int(l.config.SweepLimit) {
				return nil
			}
		}
	})
	if err != nil {
		return l.height, err
	}

	l.height = height
	l.metrics.BlockHeight(height)
	l.log.Debug().Uint64("height", height).Int("expired", swept).Msg("blocks advanced")
	return height, nil
}

func (l *Ledger) RegisterOperator(origin guild.AccountID, account guild.AccountID) error {
	return l.execute("register_operator", origin, func(tx *transaction.Tx) error {
		return l.coordinator.RegisterOperator(tx, origin, account)
	})
}

func (l *Ledger) ActivateOperator(origin guild.AccountID) error {
	return l.execute("activate_operator", origin, func(tx *transaction.Tx) error {
		return l.coordinator.ActivateOperator(tx, origin)
	})
}

func (l *Ledger) DeactivateOperator(origin guild.AccountID) error {
	return l.execute("deactivate_operator", origin, func(tx *transaction.Tx) error {
		return l.coordinator.DeactivateOperator(tx, origin)
	})
}

func (l *Ledger) DeregisterOperator(origin guild.AccountID, account guild.AccountID) error {
	return l.execute("deregister_operator", origin, func(tx *transaction.Tx) error {
		return l.coordinator.DeregisterOperator(tx, origin, account)
	})
}

// SubmitRequest submits a generic oracle request with an opaque payload.
func (l *Ledger) SubmitRequest(origin guild.AccountID, payload []byte) (guild.RequestID, error) {
	var req *guild.Request
	err := l.execute("submit_request", origin, func(tx *transaction.Tx) error {
		var err error
		req, err = l.coordinator.SubmitRequest(tx, origin, guild.RequestGeneric, payload)
		return err
	})
	if err != nil {
		return 0, err
	}
	return req.ID, nil
}

// Callback submits an operator answer. An answer rejected by the result
// handler finalizes the request as Rejected and is reported as an error.
func (l *Ledger) Callback(origin guild.AccountID, id guild.RequestID, answer []byte, sig signature.MultiSignature) error {
	var outcome *oracle.Outcome
	err := l.execute("callback", origin, func(tx *transaction.Tx) error {
		var err error
		outcome, err = l.coordinator.Callback(tx, origin, id, answer, sig)
		return err
	})
	if err != nil {
		return err
	}
	if outcome.Rejection != nil {
		return fmt.Errorf("request %d rejected: %w", id, outcome.Rejection)
	}
	return nil
}

func (l *Ledger) CreateGuild(origin guild.AccountID, name guild.Name, metadata []byte) error {
	return l.execute("create_guild", origin, func(tx *transaction.Tx) error {
		return l.directory.CreateGuild(tx, origin, name, metadata)
	})
}

func (l *Ledger) CreateRole(origin guild.AccountID, guildName guild.Name, role guild.Role) error {
	return l.execute("create_role", origin, func(tx *transaction.Tx) error {
		return l.directory.CreateRole(tx, origin, guildName, role)
	})
}

func (l *Ledger) RequestRegistration(origin guild.AccountID, identities []guild.IdentityWithAuth) (guild.RequestID, error) {
	var req *guild.Request
	err := l.execute("request_registration", origin, func(tx *transaction.Tx) error {
		var err error
		req, err = l.directory.RequestRegistration(tx, origin, identities)
		return err
	})
	if err != nil {
		return 0, err
	}
	return req.ID, nil
}

func (l *Ledger) RequestJoin(origin guild.AccountID, guildName guild.Name, roleName guild.Name, proofs []guild.AllowlistProof) (guild.RequestID, error) {
	var req *guild.Request
	err := l.execute("request_join", origin, func(tx *transaction.Tx) error {
		var err error
		req, err = l.directory.RequestJoin(tx, origin, guildName, roleName, proofs)
		return err
	})
	if err != nil {
		return 0, err
	}
	return req.ID, nil
}

func (l *Ledger) Unregister(origin guild.AccountID) error {
	return l.execute("unregister", origin, func(tx *transaction.Tx) error {
		return l.directory.Unregister(tx, origin)
	})
}

func (l *Ledger) Leave(origin guild.AccountID, guildName guild.Name, roleName guild.Name) error {
	return l.execute("leave", origin, func(tx *transaction.Tx) error {
		return l.directory.Leave(tx, origin, guildName, roleName)
	})
}

func (l *Ledger) Request(id guild.RequestID) (*guild.Request, error) {
	return l.coordinator.Request(id)
}

func (l *Ledger) PendingRequests(operator guild.AccountID, after guild.RequestID, limit uint) ([]*guild.Request, error) {
	return l.coordinator.PendingRequests(operator, after, limit)
}

func (l *Ledger) Operator(account guild.AccountID) (*guild.Operator, error) {
	return l.coordinator.Operator(account)
}

func (l *Ledger) ActiveOperators() ([]guild.AccountID, error) {
	return l.coordinator.ActiveOperators()
}

func (l *Ledger) Guild(name guild.Name) (*guild.Guild, error) {
	return l.directory.Guild(name)
}

func (l *Ledger) Role(guildName guild.Name, roleName guild.Name) (guild.Role, error) {
	return l.directory.Role(guildName, roleName)
}

func (l *Ledger) Identities(account guild.AccountID) (guild.IdentityMap, error) {
	return l.directory.Identities(account)
}

func (l *Ledger) IsMember(m guild.Membership) (bool, error) {
	return l.directory.IsMember(m)
}

func (l *Ledger) Members(guildName guild.Name, roleName guild.Name, after guild.AccountID, limit uint) ([]guild.AccountID, error) {
	return l.directory.Members(guildName, roleName, after, limit)
}
