package operator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/engine/operator"
	"github.com/guildnet/guild-oracle/model/encoding/cbor"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/allowlist"
	"github.com/guildnet/guild-oracle/module/balance"
	balancemock "github.com/guildnet/guild-oracle/module/balance/mock"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/module/mock"
	"github.com/guildnet/guild-oracle/module/requirements"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/module/util"
	"github.com/guildnet/guild-oracle/state/chain"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func testConfig() operator.Config {
	config := operator.DefaultConfig()
	config.PollInterval = 5 * time.Millisecond
	config.BlockTime = 100 * time.Millisecond
	config.Workers = 2
	config.PageSize = 2
	config.Startup = util.RetryConfig{
		Base:       time.Millisecond,
		Cap:        2 * time.Millisecond,
		MaxRetries: 3,
	}
	return config
}

func TestWaitActive(t *testing.T) {
	fix := unittest.FixturesFor(t)
	signer := fix.Ed25519Signer()
	checker := requirements.NewChecker(balance.NewStatic(), nil, requirements.StrictErrors)

	t.Run("becomes active", func(t *testing.T) {
		ledger := mock.NewOracleLedger(t)
		ledger.On("Operator", signer.Account()).Return(&guild.Operator{Account: signer.Account(), Status: guild.OperatorRegistered}, nil).Twice()
		ledger.On("Operator", signer.Account()).Return(&guild.Operator{Account: signer.Account(), Status: guild.OperatorActive}, nil).Once()

		eng := operator.New(unittest.Logger(), metrics.NewNoopCollector(), ledger, signer, checker, cbor.NewEncoder(), testConfig())
		require.NoError(t, eng.WaitActive(context.Background()))
	})

	t.Run("gives up", func(t *testing.T) {
		ledger := mock.NewOracleLedger(t)
		ledger.On("Operator", signer.Account()).Return(nil, errors.New("not found"))

		eng := operator.New(unittest.Logger(), metrics.NewNoopCollector(), ledger, signer, checker, cbor.NewEncoder(), testConfig())
		err := eng.WaitActive(context.Background())
		require.Error(t, err)
		assert.True(t, util.IsRetryTimeoutError(err))
		ledger.AssertNumberOfCalls(t, "Operator", 4)
	})
}

func TestSkipsFinalizedAndGenericRequests(t *testing.T) {
	fix := unittest.FixturesFor(t)
	signer := fix.Ed25519Signer()
	checker := requirements.NewChecker(balance.NewStatic(), nil, requirements.StrictErrors)

	ledger := mock.NewOracleLedger(t)
	ledger.On("Height").Return(uint64(1), nil)
	expired := fix.RequestFixture(1, signer.Account(), unittest.WithRequestStatus(guild.RequestExpired))
	generic := fix.RequestFixture(2, signer.Account())
	ledger.On("PendingRequests", signer.Account(), guild.RequestID(0), uint(2)).
		Return([]*guild.Request{expired, generic}, nil)
	ledger.On("PendingRequests", signer.Account(), guild.RequestID(2), uint(2)).
		Return([]*guild.Request{}, nil)

	eng := operator.New(unittest.Logger(), metrics.NewNoopCollector(), ledger, signer, checker, cbor.NewEncoder(), testConfig())
	unittest.RequireReturnsBefore(t, func() { <-eng.Ready() }, time.Second)

	require.Eventually(t, func() bool { return eng.Abandoned() == 1 }, waitFor, tick)

	// the generic request is evaluated once even though it stays listed
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(1), eng.Abandoned())
	assert.Equal(t, uint64(0), eng.Answered())
	ledger.AssertNotCalled(t, "Callback", testifymock.Anything, testifymock.Anything, testifymock.Anything, testifymock.Anything)

	unittest.RequireReturnsBefore(t, func() { <-eng.Done() }, time.Second)
}

type network struct {
	fix      *unittest.Fixtures
	ledger   *chain.Ledger
	engine   *operator.Engine
	registry *allowlist.Registry
	owner    guild.AccountID
	dao      guild.Name
}

func runWithNetwork(t *testing.T, balances balance.Querier, f func(n *network)) {
	runWithPolicy(t, balances, requirements.StrictErrors, f)
}

func runWithPolicy(t *testing.T, balances balance.Querier, policy requirements.Policy, f func(n *network)) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		root := fix.AccountID()
		ledger, err := chain.New(unittest.Logger(), metrics.NewNoopCollector(), metrics.NewNoopCollector(), db, root, chain.DefaultConfig())
		require.NoError(t, err)

		signer := fix.Ed25519Signer()
		require.NoError(t, ledger.RegisterOperator(root, signer.Account()))
		require.NoError(t, ledger.ActivateOperator(signer.Account()))

		registry := allowlist.NewRegistry()
		checker := requirements.NewChecker(balances, registry, policy)
		eng := operator.New(unittest.Logger(), metrics.NewNoopCollector(), ledger, signer, checker, cbor.NewEncoder(), testConfig())
		require.NoError(t, eng.WaitActive(context.Background()))
		unittest.RequireReturnsBefore(t, func() { <-eng.Ready() }, time.Second)
		defer unittest.RequireReturnsBefore(t, func() { <-eng.Done() }, 5*time.Second)

		owner := fix.AccountID()
		dao := guild.MustName("dao")
		require.NoError(t, ledger.CreateGuild(owner, dao, nil))

		f(&network{fix: fix, ledger: ledger, engine: eng, registry: registry, owner: owner, dao: dao})
	})
}

func (n *network) requireStatus(t *testing.T, id guild.RequestID, status guild.RequestStatus) {
	require.Eventually(t, func() bool {
		req, err := n.ledger.Request(id)
		require.NoError(t, err)
		return req.Status == status
	}, waitFor, tick)
}

// registerWallet links a fresh wallet to a fresh account through the
// operator engine.
func (n *network) registerWallet(t *testing.T) (guild.AccountID, *signature.EvmSigner) {
	account := n.fix.AccountID()
	wallet := n.fix.EvmSigner()
	id, err := n.ledger.RequestRegistration(account, []guild.IdentityWithAuth{
		unittest.EvmIdentityWithAuth(wallet, account),
		{Identity: guild.DiscordIdentity(n.fix.Uint64InRange(1, 1<<40))},
	})
	require.NoError(t, err)
	n.requireStatus(t, id, guild.RequestAnswered)

	ids, err := n.ledger.Identities(account)
	require.NoError(t, err)
	require.Equal(t, 2, ids.Len())
	return account, wallet
}

// registerDiscord links only a Discord handle to a fresh account.
func (n *network) registerDiscord(t *testing.T) guild.AccountID {
	account := n.fix.AccountID()
	id, err := n.ledger.RequestRegistration(account, []guild.IdentityWithAuth{
		{Identity: guild.DiscordIdentity(n.fix.Uint64InRange(1, 1<<40))},
	})
	require.NoError(t, err)
	n.requireStatus(t, id, guild.RequestAnswered)
	return account
}

func (n *network) isMember(t *testing.T, role guild.Name, account guild.AccountID) bool {
	ok, err := n.ledger.IsMember(guild.Membership{Guild: n.dao, Role: role, Account: account})
	require.NoError(t, err)
	return ok
}

func TestAllowlistRoleEndToEnd(t *testing.T) {
	runWithNetwork(t, balance.NewStatic(), func(n *network) {
		member, wallet := n.registerWallet(t)
		outsider, _ := n.registerWallet(t)

		list, err := allowlist.New(append(n.fix.EvmAddresses(9), wallet.Address()))
		require.NoError(t, err)
		n.registry.Add(list)

		role := guild.MustName("allowlisted")
		require.NoError(t, n.ledger.CreateRole(n.owner, n.dao, unittest.RoleFixture(role, guild.LogicAnd, list.Requirement(guild.LogicAnd))))

		// no proof supplied: the operator builds it from its registry
		id, err := n.ledger.RequestJoin(member, n.dao, role, nil)
		require.NoError(t, err)
		n.requireStatus(t, id, guild.RequestAnswered)
		assert.True(t, n.isMember(t, role, member))

		id, err = n.ledger.RequestJoin(outsider, n.dao, role, nil)
		require.NoError(t, err)
		n.requireStatus(t, id, guild.RequestAnswered)
		assert.False(t, n.isMember(t, role, outsider))
	})
}

func TestBalanceRoleEndToEnd(t *testing.T) {
	balances := balance.NewStatic()
	runWithNetwork(t, balances, func(n *network) {
		rich, richWallet := n.registerWallet(t)
		poor, poorWallet := n.registerWallet(t)
		balances.Set(guild.ChainEthereum, guild.NativeToken(), richWallet.Address(), uint256.NewInt(1000))
		balances.Set(guild.ChainEthereum, guild.NativeToken(), poorWallet.Address(), uint256.NewInt(10))

		role := guild.MustName("whales")
		require.NoError(t, n.ledger.CreateRole(n.owner, n.dao, unittest.RoleFixture(role, guild.LogicAnd, unittest.NativeBalanceFixture(unittest.AtLeast(500)))))

		richReq, err := n.ledger.RequestJoin(rich, n.dao, role, nil)
		require.NoError(t, err)
		poorReq, err := n.ledger.RequestJoin(poor, n.dao, role, nil)
		require.NoError(t, err)

		n.requireStatus(t, richReq, guild.RequestAnswered)
		n.requireStatus(t, poorReq, guild.RequestAnswered)
		assert.True(t, n.isMember(t, role, rich))
		assert.False(t, n.isMember(t, role, poor))
		assert.Eventually(t, func() bool { return n.engine.Answered() == 4 }, waitFor, tick)
	})
}

func TestLookupFailureLeavesRequestToExpire(t *testing.T) {
	querier := balancemock.NewQuerier(t)
	failure := errors.New("connection refused")
	querier.On("Balance", testifymock.Anything, guild.ChainEthereum, guild.NativeToken(), testifymock.Anything).
		Return(nil, balance.NewLookupError(guild.ChainEthereum, guild.EvmAddress{}, failure))

	retrying := balance.NewRetrying(unittest.Logger(), querier, metrics.NewNoopCollector(), util.RetryConfig{
		Base:       time.Millisecond,
		Cap:        time.Millisecond,
		MaxRetries: 2,
	})

	runWithNetwork(t, retrying, func(n *network) {
		account, _ := n.registerWallet(t)
		role := guild.MustName("holders")
		require.NoError(t, n.ledger.CreateRole(n.owner, n.dao, unittest.RoleFixture(role, guild.LogicAnd, unittest.NativeBalanceFixture(unittest.AtLeast(1)))))

		id, err := n.ledger.RequestJoin(account, n.dao, role, nil)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return n.engine.Abandoned() == 1 }, waitFor, tick)
		querier.AssertNumberOfCalls(t, "Balance", 3)

		req, err := n.ledger.Request(id)
		require.NoError(t, err)
		assert.Equal(t, guild.RequestPending, req.Status)

		_, err = n.ledger.AdvanceBlocks(10)
		require.NoError(t, err)
		n.requireStatus(t, id, guild.RequestExpired)
		assert.False(t, n.isMember(t, role, account))
		assert.Equal(t, uint64(1), n.engine.Abandoned())
	})
}

func TestMissingIdentityUnderStrictErrors(t *testing.T) {
	runWithNetwork(t, balance.NewStatic(), func(n *network) {
		account := n.registerDiscord(t)
		role := guild.MustName("holders")
		require.NoError(t, n.ledger.CreateRole(n.owner, n.dao, unittest.RoleFixture(role, guild.LogicAnd, unittest.NativeBalanceFixture(unittest.AtLeast(1)))))

		id, err := n.ledger.RequestJoin(account, n.dao, role, nil)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return n.engine.Abandoned() == 1 }, waitFor, tick)
		req, err := n.ledger.Request(id)
		require.NoError(t, err)
		assert.Equal(t, guild.RequestPending, req.Status)
		assert.Equal(t, uint64(1), n.engine.Answered())

		_, err = n.ledger.AdvanceBlocks(10)
		require.NoError(t, err)
		n.requireStatus(t, id, guild.RequestExpired)
		assert.False(t, n.isMember(t, role, account))
	})
}

func TestMissingIdentityUnderUnknownAsUnsatisfied(t *testing.T) {
	runWithPolicy(t, balance.NewStatic(), requirements.UnknownAsUnsatisfied, func(n *network) {
		account := n.registerDiscord(t)
		role := guild.MustName("holders")
		require.NoError(t, n.ledger.CreateRole(n.owner, n.dao, unittest.RoleFixture(role, guild.LogicAnd, unittest.NativeBalanceFixture(unittest.AtLeast(1)))))

		id, err := n.ledger.RequestJoin(account, n.dao, role, nil)
		require.NoError(t, err)

		n.requireStatus(t, id, guild.RequestAnswered)
		assert.False(t, n.isMember(t, role, account))
		assert.Eventually(t, func() bool { return n.engine.Answered() == 2 }, waitFor, tick)
		assert.Equal(t, uint64(0), n.engine.Abandoned())
	})
}
