package oracle_test

import (
	"errors"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/state"
	"github.com/guildnet/guild-oracle/state/oracle"
	bstorage "github.com/guildnet/guild-oracle/storage/badger"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

func TestCoordinator(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

type CoordinatorSuite struct {
	suite.Suite

	dir  string
	db   *badger.DB
	fix  *unittest.Fixtures
	root guild.AccountID

	coordinator *oracle.Coordinator
}

func (s *CoordinatorSuite) SetupTest() {
	s.fix = unittest.FixturesFor(s.T())
	s.dir = unittest.TempDir(s.T())
	s.db = unittest.BadgerDB(s.T(), s.dir)
	s.root = s.fix.AccountID()

	all := bstorage.InitAll(metrics.NewNoopCollector(), s.db)
	s.coordinator = oracle.NewCoordinator(
		unittest.Logger(),
		metrics.NewNoopCollector(),
		s.db,
		all.Operators,
		all.Requests,
		s.root,
		oracle.DefaultConfig(),
	)

	err := transaction.Update(s.db, func(tx *transaction.Tx) error {
		err := operation.InsertHeight(1)(tx.DBTxn)
		if err != nil {
			return err
		}
		return s.coordinator.Bootstrap(tx)
	})
	s.Require().NoError(err)
}

func (s *CoordinatorSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
	s.Require().NoError(os.RemoveAll(s.dir))
}

func (s *CoordinatorSuite) update(f func(tx *transaction.Tx) error) error {
	return transaction.Update(s.db, f)
}

func (s *CoordinatorSuite) setHeight(height uint64) {
	err := s.db.Update(operation.UpdateHeight(height))
	s.Require().NoError(err)
}

// activeOperator registers and activates a fresh operator.
func (s *CoordinatorSuite) activeOperator() *signature.Ed25519Signer {
	signer := s.fix.Ed25519Signer()
	err := s.update(func(tx *transaction.Tx) error {
		err := s.coordinator.RegisterOperator(tx, s.root, signer.Account())
		if err != nil {
			return err
		}
		return s.coordinator.ActivateOperator(tx, signer.Account())
	})
	s.Require().NoError(err)
	return signer
}

func (s *CoordinatorSuite) submit(kind guild.RequestKind) *guild.Request {
	var req *guild.Request
	err := s.update(func(tx *transaction.Tx) error {
		var err error
		req, err = s.coordinator.SubmitRequest(tx, s.fix.AccountID(), kind, s.fix.Bytes(8))
		return err
	})
	s.Require().NoError(err)
	return req
}

func (s *CoordinatorSuite) callback(signer signature.Signer, id guild.RequestID, answer []byte) (*oracle.Outcome, error) {
	sig, err := signer.Sign(signature.CallbackMessage(id, answer))
	s.Require().NoError(err)

	var outcome *oracle.Outcome
	err = s.update(func(tx *transaction.Tx) error {
		var err error
		outcome, err = s.coordinator.Callback(tx, signer.Account(), id, answer, sig)
		return err
	})
	return outcome, err
}

func (s *CoordinatorSuite) requireRequest(id guild.RequestID, status guild.RequestStatus) *guild.Request {
	req, err := s.coordinator.Request(id)
	s.Require().NoError(err)
	s.Require().Equal(status, req.Status)
	return req
}

func (s *CoordinatorSuite) TestRegisterOperator() {
	account := s.fix.AccountID()

	s.Run("non-root origin", func() {
		err := s.update(func(tx *transaction.Tx) error {
			return s.coordinator.RegisterOperator(tx, account, account)
		})
		s.Require().ErrorIs(err, state.ErrBadOrigin)
	})

	s.Run("root registers", func() {
		err := s.update(func(tx *transaction.Tx) error {
			return s.coordinator.RegisterOperator(tx, s.root, account)
		})
		s.Require().NoError(err)

		op, err := s.coordinator.Operator(account)
		s.Require().NoError(err)
		s.Assert().Equal(guild.OperatorRegistered, op.Status)
		s.Assert().Equal(uint64(1), op.RegisteredAt)
	})

	s.Run("duplicate", func() {
		err := s.update(func(tx *transaction.Tx) error {
			return s.coordinator.RegisterOperator(tx, s.root, account)
		})
		s.Require().ErrorIs(err, oracle.ErrOperatorAlreadyRegistered)
	})
}

func (s *CoordinatorSuite) TestOperatorTransitions() {
	a := s.activeOperator()
	b := s.activeOperator()

	err := s.update(func(tx *transaction.Tx) error {
		return s.coordinator.ActivateOperator(tx, a.Account())
	})
	s.Require().ErrorIs(err, oracle.ErrInvalidTransition)

	err = s.update(func(tx *transaction.Tx) error {
		return s.coordinator.DeactivateOperator(tx, a.Account())
	})
	s.Require().NoError(err)

	err = s.update(func(tx *transaction.Tx) error {
		return s.coordinator.DeactivateOperator(tx, a.Account())
	})
	s.Require().ErrorIs(err, oracle.ErrInvalidTransition)

	active, err := s.coordinator.ActiveOperators()
	s.Require().NoError(err)
	s.Assert().Equal([]guild.AccountID{b.Account()}, active)

	// reactivated operators join the end of the rotation
	err = s.update(func(tx *transaction.Tx) error {
		return s.coordinator.ActivateOperator(tx, a.Account())
	})
	s.Require().NoError(err)
	active, err = s.coordinator.ActiveOperators()
	s.Require().NoError(err)
	s.Assert().Equal([]guild.AccountID{b.Account(), a.Account()}, active)

	err = s.update(func(tx *transaction.Tx) error {
		return s.coordinator.ActivateOperator(tx, s.fix.AccountID())
	})
	s.Require().ErrorIs(err, oracle.ErrOperatorNotFound)
}

func (s *CoordinatorSuite) TestNoActiveOperators() {
	err := s.update(func(tx *transaction.Tx) error {
		_, err := s.coordinator.SubmitRequest(tx, s.fix.AccountID(), guild.RequestGeneric, nil)
		return err
	})
	s.Require().ErrorIs(err, oracle.ErrNoActiveOperators)
}

func (s *CoordinatorSuite) TestRoundRobinAlternates() {
	a := s.activeOperator()
	b := s.activeOperator()

	expected := []guild.AccountID{a.Account(), b.Account(), a.Account(), b.Account()}
	var previous guild.RequestID
	for i, operator := range expected {
		req := s.submit(guild.RequestGeneric)
		s.Assert().Equal(operator, req.Operator, "request %d", i)
		s.Assert().Greater(req.ID, previous)
		previous = req.ID
	}
}

func (s *CoordinatorSuite) TestDeactivatePointedOperator() {
	a := s.activeOperator()
	b := s.activeOperator()
	c := s.activeOperator()

	req := s.submit(guild.RequestGeneric)
	s.Require().Equal(a.Account(), req.Operator)

	// b is next in line
	err := s.update(func(tx *transaction.Tx) error {
		return s.coordinator.DeactivateOperator(tx, b.Account())
	})
	s.Require().NoError(err)

	s.Assert().Equal(c.Account(), s.submit(guild.RequestGeneric).Operator)
	s.Assert().Equal(a.Account(), s.submit(guild.RequestGeneric).Operator)
	s.Assert().Equal(c.Account(), s.submit(guild.RequestGeneric).Operator)
}

func (s *CoordinatorSuite) TestGenericAnswer() {
	op := s.activeOperator()
	req := s.submit(guild.RequestGeneric)
	s.Assert().Equal(uint64(1), req.CreatedAt)
	s.Assert().Equal(uint64(11), req.ExpiresAt)

	answer := []byte("42")
	outcome, err := s.callback(op, req.ID, answer)
	s.Require().NoError(err)
	s.Assert().NoError(outcome.Rejection)
	s.Assert().Equal(guild.RequestAnswered, outcome.Request.Status)

	stored := s.requireRequest(req.ID, guild.RequestAnswered)
	s.Assert().Equal(answer, stored.Answer)

	pending, err := s.coordinator.PendingRequests(op.Account(), 0, 0)
	s.Require().NoError(err)
	s.Assert().Empty(pending)

	_, err = s.callback(op, req.ID, answer)
	s.Require().ErrorIs(err, oracle.ErrRequestNotPending)
}

func (s *CoordinatorSuite) TestRejectedCallbacksDoNotMutate() {
	a := s.activeOperator()
	b := s.activeOperator()
	req := s.submit(guild.RequestGeneric)
	s.Require().Equal(a.Account(), req.Operator)

	s.Run("unknown request", func() {
		_, err := s.callback(a, req.ID+100, []byte("x"))
		s.Require().ErrorIs(err, oracle.ErrRequestNotFound)
	})

	s.Run("not the assigned operator", func() {
		_, err := s.callback(b, req.ID, []byte("x"))
		s.Require().ErrorIs(err, oracle.ErrUnauthorizedCallback)
	})

	s.Run("signature by another key", func() {
		answer := []byte("x")
		sig, err := b.Sign(signature.CallbackMessage(req.ID, answer))
		s.Require().NoError(err)
		err = s.update(func(tx *transaction.Tx) error {
			_, err := s.coordinator.Callback(tx, a.Account(), req.ID, answer, sig)
			return err
		})
		s.Require().ErrorIs(err, oracle.ErrUnauthorizedCallback)
	})

	s.Run("signature over another answer", func() {
		sig, err := a.Sign(signature.CallbackMessage(req.ID, []byte("y")))
		s.Require().NoError(err)
		err = s.update(func(tx *transaction.Tx) error {
			_, err := s.coordinator.Callback(tx, a.Account(), req.ID, []byte("x"), sig)
			return err
		})
		s.Require().ErrorIs(err, oracle.ErrUnauthorizedCallback)
	})

	stored := s.requireRequest(req.ID, guild.RequestPending)
	s.Assert().Equal(*req, *stored)
}

func (s *CoordinatorSuite) TestExpiry() {
	op := s.activeOperator()
	req := s.submit(guild.RequestGeneric)

	s.setHeight(req.CreatedAt + 9)
	s.requireRequest(req.ID, guild.RequestPending)

	// the window is 10 blocks
	s.setHeight(req.CreatedAt + 10)
	s.requireRequest(req.ID, guild.RequestExpired)

	_, err := s.callback(op, req.ID, []byte("late"))
	s.Require().ErrorIs(err, oracle.ErrRequestExpired)

	// observed as expired but still indexed until swept
	pending, err := s.coordinator.PendingRequests(op.Account(), 0, 0)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Assert().Equal(guild.RequestExpired, pending[0].Status)

	var swept int
	err = s.update(func(tx *transaction.Tx) error {
		var err error
		swept, err = s.coordinator.SweepExpired(tx, 0)
		return err
	})
	s.Require().NoError(err)
	s.Assert().Equal(1, swept)

	stored, err := bstorage.NewRequests(metrics.NewNoopCollector(), s.db).ByID(req.ID)
	s.Require().NoError(err)
	s.Assert().Equal(guild.RequestExpired, stored.Status)

	pending, err = s.coordinator.PendingRequests(op.Account(), 0, 0)
	s.Require().NoError(err)
	s.Assert().Empty(pending)

	_, err = s.callback(op, req.ID, []byte("late"))
	s.Require().ErrorIs(err, oracle.ErrRequestExpired)
}

func (s *CoordinatorSuite) TestSweepLimit() {
	s.activeOperator()
	for i := 0; i < 5; i++ {
		s.submit(guild.RequestGeneric)
	}
	s.setHeight(100)

	var swept int
	err := s.update(func(tx *transaction.Tx) error {
		var err error
		swept, err = s.coordinator.SweepExpired(tx, 3)
		return err
	})
	s.Require().NoError(err)
	s.Assert().Equal(3, swept)

	err = s.update(func(tx *transaction.Tx) error {
		var err error
		swept, err = s.coordinator.SweepExpired(tx, 3)
		return err
	})
	s.Require().NoError(err)
	s.Assert().Equal(2, swept)
}

func (s *CoordinatorSuite) TestSweepKeepsLiveRequests() {
	op := s.activeOperator()
	early := s.submit(guild.RequestGeneric)
	s.setHeight(5)
	late := s.submit(guild.RequestGeneric)
	s.Require().Equal(uint64(11), early.ExpiresAt)
	s.Require().Equal(uint64(15), late.ExpiresAt)

	s.setHeight(12)
	var swept int
	err := s.update(func(tx *transaction.Tx) error {
		var err error
		swept, err = s.coordinator.SweepExpired(tx, 0)
		return err
	})
	s.Require().NoError(err)
	s.Assert().Equal(1, swept)

	requests := bstorage.NewRequests(metrics.NewNoopCollector(), s.db)
	stored, err := requests.ByID(early.ID)
	s.Require().NoError(err)
	s.Assert().Equal(guild.RequestExpired, stored.Status)
	stored, err = requests.ByID(late.ID)
	s.Require().NoError(err)
	s.Assert().Equal(guild.RequestPending, stored.Status)

	pending, err := s.coordinator.PendingRequests(op.Account(), 0, 0)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Assert().Equal(late.ID, pending[0].ID)
}

func (s *CoordinatorSuite) TestDecodeFailureRejects() {
	op := s.activeOperator()
	applied := false
	s.coordinator.RegisterHandler(guild.RequestJoin, oracle.ResultHandlerFunc(
		func(tx *transaction.Tx, req *guild.Request, answer []byte) error {
			if len(answer) != 1 {
				return oracle.NewDecodeFailure(errors.New("unexpected length"))
			}
			applied = true
			return nil
		}))

	req := s.submit(guild.RequestJoin)
	outcome, err := s.callback(op, req.ID, []byte("garbage"))
	s.Require().NoError(err)
	s.Require().Error(outcome.Rejection)
	s.Assert().True(oracle.IsDecodeFailure(outcome.Rejection))
	s.Assert().True(oracle.IsRejectionError(outcome.Rejection))
	s.Assert().False(applied)

	s.requireRequest(req.ID, guild.RequestRejected)

	_, err = s.callback(op, req.ID, []byte{1})
	s.Require().ErrorIs(err, oracle.ErrRequestNotPending)
}

func (s *CoordinatorSuite) TestHandlerFailureAborts() {
	op := s.activeOperator()
	failure := errors.New("storage unavailable")
	s.coordinator.RegisterHandler(guild.RequestJoin, oracle.ResultHandlerFunc(
		func(*transaction.Tx, *guild.Request, []byte) error {
			return failure
		}))

	req := s.submit(guild.RequestJoin)
	_, err := s.callback(op, req.ID, []byte{1})
	s.Require().ErrorIs(err, failure)
	s.requireRequest(req.ID, guild.RequestPending)
}

func (s *CoordinatorSuite) TestUnhandledKind() {
	s.activeOperator()
	err := s.update(func(tx *transaction.Tx) error {
		_, err := s.coordinator.SubmitRequest(tx, s.fix.AccountID(), guild.RequestRegister, nil)
		return err
	})
	s.Require().ErrorIs(err, oracle.ErrNoResultHandler)
}

func (s *CoordinatorSuite) TestDeregister() {
	a := s.activeOperator()
	b := s.activeOperator()
	req := s.submit(guild.RequestGeneric)
	s.Require().Equal(a.Account(), req.Operator)

	deregister := func(origin, account guild.AccountID) error {
		return s.update(func(tx *transaction.Tx) error {
			return s.coordinator.DeregisterOperator(tx, origin, account)
		})
	}

	s.Require().ErrorIs(deregister(b.Account(), a.Account()), state.ErrBadOrigin)
	s.Require().ErrorIs(deregister(a.Account(), a.Account()), oracle.ErrOperatorHasPendingRequests)

	// an expired request no longer blocks
	s.setHeight(req.ExpiresAt)
	s.Require().NoError(deregister(a.Account(), a.Account()))

	_, err := s.coordinator.Operator(a.Account())
	s.Require().ErrorIs(err, oracle.ErrOperatorNotFound)
	active, err := s.coordinator.ActiveOperators()
	s.Require().NoError(err)
	s.Assert().Equal([]guild.AccountID{b.Account()}, active)

	s.Require().NoError(deregister(s.root, b.Account()))
	s.Require().ErrorIs(deregister(s.root, b.Account()), oracle.ErrOperatorNotFound)
}

func (s *CoordinatorSuite) TestPendingRequestsPagination() {
	op := s.activeOperator()
	var ids []guild.RequestID
	for i := 0; i < 5; i++ {
		ids = append(ids, s.submit(guild.RequestGeneric).ID)
	}

	page, err := s.coordinator.PendingRequests(op.Account(), 0, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Assert().Equal(ids[0], page[0].ID)
	s.Assert().Equal(ids[1], page[1].ID)

	page, err = s.coordinator.PendingRequests(op.Account(), page[1].ID, 0)
	s.Require().NoError(err)
	s.Require().Len(page, 3)
	s.Assert().Equal(ids[2], page[0].ID)
}

func TestNotBootstrapped(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		all := bstorage.InitAll(metrics.NewNoopCollector(), db)
		coordinator := oracle.NewCoordinator(unittest.Logger(), metrics.NewNoopCollector(), db,
			all.Operators, all.Requests, guild.AccountID{}, oracle.DefaultConfig())

		_, err := coordinator.Height()
		require.ErrorIs(t, err, state.ErrNotBootstrapped)

		err = transaction.Update(db, func(tx *transaction.Tx) error {
			return coordinator.RegisterOperator(tx, guild.AccountID{}, guild.AccountID{1})
		})
		assert.ErrorIs(t, err, state.ErrNotBootstrapped)
	})
}
