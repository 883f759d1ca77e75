package oracle

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/state"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Config holds the coordinator parameters.
type Config struct {
	// ValidityWindow is the number of blocks a request stays answerable.
	ValidityWindow uint64
}

func DefaultConfig() Config {
	return Config{
		ValidityWindow: 10,
	}
}

// Coordinator implements the oracle request state machine: operator
// lifecycle, round robin assignment of requests, authenticated callbacks
// and lazy expiry.
//
// Mutating methods run inside a caller-provided transaction and hold no
// locks; the caller serialises them. Nothing is written when a method
// returns an error, as long as the caller discards the transaction.
type Coordinator struct {
	log       zerolog.Logger
	metrics   module.OracleMetrics
	db        *badger.DB
	operators storage.Operators
	requests  storage.Requests
	root      guild.AccountID
	config    Config
	handlers  map[guild.RequestKind]ResultHandler
}

func NewCoordinator(
	log zerolog.Logger,
	metrics module.OracleMetrics,
	db *badger.DB,
	operators storage.Operators,
	requests storage.Requests,
	root guild.AccountID,
	config Config,
) *Coordinator {
	c := &Coordinator{
		log:       log.With().Str("component", "oracle_coordinator").Logger(),
		metrics:   metrics,
		db:        db,
		operators: operators,
		requests:  requests,
		root:      root,
		config:    config,
		handlers:  make(map[guild.RequestKind]ResultHandler),
	}
	c.handlers[guild.RequestGeneric] = ResultHandlerFunc(storeAnswer)
	return c
}

// RegisterHandler sets the handler applying answers of the given kind.
// Requests of a kind without handler cannot be submitted.
func (c *Coordinator) RegisterHandler(kind guild.RequestKind, handler ResultHandler) {
	c.handlers[kind] = handler
}

// Bootstrap initialises the request counter and the operator rotation.
func (c *Coordinator) Bootstrap(tx *transaction.Tx) error {
	err := operation.InitRequestCounter(1)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not initialise request counter: %w", err)
	}
	err = operation.UpsertActiveOperators(nil)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not initialise active operators: %w", err)
	}
	return operation.UpsertRoundRobin(0)(tx.DBTxn)
}

// RegisterOperator registers account as an operator. Only the root origin
// may register operators.
func (c *Coordinator) RegisterOperator(tx *transaction.Tx, origin guild.AccountID, account guild.AccountID) error {
	if origin != c.root {
		return fmt.Errorf("register operator %s: %w", account, state.ErrBadOrigin)
	}
	height, err := currentHeight(tx)
	if err != nil {
		return err
	}

	op := guild.Operator{
		Account:      account,
		Status:       guild.OperatorRegistered,
		RegisteredAt: height,
	}
	err = c.operators.InsertTx(&op)(tx)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("operator %s: %w", account, ErrOperatorAlreadyRegistered)
	}
	if err != nil {
		return fmt.Errorf("could not insert operator: %w", err)
	}

	tx.OnSucceed(func() {
		c.log.Info().Hex("operator", account[:]).Msg("operator registered")
	})
	return nil
}

// ActivateOperator makes the origin eligible for request assignment. It is
// appended to the end of the rotation.
func (c *Coordinator) ActivateOperator(tx *transaction.Tx, origin guild.AccountID) error {
	op, err := c.transition(tx, origin, guild.OperatorActive)
	if err != nil {
		return err
	}

	var active []guild.AccountID
	err = operation.RetrieveActiveOperators(&active)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not retrieve active operators: %w", err)
	}
	active = append(active, op.Account)
	return c.storeActive(tx, active)
}

// DeactivateOperator removes the origin from the rotation, preserving the
// order of the remaining operators. Requests already assigned to it stay
// assigned.
func (c *Coordinator) DeactivateOperator(tx *transaction.Tx, origin guild.AccountID) error {
	_, err := c.transition(tx, origin, guild.OperatorInactive)
	if err != nil {
		return err
	}
	return c.dropActive(tx, origin)
}

// DeregisterOperator deletes an operator. The root origin may deregister
// anyone, other origins only themselves. Operators with live pending
// requests cannot be deregistered.
func (c *Coordinator) DeregisterOperator(tx *transaction.Tx, origin guild.AccountID, account guild.AccountID) error {
	if origin != c.root && origin != account {
		return fmt.Errorf("deregister operator %s: %w", account, state.ErrBadOrigin)
	}
	op, err := c.operator(tx, account)
	if err != nil {
		return err
	}

	height, err := currentHeight(tx)
	if err != nil {
		return err
	}
	live, err := c.hasLivePending(tx, account, height)
	if err != nil {
		return err
	}
	if live {
		return fmt.Errorf("operator %s: %w", account, ErrOperatorHasPendingRequests)
	}

	if op.Status == guild.OperatorActive {
		err = c.dropActive(tx, account)
		if err != nil {
			return err
		}
	}
	err = c.operators.RemoveTx(account)(tx)
	if err != nil {
		return fmt.Errorf("could not remove operator: %w", err)
	}

	tx.OnSucceed(func() {
		c.log.Info().Hex("operator", account[:]).Msg("operator deregistered")
	})
	return nil
}

// SubmitRequest records a new pending request and assigns it to the next
// active operator in the rotation.
func (c *Coordinator) SubmitRequest(tx *transaction.Tx, requester guild.AccountID, kind guild.RequestKind, payload []byte) (*guild.Request, error) {
	if _, ok := c.handlers[kind]; !ok {
		return nil, fmt.Errorf("request kind %s: %w", kind, ErrNoResultHandler)
	}
	height, err := currentHeight(tx)
	if err != nil {
		return nil, err
	}

	var active []guild.AccountID
	err = operation.RetrieveActiveOperators(&active)(tx.DBTxn)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve active operators: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrNoActiveOperators
	}

	var ptr uint64
	err = operation.RetrieveRoundRobin(&ptr)(tx.DBTxn)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve round robin pointer: %w", err)
	}
	index := ptr % uint64(len(active))
	err = operation.UpsertRoundRobin((index + 1) % uint64(len(active)))(tx.DBTxn)
	if err != nil {
		return nil, fmt.Errorf("could not advance round robin pointer: %w", err)
	}

	var next uint64
	err = operation.RetrieveRequestCounter(&next)(tx.DBTxn)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, state.ErrNotBootstrapped
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve request counter: %w", err)
	}
	err = operation.UpdateRequestCounter(next + 1)(tx.DBTxn)
	if err != nil {
		return nil, fmt.Errorf("could not advance request counter: %w", err)
	}

	req := &guild.Request{
		ID:        guild.RequestID(next),
		Requester: requester,
		Kind:      kind,
		Payload:   append([]byte(nil), payload...),
		Operator:  active[index],
		CreatedAt: height,
		ExpiresAt: height + c.config.ValidityWindow,
		Status:    guild.RequestPending,
	}
	err = c.requests.InsertTx(req)(tx)
	if err != nil {
		return nil, fmt.Errorf("could not insert request: %w", err)
	}
	err = operation.IndexPendingRequest(req)(tx.DBTxn)
	if err != nil {
		return nil, fmt.Errorf("could not index request: %w", err)
	}

	tx.OnSucceed(func() {
		c.metrics.RequestSubmitted(kind)
		c.log.Debug().
			Uint64("request_id", uint64(req.ID)).
			Str("kind", kind.String()).
			Hex("operator", req.Operator[:]).
			Uint64("expires_at", req.ExpiresAt).
			Msg("request submitted")
	})
	return req, nil
}

// Outcome describes a request finalized by a callback.
type Outcome struct {
	Request *guild.Request
	// Rejection is set when the answer was authenticated but the result
	// handler refused it. The request is then Rejected.
	Rejection error
}

// Callback applies the answer of the assigned operator. Callbacks for
// unknown, expired or finalized requests, and callbacks not signed by the
// assigned operator, are refused with an error and nothing is written.
//
// A valid callback finalizes the request: Answered when the result handler
// accepts it, Rejected when it returns a RejectionError. The rejection is
// reported through the outcome, and the transaction may be committed.
func (c *Coordinator) Callback(tx *transaction.Tx, origin guild.AccountID, id guild.RequestID, answer []byte, sig signature.MultiSignature) (*Outcome, error) {
	req, err := c.requests.ByIDTx(id)(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("request %d: %w", id, ErrRequestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve request %d: %w", id, err)
	}
	height, err := currentHeight(tx)
	if err != nil {
		return nil, err
	}

	switch req.StatusAt(height) {
	case guild.RequestPending:
	case guild.RequestExpired:
		return nil, fmt.Errorf("request %d expired at height %d: %w", id, req.ExpiresAt, ErrRequestExpired)
	default:
		return nil, fmt.Errorf("request %d is %s: %w", id, req.Status, ErrRequestNotPending)
	}

	if origin != req.Operator {
		c.metrics.UnauthorizedCallback()
		return nil, fmt.Errorf("request %d is not assigned to %s: %w", id, origin, ErrUnauthorizedCallback)
	}
	err = signature.VerifyAccount(sig, signature.CallbackMessage(id, answer), origin)
	if err != nil {
		c.metrics.UnauthorizedCallback()
		return nil, fmt.Errorf("request %d: %v: %w", id, err, ErrUnauthorizedCallback)
	}

	handler, ok := c.handlers[req.Kind]
	if !ok {
		return nil, fmt.Errorf("request kind %s: %w", req.Kind, ErrNoResultHandler)
	}
	outcome := &Outcome{Request: req}
	err = handler.Apply(tx, req, answer)
	switch {
	case err == nil:
		req.Status = guild.RequestAnswered
	case IsRejectionError(err):
		req.Status = guild.RequestRejected
		req.Answer = nil
		outcome.Rejection = err
	default:
		return nil, fmt.Errorf("could not apply answer to request %d: %w", id, err)
	}

	err = c.finalize(tx, req)
	if err != nil {
		return nil, err
	}

	tx.OnSucceed(func() {
		event := c.log.Info()
		if outcome.Rejection != nil {
			event = c.log.Warn().Str("reason", outcome.Rejection.Error())
		}
		event.Uint64("request_id", uint64(id)).
			Str("kind", req.Kind.String()).
			Str("status", req.Status.String()).
			Msg("request finalized by callback")
	})
	return outcome, nil
}

// SweepExpired persists the Expired status of up to limit pending requests
// whose window has elapsed, oldest expiry first. A limit of zero sweeps
// all. It returns the number of swept requests.
func (c *Coordinator) SweepExpired(tx *transaction.Tx, limit uint) (int, error) {
	height, err := currentHeight(tx)
	if err != nil {
		return 0, err
	}

	var ids []guild.RequestID
	err = operation.LookupExpiredBefore(height, limit, &ids)(tx.DBTxn)
	if err != nil {
		return 0, fmt.Errorf("could not look up expired requests: %w", err)
	}

	for _, id := range ids {
		req, err := c.requests.ByIDTx(id)(tx)
		if err != nil {
			return 0, fmt.Errorf("could not retrieve expired request %d: %w", id, err)
		}
		req.Status = guild.RequestExpired
		err = c.finalize(tx, req)
		if err != nil {
			return 0, err
		}
	}

	if len(ids) > 0 {
		tx.OnSucceed(func() {
			c.log.Debug().Uint64("height", height).Int("count", len(ids)).Msg("expired requests swept")
		})
	}
	return len(ids), nil
}

// Request returns a request with its status observed at the current
// height: a pending request past its window is reported as Expired.
func (c *Coordinator) Request(id guild.RequestID) (*guild.Request, error) {
	height, err := c.Height()
	if err != nil {
		return nil, err
	}
	req, err := c.requests.ByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("request %d: %w", id, ErrRequestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve request %d: %w", id, err)
	}
	req.Status = req.StatusAt(height)
	return req, nil
}

// PendingRequests lists the requests assigned to operator that have not
// been finalized, ordered by id and starting after the given id. Requests
// whose window elapsed but which were not swept yet are included with the
// Expired status. A limit of zero lists all.
func (c *Coordinator) PendingRequests(operator guild.AccountID, after guild.RequestID, limit uint) ([]*guild.Request, error) {
	var (
		height uint64
		ids    []guild.RequestID
	)
	err := c.db.View(func(tx *badger.Txn) error {
		err := operation.RetrieveHeight(&height)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve height: %w", err)
		}
		return operation.LookupPendingByOperator(operator, after, limit, &ids)(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("could not look up pending requests: %w", err)
	}

	reqs := make([]*guild.Request, 0, len(ids))
	for _, id := range ids {
		req, err := c.requests.ByID(id)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve pending request %d: %w", id, err)
		}
		req.Status = req.StatusAt(height)
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Operator returns the registered operator for account.
func (c *Coordinator) Operator(account guild.AccountID) (*guild.Operator, error) {
	op, err := c.operators.ByAccount(account)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("operator %s: %w", account, ErrOperatorNotFound)
	}
	return op, err
}

// ActiveOperators returns the rotation in assignment order.
func (c *Coordinator) ActiveOperators() ([]guild.AccountID, error) {
	var active []guild.AccountID
	err := c.db.View(operation.RetrieveActiveOperators(&active))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve active operators: %w", err)
	}
	return active, nil
}

// Height returns the current ledger height.
func (c *Coordinator) Height() (uint64, error) {
	var height uint64
	err := c.db.View(operation.RetrieveHeight(&height))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, state.ErrNotBootstrapped
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve height: %w", err)
	}
	return height, nil
}

func (c *Coordinator) operator(tx *transaction.Tx, account guild.AccountID) (*guild.Operator, error) {
	op, err := c.operators.ByAccountTx(account)(tx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("operator %s: %w", account, ErrOperatorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve operator: %w", err)
	}
	return op, nil
}

func (c *Coordinator) transition(tx *transaction.Tx, account guild.AccountID, next guild.OperatorStatus) (*guild.Operator, error) {
	op, err := c.operator(tx, account)
	if err != nil {
		return nil, err
	}
	if !op.Status.CanTransition(next) {
		return nil, fmt.Errorf("operator %s from %s to %s: %w", account, op.Status, next, ErrInvalidTransition)
	}
	op.Status = next
	err = c.operators.UpdateTx(op)(tx)
	if err != nil {
		return nil, fmt.Errorf("could not update operator: %w", err)
	}

	tx.OnSucceed(func() {
		c.log.Info().Hex("operator", account[:]).Str("status", next.String()).Msg("operator status changed")
	})
	return op, nil
}

func (c *Coordinator) dropActive(tx *transaction.Tx, account guild.AccountID) error {
	var active []guild.AccountID
	err := operation.RetrieveActiveOperators(&active)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not retrieve active operators: %w", err)
	}
	remaining := active[:0]
	for _, a := range active {
		if a != account {
			remaining = append(remaining, a)
		}
	}
	return c.storeActive(tx, remaining)
}

func (c *Coordinator) storeActive(tx *transaction.Tx, active []guild.AccountID) error {
	err := operation.UpsertActiveOperators(active)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not store active operators: %w", err)
	}
	n := len(active)
	tx.OnSucceed(func() {
		c.metrics.ActiveOperators(n)
	})
	return nil
}

func (c *Coordinator) hasLivePending(tx *transaction.Tx, account guild.AccountID, height uint64) (bool, error) {
	var ids []guild.RequestID
	err := operation.LookupPendingByOperator(account, 0, 0, &ids)(tx.DBTxn)
	if err != nil {
		return false, fmt.Errorf("could not look up pending requests: %w", err)
	}
	for _, id := range ids {
		req, err := c.requests.ByIDTx(id)(tx)
		if err != nil {
			return false, fmt.Errorf("could not retrieve pending request %d: %w", id, err)
		}
		if !req.Expired(height) {
			return true, nil
		}
	}
	return false, nil
}

// finalize persists a terminal status and drops the pending indexes.
func (c *Coordinator) finalize(tx *transaction.Tx, req *guild.Request) error {
	err := c.requests.UpdateTx(req)(tx)
	if err != nil {
		return fmt.Errorf("could not update request %d: %w", req.ID, err)
	}
	err = operation.UnindexPendingRequest(req)(tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not unindex request %d: %w", req.ID, err)
	}
	kind, status := req.Kind, req.Status
	tx.OnSucceed(func() {
		c.metrics.RequestFinalized(kind, status)
	})
	return nil
}

func currentHeight(tx *transaction.Tx) (uint64, error) {
	var height uint64
	err := operation.RetrieveHeight(&height)(tx.DBTxn)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, state.ErrNotBootstrapped
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve height: %w", err)
	}
	return height, nil
}
