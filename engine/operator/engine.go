package operator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/guildnet/guild-oracle/engine"
	"github.com/guildnet/guild-oracle/model/encoding"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/module/requirements"
	"github.com/guildnet/guild-oracle/module/signature"
	"github.com/guildnet/guild-oracle/module/util"
)

var (
	errNotActive       = errors.New("operator is not active")
	errUnsupportedKind = errors.New("request kind is not resolved by this operator")
)

type Config struct {
	// PollInterval is the period at which assigned requests are fetched.
	PollInterval time.Duration
	// BlockTime converts request windows from blocks to wall-clock
	// deadlines.
	BlockTime time.Duration
	// Workers bounds the number of requests evaluated in parallel.
	Workers int
	// PageSize is the number of pending requests fetched per call.
	PageSize uint
	// Startup bounds the wait for the operator to become active.
	Startup util.RetryConfig
}

func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
		BlockTime:    6 * time.Second,
		Workers:      8,
		PageSize:     100,
		Startup: util.RetryConfig{
			Base:          500 * time.Millisecond,
			Cap:           5 * time.Second,
			MaxRetries:    20,
			JitterPercent: 10,
		},
	}
}

// Engine is the off-chain operator process. It polls the requests
// assigned to its account, evaluates them on a bounded worker pool and
// submits signed answers.
//
// A request whose evaluation fails (for instance because balance lookups
// were exhausted) is not answered and left to expire. Each request is
// evaluated at most once.
type Engine struct {
	log     zerolog.Logger
	unit    *engine.Unit
	metrics module.OperatorMetrics
	ledger  module.OracleLedger
	signer  signature.Signer
	checker *requirements.Checker
	encoder encoding.Encoder
	config  Config
	pool    *workerpool.WorkerPool

	mu       sync.Mutex
	inFlight map[guild.RequestID]struct{}
	// attempted holds the expiry of evaluated requests that may still be
	// listed as pending.
	attempted map[guild.RequestID]uint64

	answered  *atomic.Uint64
	abandoned *atomic.Uint64
}

func New(
	log zerolog.Logger,
	collector module.OperatorMetrics,
	ledger module.OracleLedger,
	signer signature.Signer,
	checker *requirements.Checker,
	encoder encoding.Encoder,
	config Config,
) *Engine {
	account := signer.Account()
	return &Engine{
		log:       log.With().Str("engine", "operator").Hex("operator", account[:]).Logger(),
		unit:      engine.NewUnit(),
		metrics:   collector,
		ledger:    ledger,
		signer:    signer,
		checker:   checker,
		encoder:   encoder,
		config:    config,
		pool:      workerpool.New(config.Workers),
		inFlight:  make(map[guild.RequestID]struct{}),
		attempted: make(map[guild.RequestID]uint64),
		answered:  atomic.NewUint64(0),
		abandoned: atomic.NewUint64(0),
	}
}

// WaitActive blocks until the operator account is active on the ledger.
// It gives up with a util.RetryTimeoutError after the configured attempts.
func (e *Engine) WaitActive(ctx context.Context) error {
	me := e.signer.Account()
	return util.Retry(ctx, e.config.Startup, func(context.Context) error {
		op, err := e.ledger.Operator(me)
		if err != nil {
			return util.Transient(fmt.Errorf("could not load operator: %w", err))
		}
		if op.Status != guild.OperatorActive {
			return util.Transient(fmt.Errorf("status %s: %w", op.Status, errNotActive))
		}
		return nil
	})
}

// Ready starts polling and returns a channel that is closed once the
// engine runs.
func (e *Engine) Ready() <-chan struct{} {
	e.unit.LaunchPeriodically(e.poll, e.config.PollInterval, 0)
	return e.unit.Ready()
}

// Done stops polling, abandons in-flight evaluations and waits for the
// workers to exit.
func (e *Engine) Done() <-chan struct{} {
	return e.unit.Done(e.pool.StopWait)
}

// Answered returns the number of requests answered since startup.
func (e *Engine) Answered() uint64 {
	return e.answered.Load()
}

// Abandoned returns the number of requests left unanswered since startup.
func (e *Engine) Abandoned() uint64 {
	return e.abandoned.Load()
}

// poll dispatches newly assigned requests to the worker pool.
func (e *Engine) poll() {
	height, err := e.ledger.Height()
	if err != nil {
		e.log.Error().Err(err).Msg("could not read ledger height")
		return
	}
	e.prune(height)

	var after guild.RequestID
	for {
		reqs, err := e.ledger.PendingRequests(e.signer.Account(), after, e.config.PageSize)
		if err != nil {
			e.log.Error().Err(err).Msg("could not list pending requests")
			return
		}
		for _, req := range reqs {
			after = req.ID
			if req.Status != guild.RequestPending {
				continue
			}
			if !e.admit(req) {
				continue
			}
			req := req
			e.pool.Submit(func() {
				e.process(req, height)
			})
		}
		if e.config.PageSize == 0 || uint(len(reqs)) < e.config.PageSize {
			return
		}
	}
}

// admit marks req as in flight unless it is already being or has been
// evaluated.
func (e *Engine) admit(req *guild.Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inFlight[req.ID]; ok {
		return false
	}
	if _, ok := e.attempted[req.ID]; ok {
		return false
	}
	e.inFlight[req.ID] = struct{}{}
	return true
}

func (e *Engine) release(req *guild.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, req.ID)
	e.attempted[req.ID] = req.ExpiresAt
}

// prune forgets evaluated requests that can no longer be listed as pending.
func (e *Engine) prune(height uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, expiresAt := range e.attempted {
		if height >= expiresAt {
			delete(e.attempted, id)
		}
	}
}

// process evaluates and answers a single request. The evaluation is
// bounded by the wall-clock estimate of the request expiry.
func (e *Engine) process(req *guild.Request, height uint64) {
	defer e.release(req)

	log := e.log.With().
		Uint64("request_id", uint64(req.ID)).
		Str("kind", req.Kind.String()).
		Logger()

	var remaining uint64
	if req.ExpiresAt > height {
		remaining = req.ExpiresAt - height
	}
	deadline := time.Now().Add(time.Duration(remaining) * e.config.BlockTime)
	ctx, cancel := context.WithDeadline(e.unit.Ctx(), deadline)
	defer cancel()

	e.metrics.JobStarted()
	start := time.Now()
	outcome := metrics.OutcomeAnswered
	defer func() {
		e.metrics.JobFinished(req.Kind, outcome, time.Since(start))
	}()

	result, err := e.evaluate(ctx, req)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		outcome = metrics.OutcomeDropped
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeFailed
		}
		e.abandoned.Inc()
		log.Warn().Err(err).Msg("request left unanswered")
		return
	}

	err = e.answer(req.ID, result)
	if err != nil {
		outcome = metrics.OutcomeFailed
		e.abandoned.Inc()
		log.Error().Err(err).Msg("could not submit answer")
		return
	}
	e.answered.Inc()
	log.Info().Bool("result", result).Msg("request answered")
}

// evaluate computes the boolean answer to a request. An error means the
// request cannot be answered.
func (e *Engine) evaluate(ctx context.Context, req *guild.Request) (bool, error) {
	switch req.Kind {
	case guild.RequestRegister:
		var payload guild.RegisterPayload
		err := e.encoder.Decode(req.Payload, &payload)
		if err != nil {
			return false, nil
		}
		return e.verifyIdentities(payload, req.Requester), nil

	case guild.RequestJoin:
		var payload guild.JoinPayload
		err := e.encoder.Decode(req.Payload, &payload)
		if err != nil {
			return false, nil
		}
		return e.checkRole(ctx, payload, req.Requester)

	case guild.RequestGeneric:
		return false, errUnsupportedKind

	default:
		return false, fmt.Errorf("unknown request kind %d: %w", req.Kind, errUnsupportedKind)
	}
}

// verifyIdentities checks the ownership proof of every identity. Off-chain
// platform handles carry no proof and are accepted as submitted.
func (e *Engine) verifyIdentities(payload guild.RegisterPayload, requester guild.AccountID) bool {
	if len(payload.Identities) == 0 {
		return false
	}
	for _, auth := range payload.Identities {
		_, err := signature.IdentityFromAuth(auth, requester)
		if err != nil {
			e.log.Debug().Err(err).Str("identity", auth.Identity.String()).Msg("identity rejected")
			return false
		}
	}
	return true
}

// checkRole evaluates the role requirements for requester. Failed external
// lookups are returned as errors. Other evaluation errors, such as a missing
// identity or an invalid proof, are returned under StrictErrors and yield
// false under UnknownAsUnsatisfied.
func (e *Engine) checkRole(ctx context.Context, payload guild.JoinPayload, requester guild.AccountID) (bool, error) {
	role, err := e.ledger.Role(payload.Guild, payload.Role)
	if err != nil {
		return false, fmt.Errorf("could not load role: %w", err)
	}
	identities, err := e.ledger.Identities(requester)
	if err != nil {
		return false, fmt.Errorf("could not load identities: %w", err)
	}

	ok, err := e.checker.CheckAll(ctx, role.Requirements, identities, payload.Proofs)
	if err == nil {
		return ok, nil
	}
	if errors.Is(err, requirements.ErrExternalLookup) || e.checker.Policy() == requirements.StrictErrors {
		return false, err
	}
	e.log.Debug().Err(err).Msg("requirements not met")
	return false, nil
}

func (e *Engine) answer(id guild.RequestID, result bool) error {
	payload, err := e.encoder.Encode(guild.CallbackResult{Result: result})
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}
	sig, err := e.signer.Sign(signature.CallbackMessage(id, payload))
	if err != nil {
		return fmt.Errorf("could not sign result: %w", err)
	}
	return e.ledger.Callback(e.signer.Account(), id, payload, sig)
}
