package registrar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/net/idna"

	"firestige.xyz/gb28181registrar/internal/eventbus"
	"firestige.xyz/gb28181registrar/internal/log"
	"firestige.xyz/gb28181registrar/internal/metrics"
	"firestige.xyz/gb28181registrar/internal/sip"
)

// wakeupTimeout bounds the worker's wait on an empty queue so it always
// reacts to shutdown even if a wakeup signal is lost.
const wakeupTimeout = 10 * time.Second

// Event-bus topics of the two post-registration hooks.
const (
	TopicRPCRegister    = "rpc.dms.register.received"
	TopicAlarmSubscribe = "device.alarm.subscribe"
)

// Worker is the single cooperative REGISTER consumer: it dequeues one
// transaction at a time, runs the registration state machine, and fires
// post-registration hooks. No per-account locking exists anywhere in this
// package — serial processing by exactly one Worker is the consistency
// guarantee the rest of the core relies on.
type Worker struct {
	Queue         *Queue
	Wakeup        <-chan struct{}
	Policy        *PolicyTable
	Builder       *sip.Builder
	LocalAccount  sip.Account // the core's own account; AuthenticationEnabled gates step 3
	AccountLookup sip.AccountStore
	Auth          sip.Authenticator
	Devices       sip.DeviceCache
	Bindings      sip.BindingStore
	Hooks         eventbus.EventBus

	MinimumExpiry int
}

// Run drains the queue until ctx is canceled, processing transactions one
// at a time. It returns once the current transaction (if any) has
// finished and no more are queued — in-flight transactions are never
// abandoned mid-response.
func (w *Worker) Run(ctx context.Context) {
	logger := log.GetLogger()
	logger.Info("registrar: worker started")
	defer logger.Info("registrar: worker stopped")

	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			return
		case txn := <-w.Queue.Chan():
			w.process(ctx, txn)
		case <-w.Wakeup:
			w.drainQueue(ctx)
		case <-time.After(wakeupTimeout):
			w.drainQueue(ctx)
		}
	}
}

// drain processes whatever remains in the queue once, without blocking,
// before the worker exits — it never abandons already-queued work, but it
// also never waits indefinitely for new work once shutdown is requested.
func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case txn := <-w.Queue.Chan():
			w.process(ctx, txn)
		default:
			return
		}
	}
}

// drainQueue processes every transaction currently queued without
// blocking for more, then returns control to the select in Run.
func (w *Worker) drainQueue(ctx context.Context) {
	for {
		select {
		case txn := <-w.Queue.Chan():
			w.process(ctx, txn)
		default:
			return
		}
	}
}

// process runs the per-transaction registration pipeline. Any uncaught
// failure is converted to a 500 and logged; nothing propagates past this
// function.
func (w *Worker) process(ctx context.Context, txn sip.Transaction) {
	start := time.Now()
	req := txn.Request()
	logger := log.GetLogger().WithField("call_id", req.CallID)

	result, err := w.pipeline(ctx, txn, req, logger)
	if err != nil {
		logger.WithError(err).Error("registrar: uncaught failure processing REGISTER")
		_ = txn.SendFinalResponse(w.Builder.InternalError(req))
		result = Error
	}

	metrics.WorkerProcessingSeconds.Observe(time.Since(start).Seconds())
	metrics.RegistrationsTotal.WithLabelValues(result.String()).Inc()
	metrics.QueueDepth.Set(float64(w.Queue.Len()))

	w.fireAlarmSubscribe(txn, result)
}

func (w *Worker) pipeline(ctx context.Context, txn sip.Transaction, req *sip.Request, logger log.Logger) (Result, error) {
	// 1. Domain check. Only a missing To-header host is rejected; the host
	// is not compared against a serviced domain. A present host is
	// normalized with idna.Lookup when that succeeds and used unchanged
	// when it does not.
	canonicalDomain := ""
	if req.To != nil {
		canonicalDomain = req.To.Host
	}
	if canonicalDomain == "" {
		_ = txn.SendFinalResponse(w.Builder.DomainNotServiced(req))
		return DomainNotServiced, nil
	}
	if normalized, err := idna.Lookup.ToASCII(canonicalDomain); err == nil {
		canonicalDomain = normalized
	}

	// 2. Synthesize (or look up) the local account.
	account, err := w.resolveAccount(req, canonicalDomain)
	if err != nil {
		return Unknown, fmt.Errorf("resolve account: %w", err)
	}

	// 3. Authentication-disabled short-circuit.
	if !account.AuthenticationEnabled {
		return w.acceptAndFinalize(txn, req, account, logger)
	}

	// 4. Authenticate.
	authResult, err := w.Auth.Authenticate(ctx, txn.Local(), txn.Remote(), req, account, logFunc(logger))
	if err != nil {
		return Unknown, fmt.Errorf("authenticate: %w", err)
	}

	if !authResult.Authenticated {
		if authResult.ErrorResponse == sip.StatusForbidden {
			_ = txn.SendFinalResponse(w.Builder.Forbidden(req, authResult.AuthenticationRequiredHdr))
			return Forbidden, nil
		}
		_ = txn.SendFinalResponse(w.Builder.Unauthorized(req))
		return AuthenticationRequired, nil
	}

	// 5. Authenticated: accept.
	return w.acceptAndFinalize(txn, req, account, logger)
}

// acceptAndFinalize finishes an accepted registration: cache the device,
// persist bindings (or coerce the expiry on persistence failure), send
// 200 OK, and fire the RPC-register hook when authentication was
// bypassed.
func (w *Worker) acceptAndFinalize(txn sip.Transaction, req *sip.Request, account sip.Account, logger log.Logger) (Result, error) {
	if !req.HasContact() {
		_ = txn.SendFinalResponse(w.Builder.OK(req, nil))
		w.cacheDevice(req, account)
		logger.Info("registrar: RegisterSuccess (no contact to bind)")
		if !account.AuthenticationEnabled {
			w.fireRPCRegister(txn, account)
		}
		return Authenticated, nil
	}

	clampContactExpiry(req.Contacts, w.Policy.MaxExpiryFor(req.UserAgent))

	ok, bindings := w.Bindings.Update(*req.To, req.Contacts, req.UserAgent)

	var contacts []sip.Contact
	if ok && w.Policy.ContactListSupportedFor(req.UserAgent) {
		contacts = bindingsToContacts(bindings)
	} else if ok {
		contacts = []sip.Contact{req.Contacts[0]}
	} else {
		// Persistence failure: still 200 OK, but coerce the expiry down
		// to the minimum floor so the device retries promptly.
		coerced := req.Contacts[0]
		coerced.Expires = w.MinimumExpiry
		contacts = []sip.Contact{coerced}
	}

	_ = txn.SendFinalResponse(w.Builder.OK(req, contacts))
	w.cacheDevice(req, account)
	logger.Info("registrar: RegisterSuccess")

	if !account.AuthenticationEnabled {
		w.fireRPCRegister(txn, account)
	}
	return Authenticated, nil
}

// resolveAccount prefers a persistent lookup, delegated to an external
// collaborator, and falls back to synthesizing a fresh account from the
// request's user/domain when no store is wired or the lookup fails.
// AuthenticationEnabled always comes from the core's own LocalAccount — it
// is a property of the registrar, not of any individual REGISTER request.
func (w *Worker) resolveAccount(req *sip.Request, domain string) (sip.Account, error) {
	if w.AccountLookup != nil {
		if acct, err := w.AccountLookup.GetLocalSipAccount(); err == nil {
			acct.AuthenticationEnabled = w.LocalAccount.AuthenticationEnabled
			return acct, nil
		}
	}
	user := ""
	if req.To != nil {
		user = req.To.User
	}
	return sip.SynthesizeAccount(user, domain, w.LocalAccount.AuthenticationEnabled), nil
}

func (w *Worker) cacheDevice(req *sip.Request, account sip.Account) {
	if w.Devices == nil || req.To == nil {
		return
	}
	camera := sip.Camera{DeviceID: req.To.User}
	w.Devices.PlaceIn(req.To.Host, camera)
}

func (w *Worker) fireRPCRegister(txn sip.Transaction, account sip.Account) {
	if w.Hooks == nil {
		return
	}
	req := txn.Request()
	_ = w.Hooks.Publish(&eventbus.Event{
		Topic:  TopicRPCRegister,
		CallID: req.CallID,
		Payload: struct {
			Transaction sip.Transaction
			Account     sip.Account
		}{txn, account},
	})
}

// fireAlarmSubscribe fires the alarm-subscribe hook only after successful
// registrations, not on every transaction — a rejected, challenged, or
// malformed request has no business waking the alarm-subscription path.
func (w *Worker) fireAlarmSubscribe(txn sip.Transaction, result Result) {
	if w.Hooks == nil {
		return
	}
	if result != Authenticated && result != AuthenticatedFromCache {
		return
	}
	req := txn.Request()
	_ = w.Hooks.Publish(&eventbus.Event{
		Topic:   TopicAlarmSubscribe,
		CallID:  req.CallID,
		Payload: txn,
	})
}

// clampContactExpiry caps every contact's requested expiry at the
// per-user-agent policy maximum, so a device can never be granted (or have
// persisted) a longer binding than its matching <useragent> entry allows.
// Expires values below the cap, including the unspecified sentinel -1, are
// left untouched.
func clampContactExpiry(contacts []sip.Contact, maxExpiry uint32) {
	max := int(maxExpiry)
	for i := range contacts {
		if contacts[i].Expires > max {
			contacts[i].Expires = max
		}
	}
}

func bindingsToContacts(bindings []sip.Binding) []sip.Contact {
	out := make([]sip.Contact, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, sip.Contact{URI: b.Contact, Expires: b.Expires})
	}
	return out
}

func logFunc(logger log.Logger) sip.LogHook {
	return func(format string, args ...interface{}) {
		logger.Infof(format, args...)
	}
}
