package registrar

import (
	"fmt"

	"github.com/rs/xid"

	"firestige.xyz/gb28181registrar/internal/log"
	"firestige.xyz/gb28181registrar/internal/metrics"
	"firestige.xyz/gb28181registrar/internal/sip"
)

// Intake performs synchronous fast-path validation of inbound REGISTER
// requests: reject malformed or over-frequent requests directly, and
// enqueue everything else for the Worker.
type Intake struct {
	Transport     sip.Transport
	Builder       *sip.Builder
	Queue         *Queue
	MinimumExpiry int
	Woken         chan<- struct{} // signals the worker; send is non-blocking
}

// NewIntake wires an Intake against the shared queue, transport, and
// response builder.
func NewIntake(transport sip.Transport, builder *sip.Builder, queue *Queue, minimumExpiry int, wake chan<- struct{}) *Intake {
	return &Intake{
		Transport:     transport,
		Builder:       builder,
		Queue:         queue,
		MinimumExpiry: minimumExpiry,
		Woken:         wake,
	}
}

// HandleRegister validates and, on success, enqueues req for the Worker.
// Method filtering (non-REGISTER requests are not this component's
// responsibility) is a precondition the caller is expected to enforce.
func (i *Intake) HandleRegister(local, remote sip.Endpoint, req *sip.Request) error {
	logger := log.GetLogger().WithField("call_id", req.CallID)

	if req.To == nil {
		return i.reject(local, remote, req, i.Builder.BadRequest(req, "Missing To header"), "missing_to", logger)
	}
	if req.To.User == "" {
		return i.reject(local, remote, req, i.Builder.BadRequest(req, "Missing username on To header"), "missing_to_user", logger)
	}
	if !req.HasContact() {
		return i.reject(local, remote, req, i.Builder.BadRequest(req, "Missing Contact header"), "missing_contact", logger)
	}

	requestedExpiry := req.FirstContactExpiry()
	if requestedExpiry > 0 && requestedExpiry < i.MinimumExpiry {
		return i.reject(local, remote, req, i.Builder.IntervalTooBrief(req, i.MinimumExpiry), "interval_too_brief", logger)
	}

	if i.Queue.Len() >= QueueCapacity {
		logger.Warn("registrar: queue full, rejecting REGISTER")
		return i.reject(local, remote, req, i.Builder.Overloaded(req), "queue_full", logger)
	}

	txn, err := i.Transport.CreateNonInviteTransaction(req, local, remote, nil)
	if err != nil {
		return fmt.Errorf("registrar: create transaction: %w", err)
	}

	// txn_id is an opaque tracking ID, distinct from the wire-visible
	// To-tag, added to Intake's own log lines for this request. It is not
	// stored on the queued transaction, so Worker's log lines do not carry
	// it.
	logger = logger.WithField("txn_id", xid.New().String())

	if err := i.Queue.Enqueue(txn); err != nil {
		logger.Warn("registrar: queue full at enqueue, rejecting REGISTER")
		return i.reject(local, remote, req, i.Builder.Overloaded(req), "queue_full", logger)
	}
	logger.Debug("registrar: REGISTER enqueued")

	metrics.QueueDepth.Set(float64(i.Queue.Len()))

	select {
	case i.Woken <- struct{}{}:
	default:
		// Worker is already awake or will re-check the queue on its own
		// bounded wait; a missed wakeup is never fatal.
	}

	return nil
}

func (i *Intake) reject(local, remote sip.Endpoint, req *sip.Request, resp *sip.Response, reason string, logger log.Logger) error {
	logger.WithField("status", int(resp.StatusCode)).Info("registrar: rejecting REGISTER at intake")
	metrics.IntakeRejectionsTotal.WithLabelValues(reason).Inc()
	return i.Transport.SendResponse(resp, local, remote)
}
