package registrar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/gb28181registrar/internal/sip"
)

type fakeTransport struct {
	sent      []*sip.Response
	createErr error
	txn       sip.Transaction
}

func (f *fakeTransport) SendResponse(resp *sip.Response, local, remote sip.Endpoint) error {
	f.sent = append(f.sent, resp)
	return nil
}

func (f *fakeTransport) CreateNonInviteTransaction(req *sip.Request, local, remote sip.Endpoint, outboundProxy *sip.Endpoint) (sip.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.txn != nil {
		return f.txn, nil
	}
	return &recordingTransaction{req: req}, nil
}

func newTestIntake(t *testing.T, transport *fakeTransport, queue *Queue) *Intake {
	t.Helper()
	builder := sip.NewBuilder("gb28181registrar", "gb28181registrar", 0)
	wake := make(chan struct{}, 1)
	return NewIntake(transport, builder, queue, 60, wake)
}

func TestIntake_RejectsMissingTo(t *testing.T) {
	transport := &fakeTransport{}
	intake := newTestIntake(t, transport, NewQueue(4))

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	req.To = nil

	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sip.StatusBadRequest, transport.sent[0].StatusCode)
}

func TestIntake_RejectsMissingToUser(t *testing.T) {
	transport := &fakeTransport{}
	intake := newTestIntake(t, transport, NewQueue(4))

	req := newTestRequest("", "34020000002000000001")

	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sip.StatusBadRequest, transport.sent[0].StatusCode)
}

func TestIntake_RejectsMissingContact(t *testing.T) {
	transport := &fakeTransport{}
	intake := newTestIntake(t, transport, NewQueue(4))

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	req.Contacts = nil

	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sip.StatusBadRequest, transport.sent[0].StatusCode)
}

func TestIntake_RejectsIntervalTooBrief(t *testing.T) {
	transport := &fakeTransport{}
	intake := newTestIntake(t, transport, NewQueue(4))

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	req.Contacts[0].Expires = 10 // below the 60s floor

	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sip.StatusIntervalTooBrief, transport.sent[0].StatusCode)
	assert.Equal(t, "60", transport.sent[0].Headers["Min-Expires"])
}

func TestIntake_AcceptsZeroExpiryAsUnregister(t *testing.T) {
	transport := &fakeTransport{}
	queue := NewQueue(4)
	intake := newTestIntake(t, transport, queue)

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	req.Contacts[0].Expires = 0 // unregister must not be rejected as "too brief"

	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	assert.Empty(t, transport.sent)
	assert.Equal(t, 1, queue.Len())
}

func TestIntake_RejectsWhenQueueFull(t *testing.T) {
	transport := &fakeTransport{}
	queue := NewQueue(1)
	require.NoError(t, queue.Enqueue(&recordingTransaction{req: newTestRequest("x", "y")}))
	intake := newTestIntake(t, transport, queue)

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, sip.StatusTemporarilyUnavail, transport.sent[0].StatusCode)
}

func TestIntake_PropagatesTransportCreateError(t *testing.T) {
	transport := &fakeTransport{createErr: errors.New("boom")}
	intake := newTestIntake(t, transport, NewQueue(4))

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	err := intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req)
	assert.Error(t, err)
}

func TestIntake_EnqueuesValidRequest(t *testing.T) {
	transport := &fakeTransport{}
	queue := NewQueue(4)
	intake := newTestIntake(t, transport, queue)

	req := newTestRequest("34020000001320000001", "34020000002000000001")
	require.NoError(t, intake.HandleRegister(sip.Endpoint{}, sip.Endpoint{}, req))
	assert.Empty(t, transport.sent)
	assert.Equal(t, 1, queue.Len())
}
