package sip

import "net"

// Endpoint is a local or remote transport address, as handed to Intake by
// the SIP transport.
type Endpoint struct {
	Addr     net.IP
	Port     int
	Protocol string // "UDP" or "TCP"
}

// Transaction is the opaque non-INVITE transaction the transport creates
// for one inbound REGISTER. The registrar core only ever calls
// SendFinalResponse and reads Request/Local/Remote — everything else
// (retransmission, wire formatting) is the transport's concern.
type Transaction interface {
	Request() *Request
	Local() Endpoint
	Remote() Endpoint
	SendFinalResponse(resp *Response) error
}

// Transport is the external SIP transport collaborator. The registrar
// never parses wire bytes or manages retransmission itself.
type Transport interface {
	SendResponse(resp *Response, local, remote Endpoint) error
	CreateNonInviteTransaction(req *Request, local, remote Endpoint, outboundProxy *Endpoint) (Transaction, error)
}
