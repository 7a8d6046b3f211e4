package sip

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusCode is a SIP response status code.
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusForbidden           StatusCode = 403
	StatusUnauthorized        StatusCode = 401
	StatusIntervalTooBrief    StatusCode = 423
	StatusTemporarilyUnavail  StatusCode = 480
	StatusServerInternalError StatusCode = 500
)

// Response is the outbound SIP message the Response Builder constructs.
// It echoes the request's core headers and carries any extra header set
// the builder attaches (Min-Expires, WWW-Authenticate, Date, Contact).
type Response struct {
	StatusCode  StatusCode
	Reason      string
	Via         []string
	From        string
	To          string // includes a fresh tag if the request's To had none
	CallID      string
	CSeq        int
	CSeqMethod  string
	UserAgent   string
	MaxForwards int
	Headers     map[string]string
	Contacts    []Contact
}

// Builder constructs SIP responses that preserve standard header
// semantics: Via/From/To/Call-ID/CSeq/CSeqMethod echoed, a fresh To-tag
// minted when absent, a fixed server User-Agent, Max-Forwards reset to a
// sentinel floor, and (for 401s) a fresh digest challenge.
type Builder struct {
	ServerAgent      string
	Realm            string
	MaxForwardsFloor int
}

// NewBuilder constructs a Builder. maxForwardsFloor is the sentinel value
// Max-Forwards is reset to on every response; 0 is the conventional
// registrar floor since a REGISTER response is never forwarded further.
func NewBuilder(serverAgent, realm string, maxForwardsFloor int) *Builder {
	return &Builder{ServerAgent: serverAgent, Realm: realm, MaxForwardsFloor: maxForwardsFloor}
}

func (b *Builder) base(req *Request, code StatusCode, reason string) *Response {
	to := ""
	if req.To != nil {
		to = req.To.String()
	}
	to = ensureTag(to)

	return &Response{
		StatusCode:  code,
		Reason:      reason,
		Via:         req.Via,
		From:        req.From,
		To:          to,
		CallID:      req.CallID,
		CSeq:        req.CSeq,
		CSeqMethod:  req.CSeqMethod,
		UserAgent:   b.ServerAgent,
		MaxForwards: b.MaxForwardsFloor,
		Headers:     make(map[string]string),
	}
}

// OK builds a 200 OK, optionally attaching Contact bindings and a Date
// header.
func (b *Builder) OK(req *Request, contacts []Contact) *Response {
	resp := b.base(req, StatusOK, "OK")
	resp.Contacts = contacts
	resp.Headers["Date"] = time.Now().UTC().Format(time.RFC1123)
	return resp
}

// BadRequest builds a 400 with the given reason string (e.g. "Missing To
// header", "Missing username on To header", "Missing Contact header").
func (b *Builder) BadRequest(req *Request, reason string) *Response {
	return b.base(req, StatusBadRequest, reason)
}

// IntervalTooBrief builds a 423 carrying Min-Expires.
func (b *Builder) IntervalTooBrief(req *Request, minExpiry int) *Response {
	resp := b.base(req, StatusIntervalTooBrief, "Interval Too Brief")
	resp.Headers["Min-Expires"] = fmt.Sprintf("%d", minExpiry)
	return resp
}

// Overloaded builds a 480 when the register queue is full.
func (b *Builder) Overloaded(req *Request) *Response {
	return b.base(req, StatusTemporarilyUnavail, "Registrar overloaded, please try again shortly")
}

// DomainNotServiced builds a 403 for an unresolvable To-host.
func (b *Builder) DomainNotServiced(req *Request) *Response {
	return b.base(req, StatusForbidden, "Domain not serviced")
}

// Forbidden builds a 403 carrying the authenticator's challenge header.
func (b *Builder) Forbidden(req *Request, challenge string) *Response {
	resp := b.base(req, StatusForbidden, "Forbidden")
	if challenge != "" {
		resp.Headers["WWW-Authenticate"] = challenge
	}
	return resp
}

// Unauthorized builds a 401 with a fresh WWW-Authenticate nonce.
func (b *Builder) Unauthorized(req *Request) *Response {
	resp := b.base(req, StatusUnauthorized, "Unauthorized")
	resp.Headers["WWW-Authenticate"] = fmt.Sprintf(
		`Digest realm="%s", nonce="%s", algorithm=MD5, qop="auth"`, b.Realm, freshNonce())
	return resp
}

// InternalError builds a 500 for uncaught worker failures.
func (b *Builder) InternalError(req *Request) *Response {
	return b.base(req, StatusServerInternalError, "Internal Server Error")
}

// freshNonce mints a single-use server nonce for a digest challenge.
func freshNonce() string {
	return uuid.NewString()
}

// ensureTag appends a fresh To-tag if to carries none yet.
func ensureTag(to string) string {
	if to == "" || strings.Contains(to, ";tag=") {
		return to
	}
	return fmt.Sprintf("%s;tag=%s", to, uuid.NewString())
}
