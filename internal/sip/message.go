// Package sip defines the narrow set of SIP data shapes and external
// collaborator interfaces the registrar core depends on.
//
// Parsing, transport I/O, transaction retransmission, and digest
// authentication are explicitly out of scope and live behind the
// interfaces in this package; the registrar only ever touches the fields
// and methods declared here.
package sip

import "fmt"

// URI is the minimal address-of-record shape the registrar inspects: the
// user part (To.uri.user) and the host part (To.uri.host / domain).
type URI struct {
	User string
	Host string
	Port int
}

func (u URI) String() string {
	if u.User == "" {
		return u.Host
	}
	return fmt.Sprintf("sip:%s@%s", u.User, u.Host)
}

// Contact is one binding offered by the device: its URI and the expiry it
// requested (in seconds; -1 means unspecified at this Contact).
type Contact struct {
	URI     URI
	Expires int
	Qvalue  float64
}

// Request is the parsed view of an inbound SIP request the transport hands
// to Register Intake. Header folding, wire formatting, and transaction
// retransmission are the transport's concern, not this package's.
type Request struct {
	Method      string
	RequestURI  URI
	Via         []string
	From        string
	To          *URI // nil means "no To header"
	CallID      string
	CSeq        int
	CSeqMethod  string
	UserAgent   string
	Contacts    []Contact
	Expires     int // top-level Expires header; -1 if absent
	MaxForwards int
}

// FirstContactExpiry returns the expiry carried by the first Contact header
// if present, else the request's top-level Expires header, else -1
// (unspecified).
func (r *Request) FirstContactExpiry() int {
	if len(r.Contacts) > 0 && r.Contacts[0].Expires >= 0 {
		return r.Contacts[0].Expires
	}
	if r.Expires >= 0 {
		return r.Expires
	}
	return -1
}

// HasContact reports whether the request carries at least one Contact
// header.
func (r *Request) HasContact() bool {
	return len(r.Contacts) > 0
}
