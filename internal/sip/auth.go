package sip

import "context"

// AuthResult is what the external Authenticator reports back.
type AuthResult struct {
	Authenticated             bool
	ErrorResponse             StatusCode // typically 401 or 403
	AuthenticationRequiredHdr string     // challenge header value, if any
}

// LogHook lets the authenticator emit structured log lines through the
// registrar's own logger without importing it directly.
type LogHook func(format string, args ...interface{})

// Authenticator validates a REGISTER's credentials against account. This
// is the external digest-authentication primitive; its implementation is
// deliberately outside this core.
type Authenticator interface {
	Authenticate(ctx context.Context, local, remote Endpoint, req *Request, account Account, log LogHook) (AuthResult, error)
}
