package registrar

import (
	"context"

	"firestige.xyz/gb28181registrar/internal/sip"
)

// PermissiveAuthenticator accepts every REGISTER without checking
// credentials. It exists only so `serve` can start in a default
// configuration with no external authenticator wired — any deployment
// that needs real digest authentication must supply its own
// sip.Authenticator.
type PermissiveAuthenticator struct{}

// Authenticate implements sip.Authenticator.
func (PermissiveAuthenticator) Authenticate(ctx context.Context, local, remote sip.Endpoint, req *sip.Request, account sip.Account, log sip.LogHook) (sip.AuthResult, error) {
	log("registrar: permissive authenticator accepting %s from %s", req.CallID, remote.Addr)
	return sip.AuthResult{Authenticated: true}, nil
}
