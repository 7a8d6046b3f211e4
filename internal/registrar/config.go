package registrar

// Config collects the registrar's own tunables, distinct from the
// process-wide YAML config in internal/config — a small set of
// near-constant values plus the handful that are implementation
// configurable (the minimum expiry floor).
type Config struct {
	// MinimumExpiry is the expiry floor, default 60s.
	MinimumExpiry int
	// QueueCapacity bounds the register queue, default 1000.
	QueueCapacity int
	// ServerAgent is the fixed User-Agent header value.
	ServerAgent string
	// Realm is used to build WWW-Authenticate challenges.
	Realm string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MinimumExpiry: 60,
		QueueCapacity: QueueCapacity,
		ServerAgent:   "gb28181registrar",
		Realm:         "gb28181registrar",
	}
}
