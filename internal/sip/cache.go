package sip

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Camera is the minimal device record placed in the device cache on every
// successful REGISTER accept.
type Camera struct {
	DeviceID string
	IP       string
	Port     int
}

// DeviceCache is the external device/camera cache store. The registrar
// treats it as write-only: PlaceIn is invoked on every successful accept;
// read-side lookups belong to other subsystems.
type DeviceCache interface {
	PlaceIn(key string, camera Camera)
}

// Binding is one REGISTER binding: the contact URI and its negotiated
// expiry.
type Binding struct {
	Contact URI
	Expires int
}

// BindingStore is the external persistent-bindings collaborator. Update
// reports whether persistence succeeded; on failure the worker still
// answers 200 OK with a coerced short expiry.
type BindingStore interface {
	Update(aor URI, contacts []Contact, userAgent string) (ok bool, current []Binding)
}

// InMemoryDeviceCache is the reference DeviceCache used when the process
// config wires no external cache. It is explicitly not a durable store —
// just enough to run the registrar standalone, with per-entry TTL
// eviction.
type InMemoryDeviceCache struct {
	cache *gocache.Cache
}

// NewInMemoryDeviceCache creates a cache whose entries expire after ttl
// with background cleanup every cleanupInterval.
func NewInMemoryDeviceCache(ttl, cleanupInterval time.Duration) *InMemoryDeviceCache {
	return &InMemoryDeviceCache{cache: gocache.New(ttl, cleanupInterval)}
}

// PlaceIn implements DeviceCache.
func (c *InMemoryDeviceCache) PlaceIn(key string, camera Camera) {
	c.cache.Set(key, camera, gocache.DefaultExpiration)
}

// Get is a convenience accessor for tests; not part of the DeviceCache
// interface.
func (c *InMemoryDeviceCache) Get(key string) (Camera, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return Camera{}, false
	}
	return v.(Camera), true
}

// InMemoryBindingStore is the reference BindingStore used when no external
// persistence layer is wired. Bindings are keyed by address-of-record.
type InMemoryBindingStore struct {
	cache *gocache.Cache
}

// NewInMemoryBindingStore creates a store whose bindings expire per-entry
// according to the negotiated Contact expiry.
func NewInMemoryBindingStore(cleanupInterval time.Duration) *InMemoryBindingStore {
	return &InMemoryBindingStore{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Update implements BindingStore: it replaces the binding list for aor with
// the contacts just offered. The list is stored as one entry whose TTL is
// the longest Expires among them; individual bindings do not expire on
// their own, and a list with no positive Expires does not expire.
func (s *InMemoryBindingStore) Update(aor URI, contacts []Contact, userAgent string) (bool, []Binding) {
	bindings := make([]Binding, 0, len(contacts))
	for _, c := range contacts {
		bindings = append(bindings, Binding{Contact: c.URI, Expires: c.Expires})
	}

	key := aor.String()
	ttl := gocache.DefaultExpiration
	if longest := longestExpiry(bindings); longest > 0 {
		ttl = time.Duration(longest) * time.Second
	}
	s.cache.Set(key, bindings, ttl)
	return true, bindings
}

func longestExpiry(bindings []Binding) int {
	max := 0
	for _, b := range bindings {
		if b.Expires > max {
			max = b.Expires
		}
	}
	return max
}

// BindingExpiry resolves the expiry to echo back to the client. A nil
// slice and an empty slice both mean "no current bindings" — the
// correct condition is bindings != nil && len(bindings) > 0, not a bare
// nil check that would let an empty, non-nil slice through to bindings[0].
func BindingExpiry(bindings []Binding, fallback int) int {
	if bindings != nil && len(bindings) > 0 {
		return bindings[0].Expires
	}
	return fallback
}
