package registrar

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"

	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultMaxExpiry is used when no policy entry matches a user-agent.
	DefaultMaxExpiry = 3600
	// DefaultContactListSupported is used when no policy entry matches.
	DefaultContactListSupported = true
)

// PolicyEntry is one <useragent> rule.
type PolicyEntry struct {
	Pattern              *regexp.Regexp
	MaxExpirySeconds     uint32
	ContactListSupported bool
}

// PolicyTable answers, for a given user-agent string, the maximum
// permitted REGISTER expiry and whether the full binding list should be
// echoed in the response. Built once at startup from the ordered XML
// document and immutable thereafter; lookup is first-match and that
// evaluation order is part of the contract.
type PolicyTable struct {
	entries []PolicyEntry

	defaultMaxExpiry    uint32
	defaultContactLists bool
}

// NewPolicyTable wraps an already-built entry slice (primarily for tests).
func NewPolicyTable(entries []PolicyEntry) *PolicyTable {
	return &PolicyTable{
		entries:             entries,
		defaultMaxExpiry:    DefaultMaxExpiry,
		defaultContactLists: DefaultContactListSupported,
	}
}

// PolicyOverrides carries deployment-specific fallback defaults, decoded
// from the process config's free-form `policy.overrides` map rather than
// a fixed struct — operators may set either field, both, or neither.
type PolicyOverrides struct {
	DefaultMaxExpirySeconds     *uint32 `mapstructure:"default_max_expiry_seconds"`
	DefaultContactListSupported *bool   `mapstructure:"default_contact_list_supported"`
}

// DecodePolicyOverrides decodes a loosely-typed config map (as viper
// parses `policy.overrides` out of YAML) into a PolicyOverrides struct.
func DecodePolicyOverrides(raw map[string]interface{}) (PolicyOverrides, error) {
	var out PolicyOverrides
	if raw == nil {
		return out, nil
	}
	if err := mapstructure.Decode(raw, &out); err != nil {
		return out, fmt.Errorf("registrar: decode policy overrides: %w", err)
	}
	return out, nil
}

// ApplyOverrides rewrites the table's no-match fallback thresholds from
// the decoded overrides. Fields left nil in o are left untouched.
func (t *PolicyTable) ApplyOverrides(o PolicyOverrides) {
	if o.DefaultMaxExpirySeconds != nil {
		t.defaultMaxExpiry = *o.DefaultMaxExpirySeconds
	}
	if o.DefaultContactListSupported != nil {
		t.defaultContactLists = *o.DefaultContactListSupported
	}
}

// xmlConfig mirrors the policy document's wire format:
//
//	<useragentconfigs>
//	  <useragent expiry='3600' contactlists='false' agent='fring'/>
//	</useragentconfigs>
type xmlConfig struct {
	XMLName    xml.Name       `xml:"useragentconfigs"`
	UserAgents []xmlUseragent `xml:"useragent"`
}

type xmlUseragent struct {
	Expiry       uint32 `xml:"expiry,attr"`
	ContactLists *bool  `xml:"contactlists,attr"`
	Agent        string `xml:"agent,attr"`
}

// LoadPolicyXML parses the user-agent policy document at path into an
// immutable PolicyTable. contactlists defaults to true when the attribute
// is omitted.
func LoadPolicyXML(path string) (*PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registrar: read policy file %s: %w", path, err)
	}
	return ParsePolicyXML(data)
}

// ParsePolicyXML parses an in-memory XML document into a PolicyTable.
func ParsePolicyXML(data []byte) (*PolicyTable, error) {
	var cfg xmlConfig
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("registrar: parse policy xml: %w", err)
	}

	entries := make([]PolicyEntry, 0, len(cfg.UserAgents))
	for _, ua := range cfg.UserAgents {
		pattern, err := regexp.Compile("(?i)" + ua.Agent)
		if err != nil {
			return nil, fmt.Errorf("registrar: compile useragent pattern %q: %w", ua.Agent, err)
		}
		contactLists := DefaultContactListSupported
		if ua.ContactLists != nil {
			contactLists = *ua.ContactLists
		}
		entries = append(entries, PolicyEntry{
			Pattern:              pattern,
			MaxExpirySeconds:     ua.Expiry,
			ContactListSupported: contactLists,
		})
	}
	return &PolicyTable{
		entries:             entries,
		defaultMaxExpiry:    DefaultMaxExpiry,
		defaultContactLists: DefaultContactListSupported,
	}, nil
}

// MaxExpiryFor returns the first-match entry's MaxExpirySeconds, else the
// table's default (DefaultMaxExpiry unless overridden).
func (t *PolicyTable) MaxExpiryFor(userAgent string) uint32 {
	if e := t.match(userAgent); e != nil {
		return e.MaxExpirySeconds
	}
	return t.defaultMaxExpiry
}

// ContactListSupportedFor returns the first-match entry's
// ContactListSupported flag, else the table's default
// (DefaultContactListSupported unless overridden).
func (t *PolicyTable) ContactListSupportedFor(userAgent string) bool {
	if e := t.match(userAgent); e != nil {
		return e.ContactListSupported
	}
	return t.defaultContactLists
}

// Len reports how many policy entries were loaded, for the validate
// command and diagnostics.
func (t *PolicyTable) Len() int {
	return len(t.entries)
}

func (t *PolicyTable) match(userAgent string) *PolicyEntry {
	for i := range t.entries {
		if t.entries[i].Pattern.MatchString(userAgent) {
			return &t.entries[i]
		}
	}
	return nil
}
