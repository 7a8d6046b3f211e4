package registrar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyXML_FirstMatchWins(t *testing.T) {
	doc := []byte(`<useragentconfigs>
		<useragent expiry="1800" contactlists="false" agent="fring"/>
		<useragent expiry="3600" contactlists="true" agent=".*"/>
	</useragentconfigs>`)

	table, err := ParsePolicyXML(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	assert.EqualValues(t, 1800, table.MaxExpiryFor("Fring/2.1"))
	assert.False(t, table.ContactListSupportedFor("Fring/2.1"))

	assert.EqualValues(t, 3600, table.MaxExpiryFor("some-other-agent"))
	assert.True(t, table.ContactListSupportedFor("some-other-agent"))
}

func TestParsePolicyXML_ContactListsDefaultsToTrueWhenOmitted(t *testing.T) {
	doc := []byte(`<useragentconfigs>
		<useragent expiry="900" agent="probe"/>
	</useragentconfigs>`)

	table, err := ParsePolicyXML(doc)
	require.NoError(t, err)
	assert.True(t, table.ContactListSupportedFor("probe-device"))
}

func TestPolicyTable_NoMatchFallsBackToDefaults(t *testing.T) {
	table := NewPolicyTable(nil)
	assert.EqualValues(t, DefaultMaxExpiry, table.MaxExpiryFor("anything"))
	assert.Equal(t, DefaultContactListSupported, table.ContactListSupportedFor("anything"))
}

func TestParsePolicyXML_InvalidPatternErrors(t *testing.T) {
	doc := []byte(`<useragentconfigs>
		<useragent expiry="900" agent="(unterminated"/>
	</useragentconfigs>`)

	_, err := ParsePolicyXML(doc)
	assert.Error(t, err)
}

func TestParsePolicyXML_MatchIsCaseInsensitive(t *testing.T) {
	doc := []byte(`<useragentconfigs>
		<useragent expiry="1800" agent="fring"/>
	</useragentconfigs>`)

	table, err := ParsePolicyXML(doc)
	require.NoError(t, err)
	assert.EqualValues(t, 1800, table.MaxExpiryFor("FRING-CAMERA"))
}

func TestDecodePolicyOverrides_DecodesLooselyTypedMap(t *testing.T) {
	raw := map[string]interface{}{
		"default_max_expiry_seconds":     uint32(7200),
		"default_contact_list_supported": false,
	}

	overrides, err := DecodePolicyOverrides(raw)
	require.NoError(t, err)
	require.NotNil(t, overrides.DefaultMaxExpirySeconds)
	assert.EqualValues(t, 7200, *overrides.DefaultMaxExpirySeconds)
	require.NotNil(t, overrides.DefaultContactListSupported)
	assert.False(t, *overrides.DefaultContactListSupported)
}

func TestDecodePolicyOverrides_NilMapYieldsZeroValue(t *testing.T) {
	overrides, err := DecodePolicyOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, overrides.DefaultMaxExpirySeconds)
	assert.Nil(t, overrides.DefaultContactListSupported)
}

func TestPolicyTable_ApplyOverrides_RewritesNoMatchFallback(t *testing.T) {
	table := NewPolicyTable(nil)
	assert.EqualValues(t, DefaultMaxExpiry, table.MaxExpiryFor("anything"))

	maxExpiry := uint32(120)
	table.ApplyOverrides(PolicyOverrides{DefaultMaxExpirySeconds: &maxExpiry})

	assert.EqualValues(t, 120, table.MaxExpiryFor("anything"))
	assert.Equal(t, DefaultContactListSupported, table.ContactListSupportedFor("anything"), "unset override field leaves the default untouched")
}
