package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltar-ua/Uncoder-IO/xerrors"
)

func TestBuildFreezesRegistrationsAndIsIndependentOfBuilder(t *testing.T) {
	b := NewBuilder()
	b.Register("splunk", Platform{Details: PlatformDetails{Name: "Splunk"}})

	r := b.Build()
	b.Register("sentinel", Platform{Details: PlatformDetails{Name: "Sentinel"}})

	assert.Len(t, r.EnumeratePlatforms(), 1, "registering on the builder after Build must not affect the frozen registry")
}

func TestRegisterReplacesWithoutDuplicatingOrder(t *testing.T) {
	b := NewBuilder()
	b.Register("splunk", Platform{Details: PlatformDetails{Name: "Splunk v1"}})
	b.Register("sentinel", Platform{Details: PlatformDetails{Name: "Sentinel"}})
	b.Register("splunk", Platform{Details: PlatformDetails{Name: "Splunk v2"}})

	r := b.Build()
	details := r.EnumeratePlatforms()
	require.Len(t, details, 2)
	assert.Equal(t, "splunk", r.order[0])
	assert.Equal(t, "Splunk v2", details[0].Name)
}

func TestCapabilityLookupMissReturnsUnsupportedPlatform(t *testing.T) {
	r := NewBuilder().Build()

	_, err := r.QueryRenderer("nonexistent")
	require.Error(t, err)
	coreErr, ok := err.(*xerrors.CoreError)
	require.True(t, ok)
	assert.Equal(t, xerrors.KindUnsupportedPlatform, coreErr.Kind)
}

func TestCapabilityLookupMissWhenPlatformExistsButCapabilityNil(t *testing.T) {
	b := NewBuilder()
	b.Register("fortisiem", Platform{Details: PlatformDetails{Name: "FortiSIEM"}})
	r := b.Build()

	_, err := r.QueryRenderer("fortisiem")
	require.Error(t, err, "a registered platform missing a capability must still report UnsupportedPlatform")

	_, err = r.RuleParser("fortisiem")
	assert.Error(t, err)
}

func TestEnumeratePlatformsPreservesRegistrationOrder(t *testing.T) {
	b := NewBuilder()
	names := []string{"sigma", "splunk", "sentinel", "qradar"}
	for _, n := range names {
		b.Register(n, Platform{Details: PlatformDetails{Name: n}})
	}
	r := b.Build()

	var got []string
	for _, d := range r.EnumeratePlatforms() {
		got = append(got, d.Name)
	}
	assert.Equal(t, names, got)
}
