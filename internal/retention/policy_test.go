package retention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJurisdictionFrom(t *testing.T) {
	tests := []struct {
		code string
		want Jurisdiction
	}{
		{"US", JurisdictionUS},
		{"us", JurisdictionUS},
		{" CA ", JurisdictionCA},
		{"DE", JurisdictionEU},
		{"FR", JurisdictionEU},
		{"SE", JurisdictionEU},
		{"GB", JurisdictionOther},
		{"BR", JurisdictionOther},
		{"", JurisdictionOther},
		{"XX", JurisdictionOther},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, JurisdictionFrom(tc.code), tc.code)
	}
}

func TestPeriodFor(t *testing.T) {
	assert.Equal(t, 2555, PeriodFor(JurisdictionUS, "personal"))
	assert.Equal(t, 2555, PeriodFor(JurisdictionCA, "personal"))
	assert.Equal(t, 1095, PeriodFor(JurisdictionEU, "personal"))
	assert.Equal(t, 1825, PeriodFor(JurisdictionOther, "personal"))

	assert.Equal(t, 1825, PeriodFor(JurisdictionEU, "anonymized"))
	assert.Equal(t, 3650, PeriodFor(JurisdictionUS, "aggregated"))

	// Unknown combinations fall back to the shortest general policy.
	assert.Equal(t, 1825, PeriodFor(Jurisdiction("MARS"), "personal"))
	assert.Equal(t, 1825, PeriodFor(JurisdictionUS, "telemetry"))
}
