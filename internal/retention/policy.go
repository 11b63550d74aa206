package retention

import "strings"

// Jurisdiction is the coarse legal region driving retention-period
// selection.
type Jurisdiction string

const (
	JurisdictionUS    Jurisdiction = "US"
	JurisdictionCA    Jurisdiction = "CA"
	JurisdictionEU    Jurisdiction = "EU"
	JurisdictionOther Jurisdiction = "OTHER"
)

// EU member-state country codes.
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// JurisdictionFrom maps a geolocation country code to a jurisdiction,
// falling back to OTHER when absent or unrecognized.
func JurisdictionFrom(countryCode string) Jurisdiction {
	switch code := strings.ToUpper(strings.TrimSpace(countryCode)); {
	case code == "US":
		return JurisdictionUS
	case code == "CA":
		return JurisdictionCA
	default:
		if _, ok := euMembers[code]; ok {
			return JurisdictionEU
		}
		return JurisdictionOther
	}
}

// Retention windows in days, by jurisdiction and data type.
var retentionDays = map[Jurisdiction]map[string]int{
	JurisdictionUS:    {"personal": 2555, "anonymized": 1825, "aggregated": 3650},
	JurisdictionCA:    {"personal": 2555, "anonymized": 1825, "aggregated": 3650},
	JurisdictionEU:    {"personal": 1095, "anonymized": 1825, "aggregated": 3650},
	JurisdictionOther: {"personal": 1825, "anonymized": 1825, "aggregated": 3650},
}

// PeriodFor returns the retention window in days. Unknown combinations
// fall back to the OTHER/personal window, the shortest general policy.
func PeriodFor(jurisdiction Jurisdiction, dataType string) int {
	table, ok := retentionDays[jurisdiction]
	if !ok {
		table = retentionDays[JurisdictionOther]
	}
	if days, ok := table[dataType]; ok {
		return days
	}
	return retentionDays[JurisdictionOther]["personal"]
}
