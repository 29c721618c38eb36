package model

// regionAliases maps the portal's region identifiers (both numeric run codes
// and the REGIONID form) to display names. Unknown identifiers pass through
// unchanged.
var regionAliases = map[string]string{
	"1":    "NSW",
	"2":    "VIC",
	"3":    "QLD",
	"4":    "SA",
	"5":    "TAS",
	"NSW1": "NSW",
	"VIC1": "VIC",
	"QLD1": "QLD",
	"SA1":  "SA",
	"TAS1": "TAS",
}

// Regions lists the five NEM market regions in display form.
var Regions = []string{"NSW", "VIC", "QLD", "SA", "TAS"}

// NormalizeRegion maps a portal region identifier to its display name.
func NormalizeRegion(id string) string {
	if r, ok := regionAliases[id]; ok {
		return r
	}
	return id
}

// ValidRegion reports whether region is one of the five display names.
func ValidRegion(region string) bool {
	for _, r := range Regions {
		if r == region {
			return true
		}
	}
	return false
}
