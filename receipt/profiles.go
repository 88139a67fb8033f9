package receipt

import "time"

// Profile is a closed enumeration of the verification profiles defined by
// spec.md §4.2.3. Profile strings are not validated: CreateReceipt stamps
// the DEFAULT version tag for any profile outside the three below, and
// Verify treats an empty verifier profile as DEFAULT.
type Profile string

const (
	ProfileLite    Profile = "LITE"
	ProfileDefault Profile = "DEFAULT"
	ProfileStrict  Profile = "STRICT"
)

// thresholds holds the per-profile verification parameters of spec.md's
// §4.2.3 table.
type thresholds struct {
	maxAge        time.Duration
	maxSkew       time.Duration
	requirePolicy bool
	requireLog    bool
}

var profileThresholds = map[Profile]thresholds{
	ProfileLite:    {maxAge: 7 * 24 * time.Hour, maxSkew: 15 * time.Minute, requirePolicy: false, requireLog: false},
	ProfileDefault: {maxAge: 24 * time.Hour, maxSkew: 5 * time.Minute, requirePolicy: false, requireLog: false},
	ProfileStrict:  {maxAge: 1 * time.Hour, maxSkew: 1 * time.Minute, requirePolicy: true, requireLog: true},
}

// ordinal gives profiles a strictness order so the "stricter of signer and
// verifier" rule (spec.md §4.2.3) can be computed with a max().
var profileOrdinal = map[Profile]int{
	ProfileLite:    0,
	ProfileDefault: 1,
	ProfileStrict:  2,
}

// versionProfile maps a receipt's version tag to the profile the signer
// targeted. Any version not in this table is unknown and rejected by
// Verify with SCHEMA_UNKNOWN_VERSION.
var versionProfile = map[string]Profile{
	"TECP-0.1-LITE":   ProfileLite,
	"TECP-0.1":        ProfileDefault,
	"TECP-0.1-STRICT": ProfileStrict,
}

// profileVersion is the inverse of versionProfile, used by CreateReceipt to
// stamp the right version tag for the profile the caller targets.
var profileVersion = map[Profile]string{
	ProfileLite:    "TECP-0.1-LITE",
	ProfileDefault: "TECP-0.1",
	ProfileStrict:  "TECP-0.1-STRICT",
}

// stricter returns whichever profile has the higher ordinal. Ties resolve
// to a, which matters only when a == b.
func stricter(a, b Profile) Profile {
	if profileOrdinal[b] > profileOrdinal[a] {
		return b
	}
	return a
}

// KnownVersion reports whether v is a recognized version tag and, if so,
// the profile it targets.
func KnownVersion(v string) (Profile, bool) {
	p, ok := versionProfile[v]
	return p, ok
}
