package utils

// fingerprintEnds is how many characters Fingerprint keeps at each end.
const fingerprintEnds = 8

// Fingerprint shortens a hex key for display, keeping both ends so keys
// stay distinguishable: "4d2b4c3b...3a2f1e0d".
func Fingerprint(key string) string {
	if len(key) <= 2*fingerprintEnds+3 {
		return key
	}
	return key[:fingerprintEnds] + "..." + key[len(key)-fingerprintEnds:]
}
