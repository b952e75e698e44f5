package redis

const (
	// KeyPrefixSeen is the prefix for fingerprints submitted recently
	KeyPrefixSeen = "jobscout:seen:"
	// KeyPrefixLease is the prefix for cross-instance leases
	KeyPrefixLease = "jobscout:lease:"
	// LeaseCycle guards the polling cycle
	LeaseCycle = "cycle"
)

// SeenKey returns the Redis key for a content fingerprint
func SeenKey(fingerprint string) string {
	return KeyPrefixSeen + fingerprint
}

// LeaseKey returns the Redis key for a named lease
func LeaseKey(name string) string {
	return KeyPrefixLease + name
}
