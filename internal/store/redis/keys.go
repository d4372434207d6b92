package redis

import "fmt"

const (
	// KeyPrefixDestination is the prefix for destination keys
	KeyPrefixDestination = "itour:destination:"
	// KeyPrefixSight is the prefix for sight keys
	KeyPrefixSight = "itour:sight:"
	// KeyAllDestinations is the set of all destination IDs
	KeyAllDestinations = "itour:destinations:all"
	// KeyAllSights is the set of all sight IDs
	KeyAllSights = "itour:sights:all"
)

// DestinationKey returns the Redis key for a destination by ID
func DestinationKey(id string) string {
	return KeyPrefixDestination + id
}

// SightKey returns the Redis key for a sight by ID
func SightKey(id string) string {
	return KeyPrefixSight + id
}

// ExtractDestinationID extracts the destination ID from a Redis key
func ExtractDestinationID(key string) (string, error) {
	if len(key) <= len(KeyPrefixDestination) || key[:len(KeyPrefixDestination)] != KeyPrefixDestination {
		return "", fmt.Errorf("invalid destination key: %s", key)
	}
	return key[len(KeyPrefixDestination):], nil
}
