// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix is the prefix used for Redis hash keys that store
	// instance registration data. The full key format is "instances:<serviceType>".
	RedisRegistryHashPrefix = "instances:"

	// ServiceType is the registry type every bot process registers under.
	ServiceType = "dayz-bot"
)

func hashKey(serviceType string) string {
	return RedisRegistryHashPrefix + serviceType
}
