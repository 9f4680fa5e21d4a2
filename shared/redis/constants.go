// shared/redis/constants.go
package redis

import "fmt"

const (
	// Key constants for cached stats provider responses
	LeaderboardKeyPrefix = "cftools:leaderboard:{%s}:%s:%s:%d" // server, stat, order, limit
	PlayerKeyPrefix      = "cftools:player:{%s}:%s"            // server, cftools id
)

// ErrRedisKeyNotFound is returned by ResponseCache.Get on a miss.
var ErrRedisKeyNotFound = fmt.Errorf("redis key not found")

// LeaderboardKey builds the cache key for one leaderboard query.
func LeaderboardKey(serverID, stat, order string, limit int) string {
	return fmt.Sprintf(LeaderboardKeyPrefix, serverID, stat, order, limit)
}

// PlayerKey builds the cache key for one player details response.
func PlayerKey(serverID, cftoolsID string) string {
	return fmt.Sprintf(PlayerKeyPrefix, serverID, cftoolsID)
}
