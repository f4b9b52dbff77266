package cache

// RequestKey derives the cache key for a request from its path and raw query
// string. The raw query is used verbatim, so parameter order matters: two
// requests whose query strings differ by even one character cache
// independently. Identical path+query always produces the same key.
//
// Example:
//
//	RequestKey("/api/v1/graph/users", "top=10") == "/api/v1/graph/users?top=10"
//
// The store adds its namespace prefix before the key reaches Redis.
func RequestKey(path, rawQuery string) string {
	return path + "?" + rawQuery
}
