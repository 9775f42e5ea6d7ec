package main

// shortID returns a truncated identifier for logging (first 8 chars).
// Example: "550e8400-e29b-41d4-a716-446655440000" -> "550e8400"
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
