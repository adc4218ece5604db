package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLExpirations = 12 * time.Hour   // listed expirations change at most daily
	TTLHistory     = 6 * time.Hour    // daily bars; only the last one moves intraday
	TTLChain       = 15 * time.Minute // bid/ask drift, but a chain fetch is expensive
	TTLQuote       = time.Minute
)
