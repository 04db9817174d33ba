package contract

const (
	secondsPerDay = 86400
	millisPerDay  = secondsPerDay * 1000

	// Timestamps at or above this magnitude are taken to be milliseconds;
	// below it, seconds. The boundary sits around the year 5138 in seconds
	// and 1973 in milliseconds, far clear of any forecast date.
	millisCutoff = int64(100_000_000_000)
)

// NormalizeDateSeconds floors a seconds-since-epoch timestamp to the start of
// the UTC calendar day containing it. Every instant within one UTC day maps
// to the same value, and the function is idempotent.
func NormalizeDateSeconds(sec int64) int64 {
	return sec - floorMod(sec, secondsPerDay)
}

// NormalizeDateMillis is NormalizeDateSeconds for millisecond timestamps,
// the unit used everywhere outside the store.
func NormalizeDateMillis(ms int64) int64 {
	return ms - floorMod(ms, millisPerDay)
}

// ToSeconds accepts a timestamp in either seconds or milliseconds and
// returns seconds. Write rows historically arrived in both units; the data
// layer normalizes at the boundary so the store only ever sees seconds.
func ToSeconds(ts int64) int64 {
	if ts >= millisCutoff || ts <= -millisCutoff {
		return ts / 1000
	}
	return ts
}

func floorMod(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}
