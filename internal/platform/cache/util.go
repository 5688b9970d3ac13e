package cache

import (
	"time"
)

// TimeUntilNextRefresh は now から次の loc における hour 時までの期間を返します。
// hour ちょうどの場合は翌日の hour 時までを返します。
func TimeUntilNextRefresh(now time.Time, hour int, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}
