package clock

import "time"

// Clock abstracts wall time so billing windows stay testable.
type Clock interface {
	Now() time.Time
}
