package clock

import "time"

// Clock supplies the current instant. The ban tracker and login service
// take a Clock rather than calling time.Now so timing behavior is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }
