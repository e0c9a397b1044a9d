package daemon

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across daemon tests: idleWatcher,
// Serve's accept loop, and the async reindex goroutine cmdNotify spawns
// must all exit once a test's kernel shuts down.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
