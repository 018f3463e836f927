package testing

import (
	"os"
	"sync"

	"github.com/servicehub/sparecrm/internal/app"
)

var once sync.Once

// EnsureTestMode flags the process so entrypoints skip connecting to
// postgres and redis.
func EnsureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SPARECRM_TEST_MODE", "1")
		if os.Getenv("PG_DSN") == "" {
			_ = os.Setenv("PG_DSN", "postgres://127.0.0.1:0/sparecrm")
		}
		app.RefreshTestMode()
	})
}
