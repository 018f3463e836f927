package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "SPARECRM_TEST_MODE"

const (
	testModeUnknown int32 = iota
	testModeOff
	testModeOn
)

var testMode atomic.Int32

// InTestMode reports whether entrypoints should skip connecting to
// postgres, redis and the queue. The flag is read once and cached.
func InTestMode() bool {
	switch testMode.Load() {
	case testModeOn:
		return true
	case testModeOff:
		return false
	default:
		return RefreshTestMode()
	}
}

// RefreshTestMode re-reads SPARECRM_TEST_MODE and returns the new value.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	if on {
		testMode.Store(testModeOn)
	} else {
		testMode.Store(testModeOff)
	}
	return on
}
