package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "CAMPUS_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
})

// InTestMode reports whether the binaries should return before touching
// Postgres, Redis or the network listener. The flag is read once.
func InTestMode() bool {
	return testMode()
}
