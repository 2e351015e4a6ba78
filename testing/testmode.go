// Package testing is imported for its side effects by test binaries: it flags
// test mode so the command entrypoints exit before dialing Postgres or Redis,
// and fills in the secrets LoadConfig refuses to run without.
package testing

import "os"

const testModeEnv = "CAMPUS_TEST_MODE"

var fallbacks = map[string]string{
	"JWT_SECRET": "campus-test-secret-0123456789abcdef",
	"REDIS_ADDR": "127.0.0.1:0",
}

func init() {
	_ = os.Setenv(testModeEnv, "1")
	for key, value := range fallbacks {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
