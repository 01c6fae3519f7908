// Package guard switches the application into test mode when blank-imported from tests.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SEALERP_TEST_MODE") == "" {
			_ = os.Setenv("SEALERP_TEST_MODE", "1")
		}
	})
}
