package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("COSTD_TEST_MODE") == "" {
			_ = os.Setenv("COSTD_TEST_MODE", "1")
		}
	})
}
