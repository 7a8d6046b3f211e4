package registrar

import (
	"os"
	"testing"

	"firestige.xyz/gb28181registrar/internal/log"
)

func TestMain(m *testing.M) {
	log.Init(&log.LoggerConfig{Level: "error"})
	os.Exit(m.Run())
}
