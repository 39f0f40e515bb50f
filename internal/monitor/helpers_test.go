package monitor

import "github.com/supox/genomics-upload-service/internal/logging"

func testLogger() *logging.Logger {
	return logging.NewDefault()
}
