// file: internal/transport/helpers_test.go
package transport

import "github.com/dkoosis/headlines/internal/logging"

func nopLogger() logging.Logger {
	return logging.GetNoopLogger()
}
