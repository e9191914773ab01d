package memkit

import (
	"go.uber.org/zap"

	"github.com/fagongzi/memkit/assert"
)

var logger = zap.NewNop()

// UseLogger installs zapLogger as the destination for memkit's own log
// output and forwards it to the assert package, which does the same for
// assertion and fatal messages.
func UseLogger(zapLogger *zap.Logger) {
	logger = zapLogger
	assert.UseLogger(zapLogger)
}
