package diagnostics

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/junioryono/inject"
)

// LogCallback writes provider activity to a zap logger. Successful events
// are logged at debug level and failures at warn level.
type LogCallback struct {
	logger *zap.Logger
}

var _ inject.Callback = (*LogCallback)(nil)

// NewLogCallback creates a callback logging to logger.
func NewLogCallback(logger *zap.Logger) *LogCallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogCallback{logger: logger.Named("inject")}
}

func (c *LogCallback) OnCreate(serviceType reflect.Type, cs inject.CallSite) {
	c.logger.Debug("call site created",
		zap.String("service", typeName(serviceType)),
		zap.Stringer("kind", cs.Kind()),
		zap.String("implementation", typeName(cs.ImplementationType())),
	)
}

func (c *LogCallback) OnResolve(serviceType reflect.Type, elapsed time.Duration, err error) {
	if err != nil {
		c.logger.Warn("service resolution failed",
			zap.String("service", typeName(serviceType)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("service resolved",
		zap.String("service", typeName(serviceType)),
		zap.Duration("elapsed", elapsed),
	)
}

func (c *LogCallback) OnPromote(serviceType reflect.Type, err error) {
	if err != nil {
		c.logger.Warn("service compilation failed",
			zap.String("service", typeName(serviceType)),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("service compiled", zap.String("service", typeName(serviceType)))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
