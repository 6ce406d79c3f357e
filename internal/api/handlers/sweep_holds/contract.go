package sweep_holds

import (
	"context"
	"time"
)

type ExpiryService interface {
	Sweep(ctx context.Context, now time.Time) ([]int64, error)
}

type TimeProvider interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
