package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global client. An empty DSN leaves error
// reporting disabled and every capture call becomes a no-op.
func InitSentry(dsn, environment string) (bool, error) {
	if dsn == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
