package logging

import (
	"testing"

	"github.com/giygas/pgx-report-api/config"
)

// resetForTest installs a logger writing under dir and removes it when t ends.
func resetForTest(t *testing.T, dir string, verbose bool) *LoggingService {
	t.Helper()
	svc := InitLogger(Options{Dir: dir, Env: config.EnvTest, RetentionWeeks: 1, Verbose: verbose})
	t.Cleanup(func() { _ = Close() })
	return svc
}
