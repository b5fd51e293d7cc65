package util

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// EverySpec renders d as an "@every" spec understood by both robfig/cron and
// the asynq scheduler. Intervals are truncated to whole seconds.
func EverySpec(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Second {
		d = time.Second
	}
	return "@every " + d.String()
}

// ParseCronSchedule parses a descriptor or standard five field expression.
func ParseCronSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NextRunTime returns the next occurrence of spec after from, in UTC.
func NextRunTime(spec string, from time.Time) (time.Time, error) {
	schedule, err := ParseCronSchedule(spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from.UTC()), nil
}

// CronLogger adapts a slog logger to the cron.Logger interface.
func CronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger}
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
