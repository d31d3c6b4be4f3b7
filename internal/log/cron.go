package log

import "github.com/robfig/cron/v3"

type cronLogger struct{}

// CronLogger adapts this package to cron.Logger. cron's routine messages
// (wake, run, schedule) are logged at debug level.
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, kv ...any) {
	Debug("cron "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	Error("cron "+msg, err, kv...)
}
