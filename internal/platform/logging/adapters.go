package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CronAdapter satisfies robfig/cron's Logger. Cron's own info chatter
// (schedule, wake, run) is demoted to debug.
type CronAdapter struct {
	logger *Logger
}

func (l *Logger) CronLogger() CronAdapter {
	return CronAdapter{logger: l}
}

func (a CronAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.log(zap.DebugLevel, "cron "+msg, keysAndValues...)
}

func (a CronAdapter) Error(err error, msg string, keysAndValues ...any) {
	args := make([]any, 0, len(keysAndValues)+2)
	args = append(args, keysAndValues...)
	args = append(args, "error", err)
	a.logger.log(zap.ErrorLevel, "cron "+msg, args...)
}

// BotAdapter satisfies the telegram client's BotLogger.
type BotAdapter struct {
	logger *Logger
}

func (l *Logger) BotLogger() BotAdapter {
	return BotAdapter{logger: l}
}

func (a BotAdapter) Println(v ...any) {
	a.logger.log(zap.DebugLevel, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (a BotAdapter) Printf(format string, v ...any) {
	a.logger.log(zap.DebugLevel, strings.TrimSpace(fmt.Sprintf(format, v...)))
}
