package logsvc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
)

// Logger writes to zap and reports to Rollbar when a token is configured outside debug mode.
type Logger struct {
	zl      *zap.Logger
	rollbar bool
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(zl *zap.Logger, conf *core.Config) *Logger {
	enabled := conf.RollbarToken != "" && !conf.Debug && !conf.TestMode
	if enabled {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetServerHost(conf.Server.Host)
		rollbar.SetCodeVersion(conf.Build)
		rollbar.SetStackTracer(rollbarerrors.StackTracer)
	}
	rollbar.SetEnabled(enabled)
	return &Logger{zl: zl.WithOptions(zap.AddCallerSkip(1)), rollbar: enabled}
}

// Zap returns the underlying structured logger.
func (l *Logger) Zap() *zap.Logger { return l.zl }

// expected fmt: msg | error, zap.Field, map[string]interface{}, student.Student
// The student is passed to Rollbar per report, never set on the shared client.
func (l *Logger) prepare(msg string, args []interface{}) ([]zap.Field, []interface{}) {
	var stuSet bool
	fields := make([]zap.Field, 0, len(args))
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)

	for i, arg := range args {
		switch a := arg.(type) {
		case student.Student:
			if !stuSet { // only set one Student
				fields = append(fields, zap.Int("student_id", a.ID))
				if l.rollbar {
					rbArgs = append(rbArgs, rollbar.NewPersonContext(context.Background(), &rollbar.Person{
						Id:       strconv.Itoa(a.ID),
						Username: a.Name,
						Email:    a.Email,
					}))
				}
				stuSet = true
			}
		case zap.Field:
			fields = append(fields, a)
		case error:
			fields = append(fields, zap.Error(a))
			rbArgs = append(rbArgs, a)
		case map[string]interface{}:
			fields = append(fields, zap.Any("extras", a))
			rbArgs = append(rbArgs, a)
		default:
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), a))
		}
	}
	return fields, rbArgs
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	fields, _ := l.prepare(msg, args)
	l.zl.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	fields, rbArgs := l.prepare(msg, args)
	l.zl.Info(msg, fields...)
	if l.rollbar {
		rollbar.Info(rbArgs...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	fields, rbArgs := l.prepare(msg, args)
	l.zl.Warn(msg, fields...)
	if l.rollbar {
		rollbar.Warning(rbArgs...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	fields, rbArgs := l.prepare(msg, args)
	l.zl.Error(msg, fields...)
	if l.rollbar {
		rollbar.Error(rbArgs...)
	}
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	fields, rbArgs := l.prepare(msg, args)
	if l.rollbar {
		rollbar.Critical(rbArgs...)
		rollbar.Wait()
	}
	l.zl.Fatal(msg, fields...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	_ = l.zl.Sync()
	if l.rollbar {
		rollbar.Wait()
	}
}
