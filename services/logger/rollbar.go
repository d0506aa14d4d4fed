package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/student"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a local zap logger.
type RollbarLogger struct {
	zl     *zap.Logger
	remote bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZap builds the local logger: human readable in debug, JSON otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	if conf.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{zl: zl, remote: conf.RollbarToken != ""}
}

// NewNopLogger discards everything; used by tests.
func NewNopLogger() *RollbarLogger {
	return &RollbarLogger{zl: zap.NewNop()}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
	l.remote = enabled
}

func (l *RollbarLogger) Sync() error {
	if l.remote {
		rollbar.Wait()
	}
	return l.zl.Sync()
}

// expected fmt: msg | error, map[string]interface{}, student.Student
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []zap.Field) {
	var personSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	fields := make([]zap.Field, 0, len(args))

	for _, arg := range args {
		switch v := arg.(type) {
		case student.Student:
			// only set one person
			if !personSet {
				if l.remote {
					rollbar.SetPerson(v.ID, v.FullName, "")
				}
				personSet = true
			}
			fields = append(fields, zap.String("student_id", v.ID))
		case error:
			rbArgs = append(rbArgs, v)
			fields = append(fields, zap.Error(v))
		case map[string]interface{}:
			rbArgs = append(rbArgs, v)
			fields = append(fields, zap.Any("extras", v))
		default:
			rbArgs = append(rbArgs, v)
			fields = append(fields, zap.Any("arg", v))
		}
	}
	if !personSet && l.remote {
		rollbar.ClearPerson()
	}
	return rbArgs, fields
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	if l.remote {
		rollbar.Debug(rbArgs...)
	}
	l.zl.Debug(msg, fields...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	if l.remote {
		rollbar.Info(rbArgs...)
	}
	l.zl.Info(msg, fields...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	if l.remote {
		rollbar.Warning(rbArgs...)
	}
	l.zl.Warn(msg, fields...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	if l.remote {
		rollbar.Error(rbArgs...)
	}
	l.zl.Error(msg, fields...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	if l.remote {
		rollbar.Critical(rbArgs...)
		rollbar.Wait()
	}
	l.zl.Fatal(msg, fields...)
}
