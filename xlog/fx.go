package xlog

import (
	"time"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger reports the events of an app driven by Start and Stop.
// Signal driven events (Run, Stopping) never reach it.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hook(name, function, caller string, runtime time.Duration, err error) {
	fields := []zap.Field{
		zap.String("function", function),
		zap.String("caller", caller),
	}
	if runtime > 0 || err != nil {
		fields = append(fields, zap.Duration("in", runtime))
	}
	if err != nil {
		l.logger.Error(err, "HOOK "+name+" failed", fields...)
		return
	}
	l.logger.Debug("HOOK "+name, fields...)
}

func (l *FxXLogger) failed(err error, msg string, fields ...zap.Field) bool {
	if err == nil {
		return false
	}
	l.logger.Error(err, msg, fields...)
	return true
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.hook("OnStart", e.FunctionName, e.CallerName, 0, nil)
	case *fxevent.OnStartExecuted:
		l.hook("OnStart done", e.FunctionName, e.CallerName, e.Runtime, e.Err)
	case *fxevent.OnStopExecuting:
		l.hook("OnStop", e.FunctionName, e.CallerName, 0, nil)
	case *fxevent.OnStopExecuted:
		l.hook("OnStop done", e.FunctionName, e.CallerName, e.Runtime, e.Err)
	case *fxevent.Supplied:
		if !l.failed(e.Err, "SUPPLY failed", zap.String("type", e.TypeName), zap.Strings("stacktrace", e.StackTrace)) {
			l.logger.Debug("SUPPLY", zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
		}
	case *fxevent.Provided:
		if l.failed(e.Err, "PROVIDE failed", zap.String("constructor", e.ConstructorName), zap.Strings("stacktrace", e.StackTrace)) {
			return
		}
		l.logger.Debug("PROVIDE",
			zap.Strings("types", e.OutputTypeNames),
			zap.String("constructor", e.ConstructorName),
			zap.Bool("private", e.Private),
		)
	case *fxevent.Invoking:
		l.logger.Debug("INVOKE", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		l.failed(e.Err, "INVOKE failed", zap.String("function", e.FunctionName), zap.String("trace", e.Trace))
	case *fxevent.RollingBack:
		l.logger.Warn("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		l.failed(e.Err, "roll back failed")
	case *fxevent.Started:
		if !l.failed(e.Err, "start failed") {
			l.logger.Debug("RUNNING")
		}
	case *fxevent.Stopped:
		l.failed(e.Err, "stop failed")
	case *fxevent.LoggerInitialized:
		if !l.failed(e.Err, "logger init failed") {
			l.logger.Debug("LOGGER ready", zap.String("constructor", e.ConstructorName))
		}
	default:
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: wrapComponentLogger(logger, "Fx")}
}
