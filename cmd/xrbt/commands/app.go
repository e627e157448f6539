package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/internal/config"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const appName = "xrbt"

// appRuntime is what the commands take out of the fx container.
type appRuntime struct {
	logger   xlog.XLogger
	exporter *observability.MetricsExporter
	app      *fx.App
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) xlog.XLogger {
	logger := xlog.NewXLogger(cfg.LoggerOptions()...)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger
}

func newMetricsExporter(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) (*observability.MetricsExporter, error) {
	kind, err := observability.ParseExporterKind(cfg.Metrics.Exporter)
	if err != nil {
		return nil, err
	}
	exp, err := observability.NewMetricsExporter(kind, nil, cfg.Metrics.Interval)
	if err != nil {
		return nil, err
	}
	if kind != observability.NoneExporter {
		observability.InitAppStats(appName)
	}

	var srv *http.Server
	if exp.Handler != nil && len(cfg.Metrics.Addr) > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", exp.Handler)
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if srv == nil {
				return nil
			}
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return infra.WrapErrorStackWithMessage(err, "metrics listen "+srv.Addr)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ErrorStack(infra.WrapErrorStack(err), "[xrbt] metrics server stopped")
				}
			}()
			logger.Info("[xrbt] metrics served", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if srv != nil {
				_ = srv.Shutdown(ctx)
			}
			return exp.Shutdown(ctx)
		},
	})
	return exp, nil
}

// startRuntime builds the container and runs its start hooks. The
// caller owns the returned runtime and must stop it.
func startRuntime(ctx context.Context, cfg *config.Config) (*appRuntime, error) {
	rt := &appRuntime{}
	rt.app = fx.New(
		fx.Supply(cfg),
		fx.Provide(newLogger, newMetricsExporter),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Populate(&rt.logger, &rt.exporter),
	)
	if err := rt.app.Err(); err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	if err := rt.app.Start(ctx); err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	return rt, nil
}

func (rt *appRuntime) stop() {
	if rt == nil || rt.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.app.Stop(ctx); err != nil && rt.logger != nil {
		rt.logger.ErrorStack(infra.WrapErrorStack(err), "[xrbt] stop")
	}
}
