package xlog

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/safeopen"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

// FileCoreConfig places the log file. An empty FilePath means the
// temp dir; an empty Filename means "<binary>_xlog.log".
type FileCoreConfig struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"path"`
	Filename string `json:"filename" yaml:"filename" mapstructure:"name"`
}

var _ io.WriteCloser = (*fileLog)(nil)

// fileLog appends to one file that never leaves its directory. The
// file is opened at the first write.
type fileLog struct {
	lock     sync.Mutex
	filePath string
	filename string
	current  *os.File
	closed   bool
}

func (log *fileLog) Write(p []byte) (n int, err error) {
	log.lock.Lock()
	defer log.lock.Unlock()
	if log.closed {
		return 0, io.ErrClosedPipe
	}
	if log.current == nil {
		if err = log.open(); err != nil {
			return 0, err
		}
	}
	return log.current.Write(p)
}

func (log *fileLog) Sync() error {
	log.lock.Lock()
	defer log.lock.Unlock()
	if log.current == nil {
		return nil
	}
	return log.current.Sync()
}

func (log *fileLog) Close() error {
	log.lock.Lock()
	defer log.lock.Unlock()
	log.closed = true
	if log.current == nil {
		return nil
	}
	err := log.current.Close()
	log.current = nil
	return err
}

func (log *fileLog) open() error {
	if log.filePath != os.TempDir() {
		if err := os.MkdirAll(log.filePath, 0o755); err != nil {
			return infra.WrapErrorStackWithMessage(err, "unable to create log dir: "+log.filePath)
		}
	}
	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "unable to open log file: "+filepath.Join(log.filePath, log.filename))
	}
	log.current = f
	return nil
}

func newFileLog(cfg *FileCoreConfig) *fileLog {
	log := &fileLog{}
	if cfg != nil {
		log.filePath = cfg.FilePath
		log.filename = cfg.Filename
	}
	if log.filePath == "" {
		log.filePath = os.TempDir()
	}
	if log.filename == "" {
		log.filename = filepath.Base(os.Args[0]) + "_xlog.log"
	}
	return log
}

// newFileCore writes into the configured file whatever the out writer
// of the logger is.
func newFileCore(cfg *FileCoreConfig) XLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		_ logOutWriterType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		fileWriter := newFileLog(cfg)
		cc := &commonCore{
			lvlEnabler: lvlEnabler,
			lvlEnc:     lvlEnc,
			tsEnc:      tsEnc,
			ws:         zapcore.Lock(fileWriter),
			enc:        getEncoderByType(encoder),
		}
		config := zapcore.EncoderConfig{
			MessageKey:    "msg",
			LevelKey:      "lvl",
			EncodeLevel:   cc.lvlEnc,
			TimeKey:       "ts",
			EncodeTime:    cc.tsEnc,
			CallerKey:     "callAt",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			FunctionKey:   "fn",
			NameKey:       "component",
			EncodeName:    zapcore.FullNameEncoder,
			StacktraceKey: coreKeyIgnored,
		}
		cc.core = zapcore.NewCore(cc.enc(config), cc.ws, cc.lvlEnabler)
		runtime.SetFinalizer(cc, func(*commonCore) {
			_ = fileWriter.Close()
		})
		return cc
	}
}

// WithXLoggerFileCore tees the logs into a file. Combine it with
// WithXLoggerStdOutWriter to keep the console output.
func WithXLoggerFileCore(cfg *FileCoreConfig) XLoggerOption {
	return func(c *loggerCfg) error {
		c.coreConstructors = append(c.coreConstructors, newFileCore(cfg))
		return nil
	}
}
