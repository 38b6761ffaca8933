package vfs

import (
	"github.com/mwantia/uvfs/directory"
	"github.com/mwantia/uvfs/log"
	"github.com/prometheus/client_golang/prometheus"
)

type VirtualFileSystemOptions struct {
	Logger      *log.Logger
	LogLevel    log.LogLevel
	LogFile     string
	Directories directory.Type
	Registerer  prometheus.Registerer
	ReadOnly    bool
}

type VirtualFileSystemOption func(*VirtualFileSystemOptions) error

func newDefaultVirtualFileSystemOptions() *VirtualFileSystemOptions {
	return &VirtualFileSystemOptions{
		LogLevel: log.Info,
	}
}

// WithLogger sets the logger sessions write to. Without it sessions stay silent.
func WithLogger(logger *log.Logger) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.Logger = logger
		return nil
	}
}

// WithLogLevel creates a terminal logger with the given level.
func WithLogLevel(logLevel log.LogLevel) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.LogLevel = logLevel
		if opts.Logger == nil {
			opts.Logger = log.NewLogger("uvfs", logLevel, opts.LogFile, false)
		}
		return nil
	}
}

// WithLogFile creates a logger writing to a rotated file only.
func WithLogFile(logFile string) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.LogFile = logFile
		opts.Logger = log.NewLogger("uvfs", opts.LogLevel, logFile, true)
		return nil
	}
}

// WithDirectories selects the directory strategy instead of the driver default.
func WithDirectories(t directory.Type) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		parsed, err := directory.ParseType(string(t))
		if err != nil {
			return err
		}
		opts.Directories = parsed
		return nil
	}
}

// WithMetrics records driver operations in Prometheus collectors registered with r.
func WithMetrics(r prometheus.Registerer) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.Registerer = r
		return nil
	}
}

// WithReadOnly refuses every operation that would modify the backend.
func WithReadOnly() VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.ReadOnly = true
		return nil
	}
}
