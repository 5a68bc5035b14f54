// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when something goes wrong,
// e.g. when a planning scenario violates an invariant or times out.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/yogaflow/internal/errors"
)

const (
	defaultMinAge   = 10 * time.Second
	defaultMaxBytes = 16 * 1024 * 1024 // 16MB
	defaultCooldown = time.Minute
)

var (
	ErrMissingLogger    = errors.NewSentinel("logger is required")
	ErrMissingDirectory = errors.NewSentinel("traces directory is required")
	ErrNotDirectory     = errors.NewSentinel("traces path is not a directory")
)

// Service owns one [trace.FlightRecorder].
type Service struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	now             func() time.Time
	lastCapture     atomic.Int64 // Unix nanoseconds of the last capture
	captures        atomic.Int64
}

// Config configures the flight recorder service. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	MinAge          time.Duration
	MaxBytes        uint64
	TracesDirectory string
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
}

// New creates a new flight recorder service. The traces directory is created if missing.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, ErrMissingLogger
	}
	if cfg.TracesDirectory == "" {
		return nil, ErrMissingDirectory
	}

	stat, err := os.Stat(cfg.TracesDirectory)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err = os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only
			return nil, errors.Wrap(err, "create traces directory",
				slog.String("directory", cfg.TracesDirectory))
		}
	case err != nil:
		return nil, errors.Wrap(err, "stat traces directory", slog.String("directory", cfg.TracesDirectory))
	case !stat.IsDir():
		return nil, errors.Wrap(ErrNotDirectory, cfg.TracesDirectory)
	}

	minAge := cfg.MinAge
	if minAge == 0 {
		minAge = defaultMinAge
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = defaultCooldown
	}

	return &Service{
		logger: cfg.Logger,
		flightRecorder: trace.NewFlightRecorder(trace.FlightRecorderConfig{
			MinAge:   minAge,
			MaxBytes: maxBytes,
		}),
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        cooldown,
		now:             time.Now,
		lastCapture:     atomic.Int64{},
		captures:        atomic.Int64{},
	}, nil
}

// Start begins flight recording.
func (s *Service) Start(ctx context.Context) error {
	if err := s.flightRecorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder started",
		slog.String("directory", s.tracesDirectory),
		slog.Duration("cooldown", s.cooldown))
	return nil
}

// Stop ends flight recording.
func (s *Service) Stop(ctx context.Context) {
	s.flightRecorder.Stop()
	s.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder stopped", slog.Int64("captures", s.captures.Load()))
}

// Captures returns the number of trace files written.
func (s *Service) Captures() int64 {
	return s.captures.Load()
}

// Capture writes the recorded trace to a file named after reason. Captures within the cooldown of the previous one
// are skipped, and so are concurrent captures racing for the same slot. It returns the path of the written file or
// an empty string.
func (s *Service) Capture(ctx context.Context, reason string) string {
	now := s.now()
	last := s.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < s.cooldown {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.String("reason", reason),
			slog.Time("last_capture", time.Unix(0, last)))
		return ""
	}
	if !s.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return ""
	}

	filename := fmt.Sprintf("%s-%s.trace", sanitize(reason), now.UTC().Format("20060102-150405.000"))
	fPath := filepath.Join(s.tracesDirectory, filename)

	written, err := s.write(fPath)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace", errors.SlogError(err))
		return ""
	}

	s.captures.Add(1)
	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason),
		slog.String("file", fPath),
		slog.Int64("bytes", written))
	return fPath
}

func (s *Service) write(fPath string) (written int64, err error) {
	file, err := os.Create(fPath)
	if err != nil {
		return 0, errors.Wrap(err, "create trace file", slog.String("file", fPath))
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close trace file", slog.String("file", fPath)))
		}
	}()

	if written, err = s.flightRecorder.WriteTo(file); err != nil {
		return written, errors.Wrap(err, "write trace", slog.String("file", fPath))
	}
	return written, nil
}

// sanitize keeps reason usable as a file name.
func sanitize(reason string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, reason)
	if mapped == "" {
		return "capture"
	}
	return mapped
}
