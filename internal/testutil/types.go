package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrDisposal    = errors.New("disposal error")
)

// TestService is a basic test service
type TestService struct {
	ID        string
	CreatedAt time.Time
}

// NewTestService creates a new test service
func NewTestService() *TestService {
	return &TestService{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// TestLogger is a test logger interface
type TestLogger interface {
	Log(msg string)
	Logs() []string
}

// TestLoggerImpl implements TestLogger
type TestLoggerImpl struct {
	mu   sync.Mutex
	logs []string
}

func NewTestLogger() TestLogger {
	return &TestLoggerImpl{}
}

func (l *TestLoggerImpl) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLoggerImpl) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.logs))
	copy(out, l.logs)
	return out
}

// TestServiceWithDeps depends on a logger and a service.
type TestServiceWithDeps struct {
	Logger  TestLogger
	Service *TestService
}

func NewTestServiceWithDeps(logger TestLogger, service *TestService) *TestServiceWithDeps {
	return &TestServiceWithDeps{Logger: logger, Service: service}
}

// DisposalRecorder collects the names of closed services in close order.
type DisposalRecorder struct {
	mu     sync.Mutex
	closed []string
}

// Record appends name.
func (r *DisposalRecorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, name)
}

// Closed returns the recorded names in close order.
func (r *DisposalRecorder) Closed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.closed))
	copy(out, r.closed)
	return out
}

// TestDisposable implements Close() error and counts its calls.
type TestDisposable struct {
	Name     string
	Recorder *DisposalRecorder
	CloseErr error

	closes atomic.Int32
}

func (d *TestDisposable) Close() error {
	d.closes.Add(1)
	if d.Recorder != nil {
		d.Recorder.Record(d.Name)
	}
	return d.CloseErr
}

// Closes returns how many times Close was called.
func (d *TestDisposable) Closes() int {
	return int(d.closes.Load())
}

// TestContextDisposable implements Close(ctx) error.
type TestContextDisposable struct {
	Name     string
	Recorder *DisposalRecorder

	ctxErr atomic.Value // error of the context seen by Close, or nil wrapper
	closes atomic.Int32
}

type ctxErrBox struct{ err error }

func (d *TestContextDisposable) Close(ctx context.Context) error {
	d.closes.Add(1)
	d.ctxErr.Store(ctxErrBox{err: ctx.Err()})
	if d.Recorder != nil {
		d.Recorder.Record(d.Name)
	}
	return nil
}

// Closes returns how many times Close was called.
func (d *TestContextDisposable) Closes() int {
	return int(d.closes.Load())
}

// ContextErr returns the error of the context passed to Close.
func (d *TestContextDisposable) ContextErr() error {
	if v, ok := d.ctxErr.Load().(ctxErrBox); ok {
		return v.err
	}
	return nil
}

// CountingConstructor returns a constructor for *TestService that counts its calls.
func CountingConstructor(counter *atomic.Int32) func() *TestService {
	return func() *TestService {
		counter.Add(1)
		return NewTestService()
	}
}

// SlowConstructor is like CountingConstructor but sleeps first, widening
// the window in which concurrent resolutions race.
func SlowConstructor(counter *atomic.Int32, delay time.Duration) func() *TestService {
	return func() *TestService {
		counter.Add(1)
		time.Sleep(delay)
		return NewTestService()
	}
}
