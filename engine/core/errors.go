package core

import (
	"errors"
	"fmt"
)

var (
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrNoPhysicalDevice   = errors.New("no vulkan physical device available")
	ErrNoGraphicsQueue    = errors.New("no queue family with graphics support")
	ErrUnsupportedSurface = errors.New("unsupported windowing system")
	ErrMissingExtension   = errors.New("required instance extension not available")
	ErrWindowMinimized    = errors.New("window has a zero sized framebuffer")
	ErrUnknown            = errors.New("unknown")
)

// Kind tells the caller how to react to a failed rendering operation.
type Kind int

const (
	// KindFatal errors abort the program: the device or surface can't be used.
	KindFatal Kind = iota
	// KindStale errors mean the swapchain no longer matches the surface and
	// must be rebuilt. The current frame is dropped.
	KindStale
	// KindUnexpected errors are API failures with no recovery path, such as a
	// lost device. They propagate out of the frame loop and stop the engine.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindStale:
		return "stale"
	case KindUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type RenderError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func NewFatalError(op string, err error) error {
	return &RenderError{Kind: KindFatal, Op: op, Err: err}
}

func NewStaleError(op string, err error) error {
	return &RenderError{Kind: KindStale, Op: op, Err: err}
}

func NewUnexpectedError(op string, err error) error {
	return &RenderError{Kind: KindUnexpected, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors that were never classified are
// treated as fatal.
func KindOf(err error) Kind {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindFatal
}

func IsStale(err error) bool {
	return err != nil && KindOf(err) == KindStale
}
