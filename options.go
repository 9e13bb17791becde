package inject

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/junioryono/inject/internal/engine"
)

// Mode selects how a provider evaluates call sites.
type Mode = engine.Mode

const (
	// ModeDynamic interprets call sites and compiles frequently resolved
	// services in the background. This is the default.
	ModeDynamic = engine.ModeDynamic

	// ModeRuntime always interprets call sites.
	ModeRuntime = engine.ModeRuntime

	// ModeCompiled compiles every call site the first time it is resolved.
	ModeCompiled = engine.ModeCompiled
)

// DefaultPromotionThreshold is the number of resolutions after which a
// service is compiled in ModeDynamic.
const DefaultPromotionThreshold = engine.DefaultPromotionThreshold

// ProviderOptions configures a Provider. The serializable fields can be
// loaded from YAML with LoadOptions.
//
// Example:
//
//	mode: compiled
//	validate_scopes: true
//	validate_on_build: true
type ProviderOptions struct {
	// Mode selects the evaluation strategy.
	Mode Mode `yaml:"mode"`

	// PromotionThreshold is the resolution count at which ModeDynamic
	// compiles a service. Zero means DefaultPromotionThreshold.
	PromotionThreshold int64 `yaml:"promotion_threshold"`

	// ValidateScopes rejects singletons that depend on scoped services and
	// scoped services resolved from the root provider.
	ValidateScopes bool `yaml:"validate_scopes"`

	// ValidateOnBuild creates the call site of every registration at Build
	// and fails the build on the first error.
	ValidateOnBuild bool `yaml:"validate_on_build"`

	// Context is the root context. It is what context.Context resolves to
	// from the root provider. Defaults to context.Background().
	Context context.Context `yaml:"-"`

	// Logger receives debug output from the engine. Defaults to a no-op logger.
	Logger *zap.Logger `yaml:"-"`

	// Callback observes call site creation, resolution and promotion.
	Callback Callback `yaml:"-"`
}

// Option configures ProviderOptions.
type Option func(*ProviderOptions)

// NewProviderOptions returns the default options with opts applied.
func NewProviderOptions(opts ...Option) *ProviderOptions {
	options := &ProviderOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// WithMode sets the evaluation mode.
func WithMode(mode Mode) Option {
	return func(o *ProviderOptions) {
		o.Mode = mode
	}
}

// WithPromotionThreshold sets the resolution count that triggers compilation.
func WithPromotionThreshold(threshold int64) Option {
	return func(o *ProviderOptions) {
		o.PromotionThreshold = threshold
	}
}

// WithScopeValidation enables scope validation.
func WithScopeValidation() Option {
	return func(o *ProviderOptions) {
		o.ValidateScopes = true
	}
}

// WithBuildValidation validates every registration at Build.
func WithBuildValidation() Option {
	return func(o *ProviderOptions) {
		o.ValidateOnBuild = true
	}
}

// WithContext sets the root context.
func WithContext(ctx context.Context) Option {
	return func(o *ProviderOptions) {
		o.Context = ctx
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *ProviderOptions) {
		o.Logger = logger
	}
}

// WithCallback sets the diagnostics callback.
func WithCallback(callback Callback) Option {
	return func(o *ProviderOptions) {
		o.Callback = callback
	}
}

// LoadOptions decodes ProviderOptions from a YAML document and applies opts
// on top of the decoded values.
func LoadOptions(r io.Reader, opts ...Option) (*ProviderOptions, error) {
	options := &ProviderOptions{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(options); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode provider options: %w", err)
	}

	if options.PromotionThreshold < 0 {
		return nil, fmt.Errorf("promotion_threshold must not be negative, got %d", options.PromotionThreshold)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options, nil
}

func (o *ProviderOptions) engineOptions() engine.Options {
	return engine.Options{
		Mode:               o.Mode,
		PromotionThreshold: o.PromotionThreshold,
		ValidateScopes:     o.ValidateScopes,
		Logger:             o.Logger,
		Callback:           o.Callback,
	}
}
