package inject

import (
	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/engine"
)

// Callback observes a provider. OnCreate is called once per service when
// its call site is first built, OnResolve after every resolution and
// OnPromote when ModeDynamic finishes compiling a service. Callbacks run on
// the resolving goroutine, or the compiling one for OnPromote, and must not
// block. See the diagnostics package for logging, metrics and tracing
// implementations.
type Callback = engine.Callback

// CallSite is the immutable recipe describing how one service is produced.
type CallSite = callsite.CallSite

// CallSiteKind identifies the variant of a CallSite.
type CallSiteKind = callsite.Kind

const (
	KindConstant       = callsite.KindConstant
	KindFactory        = callsite.KindFactory
	KindConstructor    = callsite.KindConstructor
	KindCreateInstance = callsite.KindCreateInstance
	KindEnumerable     = callsite.KindEnumerable
	KindTransient      = callsite.KindTransient
	KindScoped         = callsite.KindScoped
	KindSingleton      = callsite.KindSingleton
)
