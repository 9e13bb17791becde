package diagnostics

import (
	"reflect"
	"time"

	"github.com/junioryono/inject"
)

type multi []inject.Callback

// Multi fans every event out to callbacks in order. Nil callbacks are skipped.
func Multi(callbacks ...inject.Callback) inject.Callback {
	out := make(multi, 0, len(callbacks))
	for _, c := range callbacks {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (m multi) OnCreate(serviceType reflect.Type, cs inject.CallSite) {
	for _, c := range m {
		c.OnCreate(serviceType, cs)
	}
}

func (m multi) OnResolve(serviceType reflect.Type, elapsed time.Duration, err error) {
	for _, c := range m {
		c.OnResolve(serviceType, elapsed, err)
	}
}

func (m multi) OnPromote(serviceType reflect.Type, err error) {
	for _, c := range m {
		c.OnPromote(serviceType, err)
	}
}
