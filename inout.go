package inject

import (
	"github.com/junioryono/inject/internal/reflection"
)

// In marks a parameter object. When a constructor accepts a single struct
// that embeds In, every exported field is resolved as a dependency.
//
// Supported field tags:
//   - `optional:"true"` - the field keeps its zero value when the service is not registered
//   - `inject:"-"` - the field is ignored
//
// Example:
//
//	type ServiceParams struct {
//	    inject.In
//
//	    Database *sql.DB
//	    Logger   Logger `optional:"true"`
//	}
//
//	func NewService(params ServiceParams) *Service {
//	    return &Service{db: params.Database, logger: params.Logger}
//	}
//
// The In struct must be embedded anonymously.
type In = reflection.In
