package factory

import "context"

// Engine defines the auditor's operations
type Engine interface {
	Process(ctx context.Context)
	IsInterfaceNil() bool
}
