package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

const (
	rootModule     = "cms"
	dispatchModule = "cms.dispatch"
	orderingModule = "cms.ordering"
	assetsModule   = "cms.assets"
	contentModule  = "cms.content"
	usersModule    = "cms.users"
	storageModule  = "cms.storage"
)

const (
	fieldEntityType = "entity_type"
	fieldEntityID   = "entity_id"
	fieldOperation  = "operation"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// DispatchLogger returns the logger used by the generic operation dispatcher.
func DispatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, dispatchModule)
}

// OrderingLogger returns the logger used by the position sequencer.
func OrderingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, orderingModule)
}

// AssetsLogger returns the logger used by the orphaned-asset reclaimer.
func AssetsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, assetsModule)
}

func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

func UsersLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, usersModule)
}

func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithEntityContext attaches the entity type, record id and operation name.
// Empty values are ignored.
func WithEntityContext(logger interfaces.Logger, entityType, id, operation string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(entityType); trimmed != "" {
		fields[fieldEntityType] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldEntityID] = trimmed
	}
	if trimmed := strings.TrimSpace(operation); trimmed != "" {
		fields[fieldOperation] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
