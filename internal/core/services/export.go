package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
	"github.com/custodia-labs/timeport-cli/internal/logger"
)

// MaxExportAttempts bounds export retries per sink, counting the first
// attempt.
const MaxExportAttempts = 3

// Ensure ExportService implements the interface.
var _ driving.Exporter = (*ExportService)(nil)

// ExportService drives a completed session through every configured
// sink: gather requirements, resolve and inject field values, validate,
// export, and recover from retryable rejections by re-resolving exactly
// the rejected field.
//
// Sinks run sequentially, never in parallel: field resolution may open
// interactive prompts (one at a time) and sibling sinks share persisted
// credential keys.
type ExportService struct {
	registry *SinkRegistry
	resolver driving.FieldResolver
}

// NewExportService creates the export orchestrator.
func NewExportService(registry *SinkRegistry, resolver driving.FieldResolver) *ExportService {
	return &ExportService{
		registry: registry,
		resolver: resolver,
	}
}

// Export runs every enabled sink to a terminal state and returns one
// result per built sink, in configuration order. The run as a whole
// cannot fail; individual failures are carried in the results.
func (s *ExportService) Export(
	ctx context.Context,
	session *domain.Session,
	configs []domain.SinkConfig,
) []domain.SinkResult {
	sinks := s.registry.Build(configs)

	results := make([]domain.SinkResult, 0, len(sinks))
	for _, sink := range sinks {
		logger.Section(sink.Kind())
		res := s.exportOne(ctx, session, sink)
		logger.Debug("sink %s: ok=%v code=%s msg=%q", sink.Kind(), res.OK, res.Code, res.Message)
		results = append(results, domain.SinkResult{Kind: sink.Kind(), ExportResult: res})
	}
	return results
}

// exportOne walks a single sink through the state machine
// requirements → hydrated → validated → exported|skipped|failed.
// A panic inside the sink is converted into a failed result so one
// broken sink never aborts its siblings.
func (s *ExportService) exportOne(
	ctx context.Context,
	session *domain.Session,
	sink driven.Sink,
) (res domain.ExportResult) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Failed(domain.CodeInternal, fmt.Errorf("sink %s: panic: %v", sink.Kind(), r))
		}
	}()

	specs := sink.Requirements()

	// No declared requirements: straight to export.
	if len(specs) == 0 {
		return s.attemptExport(ctx, session, sink, specs)
	}

	if err := s.hydrate(ctx, session, sink, specs); err != nil {
		return domain.Failed(domain.CodeInternal, err)
	}

	// Both skip paths share one missing-field computation, so a cancelled
	// prompt and a failing Validate always report the same shape.
	if missing := missingRequired(specs, sink, session); len(missing) > 0 {
		return domain.Skipped(missing)
	}
	if v := sink.Validate(); !v.OK {
		return domain.Skipped(v.Missing)
	}

	return s.attemptExport(ctx, session, sink, specs)
}

// attemptExport calls Export, recovering from retryable field rejections
// by forcing re-resolution of exactly the rejected field, bounded by
// MaxExportAttempts total attempts.
func (s *ExportService) attemptExport(
	ctx context.Context,
	session *domain.Session,
	sink driven.Sink,
	specs []domain.FieldSpec,
) domain.ExportResult {
	var last domain.ExportResult
	for attempt := 1; attempt <= MaxExportAttempts; attempt++ {
		last = sink.Export(ctx, session)
		if last.OK || !last.Retryable || last.Field == "" {
			return last
		}
		if attempt == MaxExportAttempts {
			break
		}

		spec := findSpec(specs, last.Field)
		if spec == nil {
			logger.Warn("sink %s rejected undeclared field %q", sink.Kind(), last.Field)
			return last
		}

		logger.Info("sink %s rejected field %s, re-resolving (attempt %d)", sink.Kind(), spec.Key, attempt)
		value, err := s.resolver.Resolve(ctx, driving.ResolveRequest{Spec: *spec, Force: true})
		if err != nil {
			return domain.Failed(domain.CodeInternal, fmt.Errorf("re-resolving %s: %w", spec.Key, err))
		}
		if domain.IsEmpty(value) {
			return last
		}
		s.inject(session, sink, spec, value)
	}
	return last
}

// hydrate resolves every declared field and injects resolved values:
// setup-scope into the sink's options bag, runtime-scope back onto the
// session so later sinks in the same run reuse them without re-prompting.
func (s *ExportService) hydrate(
	ctx context.Context,
	session *domain.Session,
	sink driven.Sink,
	specs []domain.FieldSpec,
) error {
	for i := range specs {
		spec := &specs[i]

		current := sink.Options()[spec.OptionKey()]
		if domain.IsEmpty(current) && spec.Scope == domain.ScopeRuntime {
			current = session.RuntimeValue(runtimeKey(spec))
		}

		value, err := s.resolver.Resolve(ctx, driving.ResolveRequest{Spec: *spec, Current: current})
		if err != nil {
			return fmt.Errorf("resolving %s: %w", spec.Key, err)
		}
		if domain.IsEmpty(value) {
			continue
		}
		s.inject(session, sink, spec, value)
	}
	return nil
}

// inject writes a resolved value where the sink will find it.
func (s *ExportService) inject(
	session *domain.Session,
	sink driven.Sink,
	spec *domain.FieldSpec,
	value string,
) {
	if spec.Scope == domain.ScopeRuntime {
		session.SetRuntimeValue(runtimeKey(spec), value)
		return
	}
	sink.Options()[spec.OptionKey()] = value
}

// runtimeKey returns the session key for a runtime-scope field: the bare
// option key when it is one of the well-known runtime names, otherwise
// the full namespaced key so two sinks' "issue" fields cannot collide in
// the metadata bag.
func runtimeKey(spec *domain.FieldSpec) string {
	if wellKnownRuntime(spec.OptionKey()) {
		return spec.OptionKey()
	}
	return spec.Key
}

func wellKnownRuntime(key string) bool {
	switch key {
	case domain.RuntimeKeyTicket, domain.RuntimeKeyComment, domain.RuntimeKeyBranch,
		domain.RuntimeKeyRepo, domain.RuntimeKeyWorkspace:
		return true
	}
	return false
}

// missingRequired names every required field that is still empty after
// hydration, checking the options bag and, for runtime fields, the
// session.
func missingRequired(specs []domain.FieldSpec, sink driven.Sink, session *domain.Session) []string {
	var missing []string
	for i := range specs {
		spec := &specs[i]
		if !spec.Required {
			continue
		}
		value := sink.Options()[spec.OptionKey()]
		if domain.IsEmpty(value) && spec.Scope == domain.ScopeRuntime {
			value = session.RuntimeValue(runtimeKey(spec))
		}
		if domain.IsEmpty(value) {
			missing = append(missing, spec.Key)
		}
	}
	return missing
}

// findSpec looks up a spec by its full key or bare option key; sinks
// report rejected fields either way.
func findSpec(specs []domain.FieldSpec, field string) *domain.FieldSpec {
	for i := range specs {
		if specs[i].Key == field || specs[i].OptionKey() == field {
			return &specs[i]
		}
	}
	return nil
}
