package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
	"github.com/custodia-labs/timeport-cli/internal/logger"
)

// MaxPromptAttempts bounds how often a failing validator re-prompts.
const MaxPromptAttempts = 3

// Ensure ResolutionService implements the interface.
var _ driving.FieldResolver = (*ResolutionService)(nil)

// ResolutionService resolves one declared field to a concrete value by
// checking, in order: the caller-supplied current value, persisted
// storage, and finally an interactive prompt. Resolved values are
// persisted per the field's policy before being returned.
type ResolutionService struct {
	secrets     driven.SecretStore
	settings    driven.SettingStore
	prompter    driven.Prompter
	suggestions driving.SuggestionProvider
}

// NewResolutionService creates a resolution service. prompter may be nil
// for non-interactive use; prompted fields then resolve to absent.
func NewResolutionService(
	secrets driven.SecretStore,
	settings driven.SettingStore,
	prompter driven.Prompter,
	suggestions driving.SuggestionProvider,
) *ResolutionService {
	return &ResolutionService{
		secrets:     secrets,
		settings:    settings,
		prompter:    prompter,
		suggestions: suggestions,
	}
}

// Resolve runs the resolution algorithm for one field. An empty value
// with nil error means the field resolved to absent: an optional field
// without input, or a cancelled prompt.
func (s *ResolutionService) Resolve(ctx context.Context, req driving.ResolveRequest) (string, error) {
	spec := req.Spec
	if err := spec.Check(); err != nil {
		return "", fmt.Errorf("field %s: %w", spec.Key, err)
	}

	// 1. A value the caller already holds wins, unless forced.
	if !req.Force && !domain.IsEmpty(req.Current) {
		return req.Current, nil
	}

	// 2. Persisted storage. Skipped under Force: the persisted value is
	// almost certainly the one the destination just rejected.
	if !req.Force {
		value, err := s.lookup(ctx, &spec)
		if err != nil {
			return "", err
		}
		if !domain.IsEmpty(value) {
			return value, nil
		}
	}

	// 3. Optional fields resolve to absent without prompting.
	if !spec.Required {
		return "", nil
	}

	// 4. Prompt, with bounded validator retries.
	value, ok, err := s.prompt(ctx, &spec)
	if err != nil {
		return "", err
	}
	if !ok || domain.IsEmpty(value) {
		logger.Debug("field %s unresolved after prompt", spec.Key)
		return "", nil
	}

	// 5. Persist per policy before returning.
	if err := s.persist(ctx, &spec, value); err != nil {
		return "", err
	}
	return value, nil
}

// lookup reads the persisted value for a field: the secret store for
// secret-kind fields, the settings store for fields with a settings key.
// An empty stored string counts as absent.
func (s *ResolutionService) lookup(ctx context.Context, spec *domain.FieldSpec) (string, error) {
	if spec.IsSecret() {
		if s.secrets == nil {
			return "", nil
		}
		value, ok, err := s.secrets.Get(ctx, spec.SecretStoreKey())
		if err != nil {
			return "", fmt.Errorf("reading secret %s: %w", spec.SecretStoreKey(), err)
		}
		if !ok || domain.IsEmpty(value) {
			return "", nil
		}
		return value, nil
	}

	if spec.SettingKey != "" && s.settings != nil {
		return s.settings.GetString(spec.SettingKey), nil
	}
	return "", nil
}

// prompt asks the user for a value, re-prompting on validator failure up
// to MaxPromptAttempts. Cancel and exhausted attempts both return ok
// false without error.
func (s *ResolutionService) prompt(ctx context.Context, spec *domain.FieldSpec) (string, bool, error) {
	if s.prompter == nil {
		logger.Debug("no prompter wired, field %s resolves to absent", spec.Key)
		return "", false, nil
	}

	if spec.Mode == domain.PromptSelect && spec.Fetch != nil {
		return s.pick(ctx, spec)
	}

	req := driven.InputRequest{
		Label: spec.Label,
		Kind:  spec.Kind,
	}
	ask := s.prompter.Input
	if spec.IsSecret() {
		ask = s.prompter.Secret
	}

	for attempt := 1; attempt <= MaxPromptAttempts; attempt++ {
		value, ok, err := ask(ctx, req)
		if err != nil {
			return "", false, fmt.Errorf("prompting %s: %w", spec.Key, err)
		}
		if !ok {
			return "", false, nil
		}
		if spec.Validate != nil {
			if verr := spec.Validate(value); verr != nil {
				logger.Info("value for %s rejected: %v", spec.Key, verr)
				req.Placeholder = verr.Error()
				continue
			}
		}
		return value, true, nil
	}
	return "", false, nil
}

// pick runs the searchable paginated picker, wrapping the field's raw
// fetch with the suggestion cache. Picked values still pass through the
// field validator.
func (s *ResolutionService) pick(ctx context.Context, spec *domain.FieldSpec) (string, bool, error) {
	fetch := spec.Fetch
	if s.suggestions != nil {
		fetch = s.suggestions.Cached(spec.Key, spec.CacheTTL, fetch)
	}

	req := driven.PickRequest{
		Label:         spec.Label,
		Fetch:         fetch,
		AllowFreeText: true,
	}

	for attempt := 1; attempt <= MaxPromptAttempts; attempt++ {
		value, ok, err := s.prompter.Pick(ctx, req)
		if err != nil {
			return "", false, fmt.Errorf("picking %s: %w", spec.Key, err)
		}
		if !ok {
			return "", false, nil
		}
		if spec.Validate != nil {
			if verr := spec.Validate(value); verr != nil {
				logger.Info("value for %s rejected: %v", spec.Key, verr)
				req.Notice = verr.Error()
				continue
			}
		}
		return value, true, nil
	}
	return "", false, nil
}

// persist writes a resolved value to its designated store. Secret-kind
// values only ever go to the secret store.
func (s *ResolutionService) persist(ctx context.Context, spec *domain.FieldSpec, value string) error {
	if !spec.Persists() {
		return nil
	}

	if spec.IsSecret() {
		if s.secrets == nil {
			return fmt.Errorf("storing secret %s: no secret store wired", spec.SecretStoreKey())
		}
		if err := s.secrets.Set(ctx, spec.SecretStoreKey(), value); err != nil {
			return fmt.Errorf("storing secret %s: %w", spec.SecretStoreKey(), err)
		}
		return nil
	}

	if s.settings != nil {
		if err := s.settings.Set(spec.SettingKey, value); err != nil {
			return fmt.Errorf("storing setting %s: %w", spec.SettingKey, err)
		}
	}
	return nil
}
