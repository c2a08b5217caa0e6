package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
)

// fakeSink scripts export results per attempt and records calls.
type fakeSink struct {
	kind       string
	options    map[string]string
	specs      []domain.FieldSpec
	validation domain.Validation
	results    []domain.ExportResult
	attempts   int
	panicOn    bool
}

func newFakeSink(kind string) *fakeSink {
	return &fakeSink{
		kind:       kind,
		options:    make(map[string]string),
		validation: domain.Validation{OK: true},
	}
}

func (s *fakeSink) Kind() string                    { return s.kind }
func (s *fakeSink) Options() map[string]string      { return s.options }
func (s *fakeSink) Requirements() []domain.FieldSpec { return s.specs }
func (s *fakeSink) Validate() domain.Validation     { return s.validation }

func (s *fakeSink) Export(context.Context, *domain.Session) domain.ExportResult {
	if s.panicOn {
		panic("boom")
	}
	i := s.attempts
	s.attempts++
	if i < len(s.results) {
		return s.results[i]
	}
	return domain.Succeeded("done")
}

// fakeResolver returns canned values per field key and records calls.
type fakeResolver struct {
	values   map[string]string
	requests []driving.ResolveRequest
	err      error
}

func (r *fakeResolver) Resolve(_ context.Context, req driving.ResolveRequest) (string, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return "", r.err
	}
	return r.values[req.Spec.Key], nil
}

func exportFixture(t *testing.T, resolver driving.FieldResolver, sinks ...*fakeSink) (*ExportService, []domain.SinkConfig) {
	t.Helper()
	registry := NewSinkRegistry()
	configs := make([]domain.SinkConfig, 0, len(sinks))
	for _, sink := range sinks {
		sink := sink
		registry.Register(sink.kind, func(domain.SinkConfig) (driven.Sink, error) {
			return sink, nil
		})
		configs = append(configs, domain.SinkConfig{Kind: sink.kind, Enabled: true})
	}
	return NewExportService(registry, resolver), configs
}

func TestExportService_Export_OrderedResults(t *testing.T) {
	a := newFakeSink("a")
	b := newFakeSink("b")
	c := newFakeSink("c")
	svc, configs := exportFixture(t, &fakeResolver{}, a, b, c)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Kind)
	assert.Equal(t, "b", results[1].Kind)
	assert.Equal(t, "c", results[2].Kind)
	for _, r := range results {
		assert.True(t, r.OK)
	}
}

func TestExportService_Export_FailureDoesNotAbortSiblings(t *testing.T) {
	bad := newFakeSink("bad")
	bad.results = []domain.ExportResult{domain.Failed(domain.CodeNetworkError, assert.AnError)}
	good := newFakeSink("good")
	svc, configs := exportFixture(t, &fakeResolver{}, bad, good)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Equal(t, domain.CodeNetworkError, results[0].Code)
	assert.True(t, results[1].OK)
	assert.Equal(t, 1, good.attempts)
}

func TestExportService_Export_PanicBecomesFailedResult(t *testing.T) {
	angry := newFakeSink("angry")
	angry.panicOn = true
	calm := newFakeSink("calm")
	svc, configs := exportFixture(t, &fakeResolver{}, angry, calm)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Equal(t, domain.CodeInternal, results[0].Code)
	assert.Contains(t, results[0].Message, "panic")
	assert.True(t, results[1].OK)
}

func TestExportService_Export_MissingRequiredSkipsGracefully(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	// Resolver has no value and no prompter: the field stays absent.
	svc, configs := exportFixture(t, &fakeResolver{}, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK, "a skip is not a failure")
	assert.Equal(t, domain.CodeMissingField, results[0].Code)
	assert.Contains(t, results[0].Message, "jira.token")
	assert.Zero(t, sink.attempts, "export must not run for a skipped sink")
}

func TestExportService_Export_ValidateMissingSkipsGracefully(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.domain", Scope: domain.ScopeSetup, SettingKey: "sink.jira.option.domain"},
	}
	sink.validation = domain.Validation{Missing: []string{"jira.domain"}}
	svc, configs := exportFixture(t, &fakeResolver{}, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, domain.CodeMissingField, results[0].Code)
	assert.Zero(t, sink.attempts)
}

func TestExportService_Export_HydratesOptionsAndSession(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.domain", Scope: domain.ScopeSetup, Required: true, SettingKey: "sink.jira.option.domain"},
		{Key: "jira.ticket", Scope: domain.ScopeRuntime, Required: true},
	}
	resolver := &fakeResolver{values: map[string]string{
		"jira.domain": "acme.atlassian.net",
		"jira.ticket": "PROJ-1",
	}}
	svc, configs := exportFixture(t, resolver, sink)

	session := &domain.Session{ID: "s1"}
	results := svc.Export(context.Background(), session, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, "acme.atlassian.net", sink.options["domain"])
	assert.Equal(t, "PROJ-1", session.TicketKey, "runtime value lands on the session")
}

func TestExportService_Export_SessionValueSeedsRuntimeField(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.ticket", Scope: domain.ScopeRuntime, Required: true},
	}
	resolver := &fakeResolver{values: map[string]string{"jira.ticket": "ignored"}}
	svc, configs := exportFixture(t, resolver, sink)

	session := &domain.Session{ID: "s1", TicketKey: "PROJ-5"}
	svc.Export(context.Background(), session, configs)

	require.Len(t, resolver.requests, 1)
	assert.Equal(t, "PROJ-5", resolver.requests[0].Current, "session value passed as current")
}

func TestExportService_Export_RetryableFieldReResolved(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	sink.results = []domain.ExportResult{
		domain.RetryField(domain.CodeAuthError, "jira.token", "401"),
	}
	resolver := &fakeResolver{values: map[string]string{"jira.token": "fresh-token"}}
	svc, configs := exportFixture(t, resolver, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, 2, sink.attempts)

	// Hydration resolve plus one forced re-resolve.
	require.Len(t, resolver.requests, 2)
	assert.False(t, resolver.requests[0].Force)
	assert.True(t, resolver.requests[1].Force)
	assert.Equal(t, "fresh-token", sink.options["token"])
}

func TestExportService_Export_RetryBoundIsThreeAttempts(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	reject := domain.RetryField(domain.CodeAuthError, "jira.token", "401")
	sink.results = []domain.ExportResult{reject, reject, reject, reject}
	resolver := &fakeResolver{values: map[string]string{"jira.token": "still-bad"}}
	svc, configs := exportFixture(t, resolver, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, MaxExportAttempts, sink.attempts)
}

func TestExportService_Export_RetryStopsWhenReResolveAbsent(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	sink.results = []domain.ExportResult{
		domain.RetryField(domain.CodeAuthError, "jira.token", "401"),
	}
	// Hydration resolves a value; the forced re-resolve does not (the
	// user cancelled the prompt).
	resolver := &fakeResolver{values: map[string]string{}}
	sink.options["token"] = "initial"
	svc, configs := exportFixture(t, resolver, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, 1, sink.attempts, "no second attempt without a new value")
}

func TestExportService_Export_UndeclaredRejectedFieldNotRetried(t *testing.T) {
	sink := newFakeSink("jira")
	sink.specs = []domain.FieldSpec{
		{Key: "jira.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	sink.options["token"] = "tok"
	sink.results = []domain.ExportResult{
		domain.RetryField(domain.CodeInvalidField, "jira.unknown", "rejected"),
	}
	svc, configs := exportFixture(t, &fakeResolver{}, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, 1, sink.attempts)
}

func TestExportService_Export_ScriptedPromptsPersistAndInject(t *testing.T) {
	// End to end through the real resolution service: two unresolved
	// required setup fields are prompted, persisted to their designated
	// stores, injected into the options bag, and the export succeeds.
	prompter := &scriptedPrompter{answers: []*string{
		answer("acme.example.com"),
		answer("tok-123"),
	}}
	resolver, secrets, settings := newResolutionFixture(prompter)

	sink := newFakeSink("svc")
	sink.specs = []domain.FieldSpec{
		{Key: "svc.domain", Scope: domain.ScopeSetup, Required: true, SettingKey: "sink.svc.option.domain"},
		{Key: "svc.token", Kind: domain.FieldSecret, Scope: domain.ScopeSetup, Required: true},
	}
	svc, configs := exportFixture(t, resolver, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, 1, sink.attempts)

	assert.Equal(t, "acme.example.com", sink.options["domain"])
	assert.Equal(t, "tok-123", sink.options["token"])

	assert.Equal(t, "acme.example.com", settings.GetString("sink.svc.option.domain"))
	stored, ok, err := secrets.Get(context.Background(), "svc.token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-123", stored)

	assert.Equal(t, 1, prompter.inputCalls)
	assert.Equal(t, 1, prompter.secretCalls)
}

func TestExportService_Export_NoRequirementsGoesStraightToExport(t *testing.T) {
	sink := newFakeSink("plain")
	sink.validation = domain.Validation{} // would skip if consulted
	svc, configs := exportFixture(t, &fakeResolver{}, sink)

	results := svc.Export(context.Background(), &domain.Session{ID: "s1"}, configs)

	require.Len(t, results, 1)
	assert.True(t, results[0].OK)
	assert.Equal(t, 1, sink.attempts)
}
