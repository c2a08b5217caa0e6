package dropbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

func newTestSink(t *testing.T, uploadFn func(token, path string, payload []byte) error) *Sink {
	t.Helper()
	built, err := New(domain.SinkConfig{Kind: Kind, Options: map[string]string{
		"token": "tok",
		"path":  "/worklogs",
	}})
	require.NoError(t, err)
	sink := built.(*Sink)
	sink.upload = uploadFn
	return sink
}

func TestSink_Requirements_SpecsAreValid(t *testing.T) {
	built, err := New(domain.SinkConfig{Kind: Kind})
	require.NoError(t, err)

	specs := built.Requirements()
	require.Len(t, specs, 2)
	for _, spec := range specs {
		require.NoError(t, spec.Check(), spec.Key)
	}

	assert.Equal(t, "dropbox.token", specs[0].Key)
	assert.Equal(t, domain.FieldSecret, specs[0].Kind)
	assert.Equal(t, "sink.dropbox.option.path", specs[1].SettingKey)
}

func TestSink_Validate(t *testing.T) {
	missing, err := New(domain.SinkConfig{Kind: Kind, Options: map[string]string{"token": "tok"}})
	require.NoError(t, err)
	v := missing.Validate()
	assert.False(t, v.OK)
	assert.Equal(t, []string{"dropbox.path"}, v.Missing)

	good, err := New(domain.SinkConfig{Kind: Kind, Options: map[string]string{
		"token": "tok",
		"path":  "/worklogs",
	}})
	require.NoError(t, err)
	assert.True(t, good.Validate().OK)
}

func TestSink_Export_UploadsRecord(t *testing.T) {
	var gotToken, gotPath string
	var gotPayload []byte
	sink := newTestSink(t, func(token, path string, payload []byte) error {
		gotToken, gotPath, gotPayload = token, path, payload
		return nil
	})

	session := &domain.Session{
		ID:              "s-1",
		Start:           "2026-08-29T09:00:00Z",
		End:             "2026-08-29T10:30:00Z",
		DurationSeconds: 5400,
		Workspace:       "acme",
		Branch:          "main",
		Comment:         "fixed the importer",
	}

	res := sink.Export(context.Background(), session)

	require.True(t, res.OK, res.Message)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "/worklogs/session-s-1.json", gotPath)

	var decoded record
	require.NoError(t, json.Unmarshal(gotPayload, &decoded))
	assert.Equal(t, "s-1", decoded.ID)
	assert.Equal(t, int64(5400), decoded.DurationSeconds)
	assert.Equal(t, "fixed the importer", decoded.Comment)
}

func TestSink_Export_OmitsEmptyOptionalFields(t *testing.T) {
	var gotPayload []byte
	sink := newTestSink(t, func(_, _ string, payload []byte) error {
		gotPayload = payload
		return nil
	})

	res := sink.Export(context.Background(), &domain.Session{ID: "s-2", Start: "a", End: "b"})

	require.True(t, res.OK)
	assert.NotContains(t, string(gotPayload), "workspace")
	assert.NotContains(t, string(gotPayload), "metadata")
}

func TestSink_Export_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      domain.ResultCode
		field     string
		retryable bool
	}{
		{"expired token", errors.New("expired_access_token/"), domain.CodeAuthError, "dropbox.token", true},
		{"bad path", errors.New("path/malformed_path/"), domain.CodeInvalidField, "dropbox.path", true},
		{"transport", errors.New("dial tcp: connection refused"), domain.CodeNetworkError, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newTestSink(t, func(_, _ string, _ []byte) error { return tc.err })

			res := sink.Export(context.Background(), &domain.Session{ID: "s-1"})

			assert.False(t, res.OK)
			assert.Equal(t, tc.code, res.Code)
			assert.Equal(t, tc.field, res.Field)
			assert.Equal(t, tc.retryable, res.Retryable)
		})
	}
}

func TestFilePath(t *testing.T) {
	withID := &domain.Session{ID: "abc", Start: "2026-08-29T09:00:00Z"}
	assert.Equal(t, "/logs/session-abc.json", FilePath("/logs", withID))
	assert.Equal(t, "/logs/session-abc.json", FilePath("/logs/", withID))

	noID := &domain.Session{Start: "2026-08-29T09:00:00Z"}
	assert.Equal(t, "/logs/session-2026-08-29T09:00:00Z.json", FilePath("/logs", noID))
}

func TestValidateFolder(t *testing.T) {
	assert.NoError(t, validateFolder("/worklogs"))
	assert.Error(t, validateFolder("worklogs"))
	assert.Error(t, validateFolder(""))
}
