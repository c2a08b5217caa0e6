package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/timeport-cli/internal/core/services"
)

func TestRegisterDefaults(t *testing.T) {
	registry := services.NewSinkRegistry()

	RegisterDefaults(registry)

	for _, kind := range []string{"csv", "jira", "github", "notion", "dropbox", "gcal"} {
		assert.True(t, registry.Has(kind), kind)
	}
	assert.Len(t, registry.Kinds(), 6)
}
