// Package sinks wires the built-in export destinations into a registry.
package sinks

import (
	"github.com/custodia-labs/timeport-cli/internal/core/services"
	"github.com/custodia-labs/timeport-cli/internal/sinks/csvfile"
	"github.com/custodia-labs/timeport-cli/internal/sinks/dropbox"
	"github.com/custodia-labs/timeport-cli/internal/sinks/gcal"
	"github.com/custodia-labs/timeport-cli/internal/sinks/github"
	"github.com/custodia-labs/timeport-cli/internal/sinks/jira"
	"github.com/custodia-labs/timeport-cli/internal/sinks/notion"
)

// RegisterDefaults registers all built-in sinks with the registry.
// Call this during application initialisation to enable standard sinks.
func RegisterDefaults(r *services.SinkRegistry) {
	r.Register(csvfile.Kind, csvfile.New)
	r.Register(jira.Kind, jira.New)
	r.Register(github.Kind, github.New)
	r.Register(notion.Kind, notion.New)
	r.Register(dropbox.Kind, dropbox.New)
	r.Register(gcal.Kind, gcal.New)
}
