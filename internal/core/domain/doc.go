// Package domain contains the core business entities for timeport:
// work sessions, sink configuration, field specifications, and export
// results. This package has no dependencies on other internal packages
// or external services.
package domain
