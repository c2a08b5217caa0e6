// Package services implements the export core use cases: the sink
// registry, field resolution, the cache-backed suggestion fetcher, and
// the export orchestrator.
package services
