// Package index maintains the optional multi-run listing index.
//
// The index file (.runs-index.json, a sibling of the organization
// directories) is strictly a performance cache over the run directories.
// Listing tries the cache first and falls back to a full directory scan when
// the cache is absent or unreadable; correctness never depends on the cache
// being present or fresh. Rebuild recomputes the cache from the fallback
// path and replaces it atomically.
package index
