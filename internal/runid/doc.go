// Package runid validates run identifiers and resolves them onto run
// directories under a configured base directory.
//
// A run identifier is a path-safe composite of either three segments
// ({organization}/{project}/{uuid}) or two ({plan}/{suffix}). Validation is
// purely lexical; resolution additionally canonicalizes the joined path
// (symlinks included) and rejects anything that is not a strict descendant
// of the base directory. Every other component goes through this package
// before touching the filesystem.
package runid
