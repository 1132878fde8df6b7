package runid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors distinguishing malformed identifiers from identifiers that
// resolve outside the base directory. The distinction matters for audit: a
// traversal attempt is not a typo.
var (
	ErrInvalidRunID  = errors.New("invalid run id")
	ErrPathTraversal = errors.New("run id escapes base directory")
)

// segmentRe matches a single path segment: alphanumeric at both ends,
// hyphens/underscores allowed inside.
var segmentRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]*[A-Za-z0-9])?$`)

// RunID is a validated run identifier. Exactly one of the two shapes is set:
// the strict organization/project/uuid triple, or the shorter plan/suffix
// form used by plan-based callers.
type RunID struct {
	Organization string
	Project      string
	UUID         string

	Plan   string
	Suffix string

	raw string
}

// String returns the original identifier.
func (r RunID) String() string { return r.raw }

// Segments returns the identifier's path segments in order.
func (r RunID) Segments() []string { return strings.Split(r.raw, "/") }

// IsTriple reports whether the identifier is the strict
// organization/project/uuid form.
func (r RunID) IsTriple() bool { return r.UUID != "" }

// Validate parses and validates a candidate run identifier. It accepts the
// strict triple {organization}/{project}/{uuid} and the two-segment
// {plan}/{suffix} form. It performs no filesystem access.
//
// Traversal-shaped input (absolute paths, dot segments) is classified as
// ErrPathTraversal before the grammar check so it is never reported as a
// mere format error.
func Validate(raw string) (RunID, error) {
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, `\`) {
		return RunID{}, fmt.Errorf("%w: absolute path %q", ErrPathTraversal, raw)
	}
	segs := strings.Split(raw, "/")
	for _, s := range segs {
		if s == "." || s == ".." {
			return RunID{}, fmt.Errorf("%w: dot segment in %q", ErrPathTraversal, raw)
		}
	}
	switch len(segs) {
	case 3:
		for _, s := range segs[:2] {
			if !segmentRe.MatchString(s) {
				return RunID{}, fmt.Errorf("%w: bad segment %q", ErrInvalidRunID, s)
			}
		}
		if !isCanonicalUUID(segs[2]) {
			return RunID{}, fmt.Errorf("%w: %q is not a canonical uuid", ErrInvalidRunID, segs[2])
		}
		return RunID{Organization: segs[0], Project: segs[1], UUID: segs[2], raw: raw}, nil
	case 2:
		for _, s := range segs {
			if !segmentRe.MatchString(s) {
				return RunID{}, fmt.Errorf("%w: bad segment %q", ErrInvalidRunID, s)
			}
		}
		return RunID{Plan: segs[0], Suffix: segs[1], raw: raw}, nil
	default:
		return RunID{}, fmt.Errorf("%w: expected 2 or 3 segments, got %d", ErrInvalidRunID, len(segs))
	}
}

// isCanonicalUUID accepts only the 8-4-4-4-12 lower/upper hex form. uuid.Parse
// alone is too permissive (it also takes braced and urn: forms), so we require
// the round-trip to preserve the canonical shape.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.String(), s)
}

// Resolver maps validated run identifiers onto directories under a fixed
// base directory, rejecting anything that escapes it.
type Resolver struct {
	base string
}

// NewResolver canonicalizes base and returns a Resolver. The base directory
// must exist.
func NewResolver(base string) (*Resolver, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	return &Resolver{base: canon}, nil
}

// Base returns the canonical base directory.
func (r *Resolver) Base() string { return r.base }

// Resolve validates raw and returns the absolute run directory path. The
// returned path is guaranteed to be a strict descendant of the base
// directory after symlink resolution; a path that resolves elsewhere yields
// ErrPathTraversal. Existence of the directory is not checked here.
func (r *Resolver) Resolve(raw string) (string, RunID, error) {
	id, err := Validate(raw)
	if err != nil {
		return "", RunID{}, err
	}
	joined := filepath.Join(r.base, filepath.FromSlash(id.raw))
	canon, err := canonicalize(joined)
	if err != nil {
		return "", RunID{}, err
	}
	if !isDescendant(r.base, canon) {
		return "", RunID{}, fmt.Errorf("%w: %s", ErrPathTraversal, raw)
	}
	return canon, id, nil
}

// canonicalize resolves symlinks for as much of path as exists, re-joining
// any not-yet-created tail lexically.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	dir, tail := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := canonicalize(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, tail), nil
}

// isDescendant reports whether path is strictly under base. The check is on
// whole path components, so a sibling like base-evil never passes.
func isDescendant(base, path string) bool {
	if path == base {
		return false
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
