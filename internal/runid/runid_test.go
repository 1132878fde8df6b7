package runid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const goodUUID = "6a1f0a6e-3c1d-4b2a-9f3e-8d7c6b5a4e2d"

func TestValidateTriple(t *testing.T) {
	id, err := Validate("acme/website/" + goodUUID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.Organization != "acme" || id.Project != "website" || id.UUID != goodUUID {
		t.Fatalf("parsed fields: %+v", id)
	}
	if !id.IsTriple() {
		t.Fatalf("expected triple form")
	}
}

func TestValidatePlanForm(t *testing.T) {
	id, err := Validate("release-plan/attempt_2")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.Plan != "release-plan" || id.Suffix != "attempt_2" {
		t.Fatalf("parsed fields: %+v", id)
	}
	if id.IsTriple() {
		t.Fatalf("plan form is not a triple")
	}
}

func TestValidateRejects(t *testing.T) {
	bad := []string{
		"",
		"acme",
		"acme/web/site/" + goodUUID,
		"acme/website/not-a-uuid",
		"acme/website/" + goodUUID + "x",
		"-acme/website/" + goodUUID,
		"acme-/website/" + goodUUID,
		"acme/web site/" + goodUUID,
		"acme/website/{6a1f0a6e-3c1d-4b2a-9f3e-8d7c6b5a4e2d}",
	}
	for _, raw := range bad {
		if _, err := Validate(raw); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("expected ErrInvalidRunID for %q, got %v", raw, err)
		}
	}
}

func TestValidateClassifiesTraversal(t *testing.T) {
	traversal := []string{
		"../etc/passwd",
		"../../etc/passwd",
		"acme/../" + goodUUID,
		"org/../evil",
		"acme/./" + goodUUID,
		"/etc/passwd/x",
		"/abs/path",
		`\windows\path`,
	}
	for _, raw := range traversal {
		_, err := Validate(raw)
		if !errors.Is(err, ErrPathTraversal) {
			t.Fatalf("expected ErrPathTraversal for %q, got %v", raw, err)
		}
		if errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("traversal must not be reported as a format error for %q", raw)
		}
	}
}

func TestResolveHappyPath(t *testing.T) {
	base := t.TempDir()
	r, err := NewResolver(base)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	dir, id, err := r.Resolve("acme/website/" + goodUUID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.Organization != "acme" {
		t.Fatalf("id: %+v", id)
	}
	want := filepath.Join(r.Base(), "acme", "website", goodUUID)
	if dir != want {
		t.Fatalf("dir: got %s want %s", dir, want)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "base")
	outside := filepath.Join(root, "outside")
	for _, d := range []string{base, outside, filepath.Join(base, "acme")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	// acme/website points outside the base
	if err := os.Symlink(outside, filepath.Join(base, "acme", "website")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	r, err := NewResolver(base)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	if _, _, err := r.Resolve("acme/website/" + goodUUID); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected ErrPathTraversal, got %v", err)
	}
}

func TestResolveSiblingPrefixIsNotDescendant(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "base")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "base-evil"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !isDescendant(base, filepath.Join(base, "x")) {
		t.Fatalf("direct child should be a descendant")
	}
	if isDescendant(base, filepath.Join(root, "base-evil")) {
		t.Fatalf("sibling with shared prefix must not pass")
	}
	if isDescendant(base, base) {
		t.Fatalf("base itself is not a strict descendant")
	}
}
