package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()

	fileA := filepath.Join(dir, "a.log")
	fileB := filepath.Join(dir, "b.log")
	fileC := filepath.Join(dir, "c.txt")

	for _, path := range []string{fileA, fileB, fileC} {
		if err := os.WriteFile(path, []byte("test"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	files, err := ExpandGlobs([]string{filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{fileA, fileB}) {
		t.Fatalf("ExpandGlobs() = %v", files)
	}

	files, err = ExpandGlobs([]string{fileC, fileA, filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{fileC, fileA, fileB}) {
		t.Fatalf("ExpandGlobs() = %v, want argument order kept", files)
	}
}

func TestExpandGlobsStdin(t *testing.T) {
	files, err := ExpandGlobs(nil)
	if err != nil {
		t.Fatalf("ExpandGlobs(nil) error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{Stdin}) {
		t.Errorf("ExpandGlobs(nil) = %v, want [-]", files)
	}

	files, err = ExpandGlobs([]string{"-", "-"})
	if err != nil {
		t.Fatalf("ExpandGlobs() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{Stdin}) {
		t.Errorf("ExpandGlobs(-, -) = %v, want [-]", files)
	}
}

func TestExpandGlobsNoMatch(t *testing.T) {
	dir := t.TempDir()

	_, err := ExpandGlobs([]string{filepath.Join(dir, "*.missing")})
	if err == nil {
		t.Fatal("expected error for unmatched glob")
	}
}

func TestExpandGlobsMissingFile(t *testing.T) {
	_, err := ExpandGlobs([]string{filepath.Join(t.TempDir(), "gone.log")})
	if !os.IsNotExist(err) {
		t.Fatalf("ExpandGlobs() error = %v, want not-exist", err)
	}
}
