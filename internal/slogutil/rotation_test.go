package slogutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"64KB", 64 << 10, false},
		{"64k", 64 << 10, false},
		{"10MB", 10 << 20, false},
		{"1G", 1 << 30, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-1", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "apidoc.log")
	rf, err := OpenRotatingFile(path, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		if _, err := rf.Write([]byte(s)); err != nil {
			t.Fatal(err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatal(err)
	}

	read := func(p string) string {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		return string(b)
	}
	if got := read(path); got != "dddddddd\n" {
		t.Errorf("current = %q", got)
	}
	if got := read(path + ".1"); got != "cccccccc\n" {
		t.Errorf(".1 = %q", got)
	}
	if got := read(path + ".2"); got != "bbbbbbbb\n" {
		t.Errorf(".2 = %q", got)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf(".3 should not exist, err = %v", err)
	}
}

func TestRotatingFileWithoutBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	rf, err := OpenRotatingFile(path, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	_, _ = rf.Write([]byte("one\n"))
	_, _ = rf.Write([]byte("two\n"))

	b, _ := os.ReadFile(path)
	if string(b) != "two\n" {
		t.Errorf("content = %q", b)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup expected")
	}
}

func TestWriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "x.log"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = rf.Close()
	if _, err := rf.Write([]byte("x")); err == nil {
		t.Error("write after close should fail")
	}
}

func TestNewWithFile(t *testing.T) {
	var console strings.Builder
	path := filepath.Join(t.TempDir(), "apidoc.log")
	logger, closer, err := New(&console, Options{Format: "text", Level: LevelFromString("warn"), File: path, MaxSize: "1MB", MaxBackups: 1})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("file only")
	logger.Warn("everywhere")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(console.String(), "file only") || !strings.Contains(console.String(), "everywhere") {
		t.Errorf("console = %q", console.String())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "file only") || !strings.Contains(string(b), "everywhere") {
		t.Errorf("file = %q", b)
	}
}

func TestNewErrors(t *testing.T) {
	if _, _, err := New(os.Stderr, Options{Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
	if _, _, err := New(os.Stderr, Options{File: filepath.Join(t.TempDir(), "a.log"), MaxSize: "lots"}); err == nil {
		t.Error("bad size should fail")
	}
}
