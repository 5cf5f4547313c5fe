package clipboard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type stubSink struct {
	name   string
	err    error
	copied string
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Copy(text string) error {
	if s.err != nil {
		return s.err
	}
	s.copied = text
	return nil
}

func TestCopyFirstSinkWins(t *testing.T) {
	first := &stubSink{name: "first"}
	second := &stubSink{name: "second"}

	name, err := Copy("hello", first, second)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if name != "first" {
		t.Errorf("Copy used %q, want first", name)
	}
	if first.copied != "hello" || second.copied != "" {
		t.Errorf("text went to the wrong sink: first=%q second=%q", first.copied, second.copied)
	}
}

func TestCopyFallsThroughOnFailure(t *testing.T) {
	broken := &stubSink{name: "broken", err: errors.New("no display")}
	fallback := &stubSink{name: "fallback"}

	name, err := Copy("digest text", broken, fallback)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if name != "fallback" {
		t.Errorf("Copy used %q, want fallback", name)
	}
	if fallback.copied != "digest text" {
		t.Errorf("fallback copied %q", fallback.copied)
	}
}

func TestCopyAllSinksFail(t *testing.T) {
	broken := &stubSink{name: "broken", err: errors.New("boom")}
	if _, err := Copy("x", broken); err == nil {
		t.Fatal("expected error when every sink fails")
	}
	if _, err := Copy("x"); err == nil {
		t.Fatal("expected error with no sinks")
	}
}

func TestCopySkipsNilSinks(t *testing.T) {
	ok := &stubSink{name: "ok"}
	name, err := Copy("x", nil, ok)
	if err != nil || name != "ok" {
		t.Errorf("Copy = %q, %v", name, err)
	}
}

func TestPromptSink(t *testing.T) {
	var buf bytes.Buffer
	s := &PromptSink{Out: &buf}

	if err := s.Copy("the digest"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "copy the text below manually") {
		t.Errorf("prompt missing manual-copy instruction: %q", out)
	}
	if !strings.Contains(out, "the digest") {
		t.Errorf("prompt missing the literal text: %q", out)
	}
	if s.Name() != PromptSinkName {
		t.Errorf("Name = %q, want %q", s.Name(), PromptSinkName)
	}
}

func TestDefaultEndsWithPrompt(t *testing.T) {
	var buf bytes.Buffer
	sinks := Default(&buf)
	if len(sinks) == 0 {
		t.Fatal("Default returned no sinks")
	}
	last := sinks[len(sinks)-1]
	if last.Name() != PromptSinkName {
		t.Errorf("last sink = %q, want the manual prompt", last.Name())
	}
}
