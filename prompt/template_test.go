package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseRequiresBothPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		missing []string
	}{
		{"both", "hi {channel}\n{chat_text}", nil},
		{"no channel", "chat: {chat_text}", []string{ChannelPlaceholder}},
		{"no chat", "hello {channel}", []string{ChatTextPlaceholder}},
		{"neither", "just text", []string{ChannelPlaceholder, ChatTextPlaceholder}},
		{"wrong name", "{twitch_channel} {chat_text}", []string{ChannelPlaceholder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingPlaceholder) {
				t.Fatalf("err = %v, want ErrMissingPlaceholder", err)
			}
			for _, m := range tt.missing {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("error %q does not name %s", err, m)
				}
			}
		})
	}
}

func TestDefaultTemplateIsValid(t *testing.T) {
	if _, err := Parse(DefaultTemplate); err != nil {
		t.Fatalf("default template: %v", err)
	}
}

func TestRender(t *testing.T) {
	tpl := MustParse("Hey {channel}! Chat said:\n{chat_text}")
	got := tpl.Render("pixie", "a: {channel}\nb: hi")
	want := "Hey pixie! Chat said:\na: {channel}\nb: hi"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestSourceSet(t *testing.T) {
	a := MustParse("a {channel} {chat_text}")
	b := MustParse("b {channel} {chat_text}")
	src := NewSource(a)
	if src.Current() != a {
		t.Fatal("Current should return initial template")
	}
	src.Set(b)
	if src.Current() != b {
		t.Fatal("Set did not swap template")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(good, []byte("{channel} {chat_text}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{channel}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(good); err != nil {
		t.Fatalf("LoadFile(good): %v", err)
	}
	if _, err := LoadFile(bad); !errors.Is(err, ErrMissingPlaceholder) {
		t.Fatalf("LoadFile(bad) = %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("LoadFile(missing) should fail")
	}
}

func TestReloadKeepsPreviousOnInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	orig := MustParse("orig {channel} {chat_text}")
	src := NewSource(orig)

	if err := os.WriteFile(path, []byte("broken {channel}"), 0o644); err != nil {
		t.Fatal(err)
	}
	reload(path, src)
	if src.Current() != orig {
		t.Fatal("invalid template replaced the previous one")
	}

	if err := os.WriteFile(path, []byte("new {channel} {chat_text}"), 0o644); err != nil {
		t.Fatal(err)
	}
	reload(path, src)
	if got := src.Current().String(); got != "new {channel} {chat_text}" {
		t.Fatalf("Current = %q after valid reload", got)
	}
}

func TestWatchFilePicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("v1 {channel} {chat_text}"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewSource(MustParse("v1 {channel} {chat_text}"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchFile(ctx, path, src) }()

	want := "v2 {channel} {chat_text}"
	deadline := time.Now().Add(5 * time.Second)
	for src.Current().String() != want {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("template not reloaded, still %q", src.Current().String())
		}
		// rewrite until the watcher is registered and sees it
		if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("WatchFile returned %v", err)
	}
}
