package cli

import (
	"strings"
	"testing"
)

func TestHookBlock(t *testing.T) {
	block := hookBlock("@{upstream}..HEAD", "text")

	for _, want := range []string{
		hookMarkerStart,
		hookMarkerEnd,
		`mreview local "@{upstream}..HEAD" --format text`,
		"MREVIEW_EXIT=$?",
		"continuing push",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("hook block missing %q:\n%s", want, block)
		}
	}
	if strings.Contains(block, "exit 1") {
		t.Error("hook must never block a push")
	}
}

func TestUpsertHookBlock_Appends(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook"
	block := hookBlock("origin/main..HEAD", "json")

	got := upsertHookBlock(existing, block)
	if !strings.HasPrefix(got, "#!/bin/sh\nsome-other-hook\n") {
		t.Errorf("existing content not preserved: %q", got)
	}
	if !strings.HasSuffix(got, block) {
		t.Error("block should be appended")
	}
}

func TestUpsertHookBlock_Replaces(t *testing.T) {
	old := hookBlock("a..b", "text")
	existing := "#!/bin/sh\n" + old + "echo after\n"
	block := hookBlock("c..d", "json")

	got := upsertHookBlock(existing, block)
	if strings.Contains(got, `"a..b"`) {
		t.Error("old block should be replaced")
	}
	if strings.Count(got, hookMarkerStart) != 1 {
		t.Errorf("expected exactly one block:\n%s", got)
	}
	if !strings.HasSuffix(got, "echo after\n") {
		t.Errorf("content after block lost:\n%s", got)
	}
}

func TestRemoveHookBlock(t *testing.T) {
	block := hookBlock("a..b", "text")

	got := removeHookBlock("#!/bin/sh\necho before\n" + block + "echo after\n")
	if got != "#!/bin/sh\necho before\necho after\n" {
		t.Errorf("removeHookBlock = %q", got)
	}
	if !onlyShebang(removeHookBlock("#!/bin/sh\n" + block)) {
		t.Error("only the shebang should remain")
	}
	if removeHookBlock("#!/bin/sh\necho hi\n") != "#!/bin/sh\necho hi\n" {
		t.Error("script without block should be unchanged")
	}
}

func TestOnlyShebang(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"#!/bin/sh\n", true},
		{"  #!/usr/bin/env bash \n\n", true},
		{"#!/bin/sh\necho hi\n", false},
	}
	for _, tt := range tests {
		if got := onlyShebang(tt.in); got != tt.want {
			t.Errorf("onlyShebang(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
