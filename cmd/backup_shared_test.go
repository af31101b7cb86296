package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocsync/internal/entity"
)

func Test_normalizeLanguages(t *testing.T) {
	got := normalizeLanguages([]string{" EN ", "", "De"})
	if len(got) != 2 || got[0] != "en" || got[1] != "de" {
		t.Fatalf("unexpected languages: %v", got)
	}
	if normalizeLanguages([]string{" ", ""}) != nil {
		t.Fatal("expected nil for blank input")
	}
}

func Test_mutationOptionsFromFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "x"}
		addMutationFlags(c.Flags())
		c.Flags().StringSlice("segments", nil, "")
		return c
	}

	c := newCmd()
	_ = c.Flags().Set("only-local", "true")
	_ = c.Flags().Set("only-remote", "true")
	if _, err := mutationOptionsFromFlags(c.Flags()); !errors.Is(err, entity.ErrConflictingOptions) {
		t.Fatalf("expected conflicting options, got %v", err)
	}

	c = newCmd()
	_ = c.Flags().Set("only-local", "true")
	_ = c.Flags().Set("segments", "common,context")
	opts, err := mutationOptionsFromFlags(c.Flags())
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 options got %d", len(opts))
	}

	c = newCmd()
	_ = c.Flags().Set("segments", "bogus")
	if _, err := mutationOptionsFromFlags(c.Flags()); err == nil {
		t.Fatal("expected unknown segment error")
	}
}

func Test_wordItemFromFlags(t *testing.T) {
	c := &cobra.Command{Use: "add"}
	addWordFlags(c.Flags())
	c.SetErr(&bytes.Buffer{})
	_ = c.Flags().Set("important", "true")
	_ = c.Flags().Set("lemmas", "run,ran")
	_ = c.Flags().Set("source", "https://example.com/a")

	item, err := wordItemFromFlags(c, " EN ", " ran ")
	if err != nil {
		t.Fatal(err)
	}
	if item.LanguageCode != "en" || item.TargetWord != "ran" || !item.Important {
		t.Fatalf("unexpected item: %+v", item)
	}
	if got := item.LemmasList(); got != "run, ran" {
		t.Fatalf("unexpected lemmas %q", got)
	}
	if len(item.Context) != 1 || item.Context[0].Exact != "ran" {
		t.Fatalf("unexpected context: %+v", item.Context)
	}

	if _, err := wordItemFromFlags(c, "en", "  "); !errors.Is(err, entity.ErrInvalidWordItem) {
		t.Fatalf("expected invalid word item, got %v", err)
	}
}

func Test_cliProgress(t *testing.T) {
	var out bytes.Buffer
	p := newCLIProgress(&out, "导出")
	p.StartTable("en", 2)
	p.Increment("en", 1)
	p.Increment("en", 1)
	p.FinishTable("en")

	text := out.String()
	for _, want := range []string{"开始导出 en (共 2 个单词)", "导出进度 en: 2/2", "完成导出 en: 2/2 个单词"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
	if progressStep(0) != 1000 || progressStep(10) != 1 || progressStep(100000) != 1000 {
		t.Fatal("unexpected progress steps")
	}
}
