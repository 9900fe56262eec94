package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/careercraft/internal/flow"
	"github.com/spigell/careercraft/internal/flows"

	"github.com/spf13/cobra"
)

func TestRenderFlows(t *testing.T) {
	registry := flow.NewRegistry()
	if err := flows.Register(registry, offlineCompleter{}); err != nil {
		t.Fatalf("register flows: %v", err)
	}

	out := renderFlows(registry.List())
	for _, want := range []string{"dashboard-summary", "tech-questions", "jobDescription?", "Personalized Study Plan"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
}

func TestWithResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("Jane Doe\nGo developer"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	body, err := withResume([]byte(`{"profession": "Software Engineer"}`), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var input map[string]string
	if err := json.Unmarshal(body, &input); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if input["resumeText"] != "Jane Doe\nGo developer" || input["profession"] != "Software Engineer" {
		t.Fatalf("unexpected input: %v", input)
	}

	if _, err := withResume([]byte(`[1]`), path); err == nil {
		t.Fatalf("expected error for non-object input")
	}
}

func TestReadInput(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("input", "", "")
		c.Flags().String("data", "", "")
		return c
	}

	c := newCmd()
	got, err := readInput(c)
	if err != nil || string(got) != "{}" {
		t.Fatalf("expected empty object, got %q (%v)", got, err)
	}

	c = newCmd()
	_ = c.Flags().Set("input", "-")
	c.SetIn(bytes.NewBufferString(`{"technology": "Go"}`))
	got, err = readInput(c)
	if err != nil || string(got) != `{"technology": "Go"}` {
		t.Fatalf("expected stdin input, got %q (%v)", got, err)
	}

	c = newCmd()
	_ = c.Flags().Set("data", `{"profession": "QA Engineer"}`)
	_ = c.Flags().Set("input", "-")
	got, err = readInput(c)
	if err != nil || string(got) != `{"profession": "QA Engineer"}` {
		t.Fatalf("expected inline data to win, got %q (%v)", got, err)
	}
}

func TestRedactedConfig(t *testing.T) {
	config := &Config{AI: &AIConfig{Gemini: &GeminiConfig{APIKey: "AIzaSyExample1234"}}}

	safe := redacted(config)
	if safe.AI.Gemini.APIKey != "****1234" {
		t.Fatalf("expected redacted key, got %q", safe.AI.Gemini.APIKey)
	}
	if config.AI.Gemini.APIKey != "AIzaSyExample1234" {
		t.Fatalf("original config must not change")
	}
}
