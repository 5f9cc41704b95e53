package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/czmobin/karlancer/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeScript writes an executable shell script acting as the fake analyzer.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-analyzer.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func newTestInvoker(t *testing.T, command string, timeout time.Duration) (*Invoker, string) {
	t.Helper()
	dataDir := t.TempDir()
	inv, err := NewInvoker(command, timeout, "", dataDir, discardLogger())
	if err != nil {
		t.Fatalf("NewInvoker: %v", err)
	}
	return inv, dataDir
}

func sampleProject() model.Project {
	return model.Project{
		ID:          42,
		Title:       "ساخت ربات تلگرام",
		Description: "نیاز به یک ربات تلگرام با پایتون دارم",
		MinBudget:   3000000,
		MaxBudget:   6000000,
		JobDuration: 10,
		Rate:        4.5,
		Country:     "تهران",
		Skills:      []model.Skill{{Name: "Python"}, {Name: "Telegram"}},
		URL:         "project/42",
	}
}

// assertNoScratch fails if the combined-document scratch file still exists.
func assertNoScratch(t *testing.T, dataDir string, projectID int64) {
	t.Helper()
	scratch := filepath.Join(dataDir, fmt.Sprintf("temp_%d.txt", projectID))
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("scratch file %s should be removed, stat err = %v", scratch, err)
	}
}

func TestSaveInputRendersTemplate(t *testing.T) {
	inv, _ := newTestInvoker(t, "true", time.Second)

	path, err := inv.SaveInput(sampleProject())
	if err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading input file: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"عنوان: ساخت ربات تلگرام",
		"بودجه: 3,000,000 تا 6,000,000 تومان",
		"زمان: 10 روز",
		"Python, Telegram",
		"https://www.karlancer.com/project/42",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered input missing %q\n%s", want, text)
		}
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	long := strings.Repeat("a", 300)
	script := writeScript(t, `echo "### 🎯 توصیه"
echo "⭐⭐⭐⭐ Take"
echo "`+long+`"`)

	inv, dataDir := newTestInvoker(t, script, 5*time.Second)
	project := sampleProject()
	if _, err := inv.SaveInput(project); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	analysis, err := inv.Analyze(context.Background(), project)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if analysis.ProjectID != 42 {
		t.Errorf("ProjectID = %d, want 42", analysis.ProjectID)
	}
	if analysis.Stars != 4 || analysis.Decision != "Take" {
		t.Errorf("recommendation = %d stars %q, want 4 Take", analysis.Stars, analysis.Decision)
	}

	// Result file persisted with the id header.
	data, err := os.ReadFile(analysis.File)
	if err != nil {
		t.Fatalf("reading analysis file: %v", err)
	}
	if !strings.HasPrefix(string(data), "Project ID: 42\n") {
		t.Errorf("analysis file missing header:\n%s", data[:80])
	}

	assertNoScratch(t, dataDir, 42)
}

func TestAnalyzeOutputTooShort(t *testing.T) {
	// 150 cleaned characters is below the threshold.
	script := writeScript(t, `echo "`+strings.Repeat("b", 150)+`"`)

	inv, dataDir := newTestInvoker(t, script, 5*time.Second)
	project := sampleProject()
	if _, err := inv.SaveInput(project); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	_, err := inv.Analyze(context.Background(), project)
	if err == nil {
		t.Fatal("expected failure for short output")
	}
	if !strings.Contains(err.Error(), "too short") {
		t.Errorf("error = %v, want 'too short'", err)
	}

	assertNoScratch(t, dataDir, 42)
}

func TestAnalyzeDropsNoiseBelowThreshold(t *testing.T) {
	// 250 raw characters, but the noisy lines leave fewer than 200.
	script := writeScript(t, `echo "Do you trust the files in this folder?"
echo "Security notes: `+strings.Repeat("c", 160)+`"
echo "`+strings.Repeat("d", 120)+`"`)

	inv, _ := newTestInvoker(t, script, 5*time.Second)
	project := sampleProject()
	if _, err := inv.SaveInput(project); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	if _, err := inv.Analyze(context.Background(), project); err == nil {
		t.Fatal("noise lines must not count toward the length threshold")
	}
}

func TestAnalyzeNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "boom" >&2
exit 3`)

	inv, dataDir := newTestInvoker(t, script, 5*time.Second)
	project := sampleProject()
	if _, err := inv.SaveInput(project); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	_, err := inv.Analyze(context.Background(), project)
	if err == nil {
		t.Fatal("expected failure for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should carry stderr, got %v", err)
	}

	assertNoScratch(t, dataDir, 42)
}

func TestAnalyzeTimeout(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	inv, dataDir := newTestInvoker(t, script, 100*time.Millisecond)
	project := sampleProject()
	if _, err := inv.SaveInput(project); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}

	_, err := inv.Analyze(context.Background(), project)
	if err == nil {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout", err)
	}

	assertNoScratch(t, dataDir, 42)
}

func TestDropNoiseLines(t *testing.T) {
	in := "real analysis line\nDo you TRUST this?\nanother line\n────────\nSecurity check passed\nfinal"
	got := dropNoiseLines(in)
	want := "real analysis line\nanother line\nfinal"
	if got != want {
		t.Errorf("dropNoiseLines = %q, want %q", got, want)
	}
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		stars    int
		decision string
	}{
		{
			name:     "five stars take",
			text:     "### 🎯 توصیه\n\n⭐⭐⭐⭐⭐ Must take\n\nاین پروژه عالی است.\n\n### 📝 پروپوزال\nمتن",
			stars:    5,
			decision: "Take",
		},
		{
			name:     "two stars skip",
			text:     "🎯 توصیه: ⭐⭐ Skip\n\nاین پروژه مناسب نیست.",
			stars:    2,
			decision: "Skip",
		},
		{
			name:     "persian skip phrase",
			text:     "### توصیه\n⭐ این پروژه را نزن",
			stars:    1,
			decision: "Skip",
		},
		{
			name:     "no section",
			text:     "متن بدون بخش پیشنهاد",
			stars:    0,
			decision: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stars, decision := parseRecommendation(tt.text)
			if stars != tt.stars || decision != tt.decision {
				t.Errorf("parseRecommendation = (%d, %q), want (%d, %q)",
					stars, decision, tt.stars, tt.decision)
			}
		})
	}
}

func TestGroupDigits(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		3000000:  "3,000,000",
		-1500000: "-1,500,000",
	}
	for n, want := range cases {
		if got := groupDigits(n); got != want {
			t.Errorf("groupDigits(%d) = %q, want %q", n, got, want)
		}
	}
}
