package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/czmobin/karlancer/internal/model"
)

const (
	// minOutputChars is the cleaned-output length below which an analysis is
	// rejected as too short to be a usable proposal.
	minOutputChars = 200

	inputDirName  = "projects"
	outputDirName = "proposals"
)

// noiseSubstrings are dropped from the analyzer's stdout line by line
// (case-insensitive): interactive-session chrome, not analysis content.
var noiseSubstrings = []string{"trust", "folder", "security", "────"}

// Invoker runs the external analysis command against one project at a time.
type Invoker struct {
	command    string
	timeout    time.Duration
	promptFile string // optional override; empty means the embedded prompt
	dataDir    string
	inputDir   string
	outputDir  string
	logger     *slog.Logger
}

// NewInvoker creates an invoker rooted at dataDir and ensures its input and
// output directories exist. A directory that cannot be created is fatal.
func NewInvoker(command string, timeout time.Duration, promptFile, dataDir string, logger *slog.Logger) (*Invoker, error) {
	inv := &Invoker{
		command:    command,
		timeout:    timeout,
		promptFile: promptFile,
		dataDir:    dataDir,
		inputDir:   filepath.Join(dataDir, inputDirName),
		outputDir:  filepath.Join(dataDir, outputDirName),
		logger:     logger,
	}
	for _, dir := range []string{inv.inputDir, inv.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return inv, nil
}

// SaveInput renders the project into the fixed text template and persists it
// under the input directory. Returns the written file path.
func (inv *Invoker) SaveInput(project model.Project) (string, error) {
	var buf bytes.Buffer
	if err := projectTemplate.Execute(&buf, project); err != nil {
		return "", fmt.Errorf("rendering project %d: %w", project.ID, err)
	}

	path := inv.inputPath(project.ID)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("saving project %d: %w", project.ID, err)
	}
	return path, nil
}

// Analyze runs the external command against the saved project text and returns
// the cleaned result, or an error when the output is unusable. The scratch
// file holding the combined document is removed on every exit path.
func (inv *Invoker) Analyze(ctx context.Context, project model.Project) (*model.Analysis, error) {
	projectText, err := os.ReadFile(inv.inputPath(project.ID))
	if err != nil {
		return nil, fmt.Errorf("reading project %d input: %w", project.ID, err)
	}

	prompt, err := inv.loadPrompt()
	if err != nil {
		return nil, err
	}

	combined := fmt.Sprintf("%s\n\n%s\n\nاین پروژه جدید از کارلنسر اومده:\n\n%s",
		prompt, separator, projectText)

	scratch := filepath.Join(inv.dataDir, fmt.Sprintf("temp_%d.txt", project.ID))
	if err := os.WriteFile(scratch, []byte(combined), 0o644); err != nil {
		return nil, fmt.Errorf("writing scratch file for %d: %w", project.ID, err)
	}
	defer os.Remove(scratch)

	inv.logger.Info("analyzing project", "project_id", project.ID, "command", inv.command)

	runCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.command, scratch)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("analysis of project %d timed out after %v", project.ID, inv.timeout)
		}
		return nil, fmt.Errorf("analysis command for project %d: %w (stderr: %s)",
			project.ID, err, bytes.TrimSpace(stderr.Bytes()))
	}

	cleaned := dropNoiseLines(stdout.String())
	if n := utf8.RuneCountInString(cleaned); n <= minOutputChars {
		return nil, fmt.Errorf("analysis of project %d too short (%d chars)", project.ID, n)
	}

	outPath, err := inv.saveResult(project.ID, cleaned)
	if err != nil {
		return nil, err
	}

	stars, decision := parseRecommendation(cleaned)
	inv.logger.Info("analysis complete",
		"project_id", project.ID,
		"chars", utf8.RuneCountInString(cleaned),
		"stars", stars,
		"decision", decision,
	)

	return &model.Analysis{
		ProjectID: project.ID,
		Text:      cleaned,
		File:      outPath,
		Stars:     stars,
		Decision:  decision,
	}, nil
}

const separator = "================================================================================"

// HeaderLines is the number of lines the saved analysis file prepends before
// the analysis text. The submission gateway strips exactly this many.
const HeaderLines = 4

// saveResult writes the cleaned analysis with an id+timestamp header.
func (inv *Invoker) saveResult(projectID int64, cleaned string) (string, error) {
	path := filepath.Join(inv.outputDir, fmt.Sprintf("project_%d_analysis.txt", projectID))
	content := fmt.Sprintf("Project ID: %d\nتاریخ: %s\n%s\n\n%s\n",
		projectID, time.Now().Format("2006-01-02 15:04:05"), separator, cleaned)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("saving analysis for %d: %w", projectID, err)
	}
	return path, nil
}

func (inv *Invoker) loadPrompt() (string, error) {
	if inv.promptFile == "" {
		return defaultPromptRaw, nil
	}
	data, err := os.ReadFile(inv.promptFile)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}
	return string(data), nil
}

func (inv *Invoker) inputPath(projectID int64) string {
	return filepath.Join(inv.inputDir, fmt.Sprintf("project_%d.txt", projectID))
}
