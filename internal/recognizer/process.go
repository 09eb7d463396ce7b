package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/Spok95/omr-grader/internal/metrics"
	"github.com/Spok95/omr-grader/internal/models"
)

// Process запускает внешний скрипт: argv + путь к изображению, JSON в stdout.
type Process struct {
	argv []string
	dir  string
}

func NewProcess(argv []string, dir string) *Process {
	return &Process{argv: append([]string(nil), argv...), dir: dir}
}

func (p *Process) Recognize(ctx context.Context, imagePath string) (*models.Recognition, error) {
	if len(p.argv) == 0 {
		return nil, fmt.Errorf("%w: recognizer command is not configured", ErrProcess)
	}
	start := time.Now()
	defer func() { metrics.ObserveRecognizer("process", time.Since(start)) }()

	args := append(append([]string(nil), p.argv[1:]...), imagePath)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	cmd.Dir = p.dir
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrProcess, ctxErr, clip(stderr.String()))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// скрипт при ненулевом коде иногда печатает {"error": ...} в stdout
			diag := clip(stderr.String())
			if diag == "" {
				diag = clip(stdout.String())
			}
			return nil, fmt.Errorf("%w: exit code %d: %s", ErrProcess, exitErr.ExitCode(), diag)
		}
		return nil, fmt.Errorf("%w: %v", ErrProcess, err)
	}
	return Parse(stdout.Bytes())
}
