package translate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SubprocessTranslator talks to a single long-running process over stdin and
// stdout, one JSON object per line in each direction. Requests are
// serialized; the process is started lazily and restarted after it exits.
type SubprocessTranslator struct {
	command []string
	logger  *logrus.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	done   chan struct{}
}

// NewSubprocessTranslator returns a translator that runs command (program
// and arguments) on first use.
func NewSubprocessTranslator(command []string, logger *logrus.Logger) (*SubprocessTranslator, error) {
	if len(command) == 0 {
		return nil, errors.New("subprocess translator: command is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SubprocessTranslator{
		command: append([]string(nil), command...),
		logger:  logger,
	}, nil
}

func (t *SubprocessTranslator) running() bool {
	if t.cmd == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// ensureProcess starts the subprocess if it is not running. Callers hold t.mu.
func (t *SubprocessTranslator) ensureProcess() error {
	if t.running() {
		return nil
	}

	cmd := exec.Command(t.command[0], t.command[1:]...)
	cmd.WaitDelay = time.Second
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr := t.logger.WithField("engine", EngineSubprocess).WriterLevel(logrus.WarnLevel)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stderr.Close()
		return fmt.Errorf("start subprocess: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		stderr.Close()
		close(done)
	}()

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = bufio.NewReader(stdout)
	t.done = done

	t.logger.WithFields(logrus.Fields{
		"engine":  EngineSubprocess,
		"command": t.command[0],
		"pid":     cmd.Process.Pid,
	}).Info("Translation subprocess started")
	return nil
}

type lineResult struct {
	line []byte
	err  error
}

// Translate writes one request line and reads one response line. A context
// that ends mid-request kills the process, since its output stream can no
// longer be trusted.
func (t *SubprocessTranslator) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureProcess(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(workerRequest{Text: text, Source: sourceTag, Target: targetTag})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	if _, err := t.stdin.Write(append(payload, '\n')); err != nil {
		t.kill()
		return "", fmt.Errorf("write request: %w", err)
	}

	result := make(chan lineResult, 1)
	stdout := t.stdout
	go func() {
		line, err := stdout.ReadBytes('\n')
		result <- lineResult{line: line, err: err}
	}()

	var res lineResult
	select {
	case res = <-result:
	case <-ctx.Done():
		t.kill()
		return "", ctx.Err()
	}
	if res.err != nil {
		t.kill()
		return "", fmt.Errorf("read response: %w", res.err)
	}

	var resp workerResponse
	if err := json.Unmarshal(res.line, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("translation failed: %s", resp.Error)
	}
	return resp.TranslatedText, nil
}

// kill terminates the process. Callers hold t.mu.
func (t *SubprocessTranslator) kill() {
	if !t.running() {
		return
	}
	_ = t.stdin.Close()
	_ = t.cmd.Process.Kill()
	<-t.done
}

// CheckHealth starts the subprocess if needed.
func (t *SubprocessTranslator) CheckHealth(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensureProcess()
}

// SupportedLanguages is unknown for an arbitrary subprocess.
func (t *SubprocessTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}

// Close stops the subprocess.
func (t *SubprocessTranslator) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kill()
	return nil
}
