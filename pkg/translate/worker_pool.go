package translate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	Engine EngineType
	// PythonPath is the interpreter, "python3" by default.
	PythonPath string
	// ScriptPath is the worker script. It must accept --socket and --model,
	// listen on the socket and answer one JSON request per connection.
	ScriptPath string
	// Model is passed to the worker, e.g. "facebook/nllb-200-distilled-600M".
	Model string
	// Workers is the number of processes; each holds its own model copy.
	Workers int
	// SocketDir holds the Unix sockets, a temp directory by default.
	SocketDir string
	// StartTimeout bounds model loading before the socket appears.
	StartTimeout time.Duration
	// AcquireTimeout bounds the wait for an idle worker.
	AcquireTimeout time.Duration
	// Languages is what SupportedLanguages reports.
	Languages []string
}

const (
	defaultWorkerScript   = "/app/scripts/nllb_worker.py"
	defaultStartTimeout   = 2 * time.Minute
	defaultAcquireTimeout = 30 * time.Second
	defaultRequestTimeout = 5 * time.Minute
	restartBackoff        = time.Second
)

// WorkerPool manages a pool of Python model workers reached over Unix
// domain sockets. A dead worker is restarted until the pool is closed.
type WorkerPool struct {
	cfg     PoolConfig
	logger  *logrus.Logger
	metrics poolMetrics

	mu      sync.RWMutex
	workers map[int]*modelWorker

	ready     chan *modelWorker
	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type modelWorker struct {
	id         int
	cmd        *exec.Cmd
	socketPath string
	started    time.Time
	exited     chan struct{}
	logger     *logrus.Entry

	mu   sync.Mutex
	busy bool
}

type workerRequest struct {
	Text   string `json:"text"`
	Source string `json:"src_lang"`
	Target string `json:"tgt_lang"`
}

type workerResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translated_text,omitempty"`
	Error          string `json:"error,omitempty"`
}

// NewWorkerPool starts cfg.Workers processes. Workers that fail to start are
// retried in the background.
func NewWorkerPool(cfg PoolConfig, logger *logrus.Logger) (*WorkerPool, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineNLLB
	}
	if cfg.PythonPath == "" {
		cfg.PythonPath = "python3"
	}
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = defaultWorkerScript
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = filepath.Join(os.TempDir(), "lingosense-workers")
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if err := os.MkdirAll(cfg.SocketDir, 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	p := &WorkerPool{
		cfg:      cfg,
		logger:   logger,
		metrics:  poolMetrics{engine: string(cfg.Engine)},
		workers:  make(map[int]*modelWorker, cfg.Workers),
		ready:    make(chan *modelWorker, cfg.Workers*4),
		shutdown: make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		if err := p.startWorker(i, false); err != nil {
			logger.WithError(err).WithField("worker_id", i).Warn("Failed to start initial worker, will retry")
			p.wg.Add(1)
			go p.restartLater(i)
		}
	}

	p.wg.Add(1)
	go p.updateMetricsLoop()

	return p, nil
}

func (p *WorkerPool) closing() bool {
	select {
	case <-p.shutdown:
		return true
	default:
		return false
	}
}

// startWorker launches worker id and waits for its socket.
func (p *WorkerPool) startWorker(id int, restart bool) error {
	socketPath := filepath.Join(p.cfg.SocketDir, fmt.Sprintf("worker-%d.sock", id))
	_ = os.Remove(socketPath)

	args := []string{p.cfg.ScriptPath, "--socket", socketPath}
	if p.cfg.Model != "" {
		args = append(args, "--model", p.cfg.Model)
	}
	cmd := exec.Command(p.cfg.PythonPath, args...)
	cmd.WaitDelay = time.Second

	entry := p.logger.WithFields(logrus.Fields{"engine": p.cfg.Engine, "worker_id": id})
	stderr := entry.WriterLevel(logrus.WarnLevel)
	cmd.Stderr = stderr

	w := &modelWorker{
		id:         id,
		cmd:        cmd,
		socketPath: socketPath,
		exited:     make(chan struct{}),
		logger:     entry,
	}
	if err := cmd.Start(); err != nil {
		stderr.Close()
		return fmt.Errorf("start worker %d: %w", id, err)
	}
	w.started = time.Now()

	go func() {
		err := cmd.Wait()
		stderr.Close()
		close(w.exited)
		if !p.closing() {
			w.logger.WithError(err).Warn("Worker process exited")
		}
	}()

	if err := waitForSocket(socketPath, w.exited, p.cfg.StartTimeout); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("worker %d: %w", id, err)
	}

	p.mu.Lock()
	p.workers[id] = w
	p.mu.Unlock()

	p.enqueue(w)
	p.metrics.workerStarted(id, restart)
	w.logger.Info("Worker started")

	p.wg.Add(1)
	go p.supervise(w)
	return nil
}

func waitForSocket(path string, exited <-chan struct{}, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-exited:
			return errors.New("process exited before socket was created")
		case <-deadline.C:
			return fmt.Errorf("socket %s not created within %s", path, timeout)
		case <-tick.C:
		}
	}
}

// supervise restarts w after its process exits.
func (p *WorkerPool) supervise(w *modelWorker) {
	defer p.wg.Done()

	select {
	case <-p.shutdown:
		return
	case <-w.exited:
	}

	p.wg.Add(1)
	go p.restartLater(w.id)
}

func (p *WorkerPool) restartLater(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.shutdown:
			return
		case <-time.After(restartBackoff):
		}
		err := p.startWorker(id, true)
		if err == nil {
			return
		}
		p.logger.WithError(err).WithField("worker_id", id).Error("Failed to restart worker")
	}
}

func (p *WorkerPool) updateMetricsLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.metrics.observe(p.snapshot())
		}
	}
}

func (p *WorkerPool) snapshot() []workerSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]workerSnapshot, 0, len(p.workers))
	for _, w := range p.workers {
		w.mu.Lock()
		s := workerSnapshot{id: w.id, running: w.alive(), busy: w.busy, started: w.started}
		w.mu.Unlock()
		if w.cmd.Process != nil {
			s.pid = w.cmd.Process.Pid
		}
		out = append(out, s)
	}
	return out
}

func (w *modelWorker) alive() bool {
	select {
	case <-w.exited:
		return false
	default:
		return true
	}
}

// acquire takes an idle, live worker from the pool.
func (p *WorkerPool) acquire(ctx context.Context) (*modelWorker, error) {
	start := time.Now()
	timeout := time.NewTimer(p.cfg.AcquireTimeout)
	defer timeout.Stop()

	for {
		select {
		case w := <-p.ready:
			if !w.alive() {
				continue
			}
			p.metrics.queueWait(time.Since(start))
			w.mu.Lock()
			w.busy = true
			w.mu.Unlock()
			return w, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.shutdown:
			return nil, errors.New("worker pool closed")
		case <-timeout.C:
			return nil, fmt.Errorf("no worker available after %s", p.cfg.AcquireTimeout)
		}
	}
}

func (p *WorkerPool) release(w *modelWorker) {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
	if w.alive() && !p.closing() {
		p.enqueue(w)
	}
}

// enqueue marks w idle. The queue has room for stale entries left by dead
// workers; acquire discards those.
func (p *WorkerPool) enqueue(w *modelWorker) {
	select {
	case p.ready <- w:
	default:
		w.logger.Warn("Worker queue full, dropping worker")
	}
}

// Translate sends one request to an idle worker.
func (p *WorkerPool) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	w, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.release(w)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", w.socketPath)
	p.metrics.socketConnection(w.id, err)
	if err != nil {
		return "", fmt.Errorf("connect to worker %d: %w", w.id, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRequestTimeout)
	}
	_ = conn.SetDeadline(deadline)

	if err := json.NewEncoder(conn).Encode(workerRequest{Text: text, Source: sourceTag, Target: targetTag}); err != nil {
		return "", fmt.Errorf("send request to worker %d: %w", w.id, err)
	}

	var resp workerResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return "", fmt.Errorf("read response from worker %d: %w", w.id, err)
	}
	if !resp.Success {
		return "", fmt.Errorf("worker %d: %s", w.id, resp.Error)
	}
	return resp.TranslatedText, nil
}

// CheckHealth reports an error when no worker process is running.
func (p *WorkerPool) CheckHealth(ctx context.Context) error {
	for _, s := range p.snapshot() {
		if s.running {
			return nil
		}
	}
	return errors.New("no running workers")
}

// SupportedLanguages returns the configured language tags.
func (p *WorkerPool) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), p.cfg.Languages...), nil
}

// Close stops all workers and waits for the supervisors to exit.
func (p *WorkerPool) Close() error {
	p.closeOnce.Do(func() {
		close(p.shutdown)

		p.mu.Lock()
		for _, w := range p.workers {
			if w.cmd.Process != nil && w.alive() {
				_ = w.cmd.Process.Kill()
			}
			_ = os.Remove(w.socketPath)
		}
		p.mu.Unlock()

		p.wg.Wait()
	})
	return nil
}

// processRSS reads the resident set size of pid from /proc. It returns 0 when
// the value is unavailable.
func processRSS(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
