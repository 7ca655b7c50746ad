package translate

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serveWorker answers worker requests on a Unix socket the way the Python
// worker does: one JSON request and one JSON response per connection.
func serveWorker(t *testing.T, path string, handle func(workerRequest) workerResponse) {
	t.Helper()

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				var req workerRequest
				if err := json.NewDecoder(c).Decode(&req); err != nil {
					return
				}
				_ = json.NewEncoder(c).Encode(handle(req))
			}(conn)
		}
	}()
}

// newTestPool builds a pool around already running fake workers, bypassing
// process management.
func newTestPool(t *testing.T, sockets ...string) *WorkerPool {
	t.Helper()

	p := &WorkerPool{
		cfg:      PoolConfig{Engine: EngineNLLB, AcquireTimeout: time.Second, Languages: []string{"hin_Deva", "eng_Latn"}},
		logger:   quietLogger(),
		metrics:  poolMetrics{engine: "test"},
		workers:  map[int]*modelWorker{},
		ready:    make(chan *modelWorker, 4*len(sockets)+1),
		shutdown: make(chan struct{}),
	}
	for i, path := range sockets {
		w := &modelWorker{
			id:         i,
			cmd:        &exec.Cmd{},
			socketPath: path,
			started:    time.Now(),
			exited:     make(chan struct{}),
			logger:     p.logger.WithField("worker_id", i),
		}
		p.workers[i] = w
		p.ready <- w
	}
	return p
}

func socketDir(t *testing.T) string {
	t.Helper()
	// Unix socket paths are length-limited; t.TempDir can be too deep.
	dir, err := os.MkdirTemp("", "lsw")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestWorkerPoolTranslate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(socketDir(t), "w0.sock")
	serveWorker(t, path, func(req workerRequest) workerResponse {
		if req.Target != "eng_Latn" {
			return workerResponse{Success: false, Error: "unsupported target " + req.Target}
		}
		return workerResponse{Success: true, TranslatedText: "I have to come after class"}
	})

	p := newTestPool(t, path)
	ctx := context.Background()

	out, err := p.Translate(ctx, "मुझे कक्षा के बाद आना है", "hin_Deva", "eng_Latn")
	require.NoError(t, err)
	require.Equal(t, "I have to come after class", out)

	// The worker went back to the pool.
	_, err = p.Translate(ctx, "x", "hin_Deva", "xxx_Yyyy")
	require.ErrorContains(t, err, "unsupported target xxx_Yyyy")

	require.NoError(t, p.CheckHealth(ctx))
	langs, err := p.SupportedLanguages(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"hin_Deva", "eng_Latn"}, langs)
}

func TestWorkerPoolSkipsDeadWorkers(t *testing.T) {
	t.Parallel()

	dir := socketDir(t)
	live := filepath.Join(dir, "live.sock")
	serveWorker(t, live, func(workerRequest) workerResponse {
		return workerResponse{Success: true, TranslatedText: "ok"}
	})

	p := newTestPool(t, filepath.Join(dir, "dead.sock"), live)
	close(p.workers[0].exited)

	out, err := p.Translate(context.Background(), "x", "a", "b")
	require.NoError(t, err)
	require.Equal(t, "ok", out)
}

func TestWorkerPoolAcquireTimeout(t *testing.T) {
	t.Parallel()

	p := newTestPool(t)
	p.cfg.AcquireTimeout = 50 * time.Millisecond

	_, err := p.Translate(context.Background(), "x", "a", "b")
	require.ErrorContains(t, err, "no worker available")
	require.Error(t, p.CheckHealth(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Translate(ctx, "x", "a", "b")
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessRSS(t *testing.T) {
	t.Parallel()

	require.Zero(t, processRSS(0))
	if _, err := os.Stat("/proc/self/status"); err == nil {
		require.Positive(t, processRSS(os.Getpid()))
	}
}
