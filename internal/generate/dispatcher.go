package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

// Request is one expansion of a node.
type Request struct {
	ID      string
	Node    graph.NodeID
	Topic   string
	Options Options
}

// Result is a finished request. Exactly one of Tree and Err is set.
type Result struct {
	Request Request
	Tree    *Tree
	Err     error
}

// Dispatcher runs requests off the caller's loop. At most one request per
// node is in flight; results are collected until Poll drains them, so the
// caller applies them on its own goroutine.
type Dispatcher struct {
	svc     Service
	timeout time.Duration
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[graph.NodeID]context.CancelFunc
	done     []Result
}

func NewDispatcher(svc Service, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		svc:      svc,
		timeout:  timeout,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[graph.NodeID]context.CancelFunc),
	}
}

// Submit starts expanding topic for node. It fails fast on invalid options
// and when node already has a request running.
func (d *Dispatcher) Submit(node graph.NodeID, topic string, opts Options) (Request, error) {
	if d.svc == nil {
		return Request{}, ErrUnavailable
	}
	if err := opts.Validate(); err != nil {
		return Request{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[node]; busy {
		return Request{}, fmt.Errorf("%w: %s", ErrInFlight, node)
	}
	req := Request{ID: typeid.NewRequestID(), Node: node, Topic: topic, Options: opts}
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	d.inflight[node] = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		tree, err := d.svc.Expand(ctx, topic, opts)
		if err == nil {
			tree.Prune(opts.Depth)
			if tree.Size() == 0 {
				err = ErrEmpty
			}
		}
		res := Result{Request: req}
		if err != nil {
			d.log.Warn("generation failed", "node", node, "request", req.ID, "error", err)
			res.Err = fmt.Errorf("expand %q: %w", topic, err)
		} else {
			res.Tree = tree
		}
		d.mu.Lock()
		delete(d.inflight, node)
		d.done = append(d.done, res)
		d.mu.Unlock()
	}()
	return req, nil
}

// InFlight reports whether node has a running request.
func (d *Dispatcher) InFlight(node graph.NodeID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[node]
	return ok
}

// Cancel aborts node's running request. Its result still arrives through
// Poll, carrying the cancellation error.
func (d *Dispatcher) Cancel(node graph.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cancel, ok := d.inflight[node]; ok {
		cancel()
	}
}

// Poll returns and clears the finished results.
func (d *Dispatcher) Poll() []Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.done
	d.done = nil
	return out
}

// Wait blocks until every running request has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels everything and waits for the workers to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
