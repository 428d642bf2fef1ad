// Package confirm asks the user to approve actions before they run.
//
// A Prompter owns one reader goroutine for its input stream. Lines typed
// while no prompt is open are discarded, so a timed-out prompt never
// leaves a stale reader that swallows the answer to the next one.
// Answers can also arrive from the web dashboard through Respond.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds how long a prompt waits for an answer.
const DefaultTimeout = 10 * time.Second

// Messages printed to the user.
const (
	msgInvalid = "Invalid input. Press Y to execute or N to cancel."
	msgTimeout = "Confirmation timeout - action cancelled"
)

// Errors returned by Respond.
var (
	ErrNoPending      = errors.New("confirm: no confirmation pending")
	ErrUnknownRequest = errors.New("confirm: request id does not match the pending confirmation")
)

// Confirmer approves or rejects an action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Request describes the open prompt.
type Request struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Deadline time.Time `json:"deadline"`
}

// Config configures a Prompter.
type Config struct {
	In       io.Reader // nil disables terminal answers
	Out      io.Writer
	Timeout  time.Duration
	Notifier Notifier
	Logger   *slog.Logger

	// OnPending is called when a prompt opens (req non-nil) and closes (nil).
	OnPending func(req *Request)
}

type pending struct {
	req    Request
	lines  chan string
	answer chan bool
}

// Prompter is a terminal and web backed Confirmer.
type Prompter struct {
	in        io.Reader
	out       io.Writer
	timeout   time.Duration
	notifier  Notifier
	onPending func(*Request)
	logger    *slog.Logger

	sem  chan struct{}
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	cur *pending

	dropped atomic.Int64
}

var _ Confirmer = (*Prompter)(nil)

// New creates a Prompter and starts its input reader.
func New(cfg Config) *Prompter {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p := &Prompter{
		in:        cfg.In,
		out:       cfg.Out,
		timeout:   cfg.Timeout,
		notifier:  cfg.Notifier,
		onPending: cfg.OnPending,
		logger:    cfg.Logger.With("component", "confirm.prompter"),
		sem:       make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if p.in != nil {
		go p.readLoop()
	}
	return p
}

func (p *Prompter) readLoop() {
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		select {
		case <-p.done:
			return
		default:
		}
		p.deliver(sc.Text())
	}
	if err := sc.Err(); err != nil {
		select {
		case <-p.done:
		default:
			p.logger.Warn("confirmation input closed", "error", err)
		}
	}
}

func (p *Prompter) deliver(line string) {
	p.mu.Lock()
	cur := p.cur
	p.mu.Unlock()
	if cur == nil {
		p.dropped.Add(1)
		p.logger.Debug("input ignored, no confirmation pending")
		return
	}
	select {
	case cur.lines <- line:
	default:
		p.dropped.Add(1)
	}
}

// Confirm shows message and waits for y/n. It returns false on "n", on
// timeout, when ctx ends, or after Close. Concurrent callers are served
// one at a time.
func (p *Prompter) Confirm(ctx context.Context, message string) bool {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	case <-p.done:
		return false
	}
	defer func() { <-p.sem }()

	pd := &pending{
		req: Request{
			ID:       uuid.New().String(),
			Message:  message,
			Deadline: time.Now().Add(p.timeout),
		},
		lines:  make(chan string, 8),
		answer: make(chan bool, 1),
	}
	p.open(pd)
	defer p.close()

	fmt.Fprintln(p.out, renderPrompt(message, p.timeout))
	if p.notifier != nil {
		if err := p.notifier.Notify("Confirmation required", message); err != nil {
			p.logger.Debug("desktop notification failed", "error", err)
		}
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for {
		select {
		case line := <-pd.lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				p.logger.Info("action confirmed", "message", message)
				return true
			case "n", "no":
				p.logger.Info("action rejected", "message", message)
				return false
			default:
				fmt.Fprintln(p.out, msgInvalid)
			}
		case yes := <-pd.answer:
			p.logger.Info("action answered remotely", "message", message, "confirmed", yes)
			return yes
		case <-timer.C:
			fmt.Fprintln(p.out, msgTimeout)
			p.logger.Info("confirmation timed out", "message", message)
			return false
		case <-ctx.Done():
			return false
		case <-p.done:
			return false
		}
	}
}

func (p *Prompter) open(pd *pending) {
	p.mu.Lock()
	p.cur = pd
	p.mu.Unlock()
	if p.onPending != nil {
		req := pd.req
		p.onPending(&req)
	}
}

func (p *Prompter) close() {
	p.mu.Lock()
	p.cur = nil
	p.mu.Unlock()
	if p.onPending != nil {
		p.onPending(nil)
	}
}

// Pending returns the open prompt, if any.
func (p *Prompter) Pending() (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return Request{}, false
	}
	return p.cur.req, true
}

// Respond answers the open prompt identified by id.
func (p *Prompter) Respond(id string, yes bool) error {
	p.mu.Lock()
	cur := p.cur
	p.mu.Unlock()
	if cur == nil {
		return ErrNoPending
	}
	if cur.req.ID != id {
		return ErrUnknownRequest
	}
	select {
	case cur.answer <- yes:
	default:
		// Already answered.
	}
	return nil
}

// Notify shows an informational banner and desktop notification.
func (p *Prompter) Notify(message string) {
	fmt.Fprintln(p.out, renderNotice(message))
	if p.notifier != nil {
		if err := p.notifier.Notify("deskpilot", message); err != nil {
			p.logger.Debug("desktop notification failed", "error", err)
		}
	}
}

// Close stops the reader and fails any open prompt. If the input is an
// io.Closer it is closed to unblock the reader.
func (p *Prompter) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		if c, ok := p.in.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
