// Package prover drives an interactive prover and turns documents into
// annotated fragments.
//
// The prover runs as a subprocess speaking line-delimited JSON: each
// query carries a sequence number, and the driver reads responses until
// the one matching its query arrives. Documents are synced whole, then
// segmented into sentences by querying the goal state after each tactic
// marker.
package prover

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattam82/alectryon/internal/document"
)

const (
	replBin  = "lean"
	replName = "Lean3"
)

// defaultArgs: --threads=0 forces synchronous checking, so an ok
// response means every query before it has settled.
var defaultArgs = []string{"--server", "--threads=0"}

// ProtocolError reports an error response or a malformed message from
// the prover.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "prover protocol: " + e.Message
}

// replMessage is a diagnostic attached to a document position.
type replMessage struct {
	FileName string `json:"file_name"`
	PosLine  int    `json:"pos_line"`
	PosCol   int    `json:"pos_col"`
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type widgetPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type infoRecord struct {
	Widget *widgetPos `json:"widget"`
	State  *string    `json:"state"`
}

type response struct {
	Response string        `json:"response"`
	SeqNum   int           `json:"seq_num"`
	Message  string        `json:"message"`
	Msgs     []replMessage `json:"msgs"`
	Record   *infoRecord   `json:"record"`
}

// Client is a running prover subprocess.
type Client struct {
	binPath string
	args    []string
	fname   string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan lineOrErr
	done   chan struct{}
	seqNum int
}

type lineOrErr struct {
	line []byte
	err  error
}

// NewClient prepares a prover client. binPath defaults to the prover on
// PATH; extra args come before the defaults. Call Start before use.
func NewClient(binPath string, args ...string) *Client {
	if binPath == "" {
		binPath = replBin
	}
	return &Client{
		binPath: binPath,
		args:    append(append([]string{}, args...), defaultArgs...),
		fname:   "-",
		seqNum:  -1,
	}
}

// VersionInfo probes the prover binary for its version string.
func VersionInfo(ctx context.Context, binPath string) (document.GeneratorInfo, error) {
	if binPath == "" {
		binPath = replBin
	}
	out, err := exec.CommandContext(ctx, binPath, "--version").Output()
	if err != nil {
		return document.GeneratorInfo{}, fmt.Errorf("probing %s version: %w", binPath, err)
	}
	return document.GeneratorInfo{Name: replName, Version: strings.TrimSpace(string(out))}, nil
}

// Start launches the prover subprocess.
func (c *Client) Start(ctx context.Context) error {
	path, err := exec.LookPath(c.binPath)
	if err != nil {
		return fmt.Errorf("prover not found: %s: %w", c.binPath, err)
	}
	cmd := exec.CommandContext(ctx, path, c.args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("starting prover: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("starting prover: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting prover: %w", err)
	}

	lines := make(chan lineOrErr)
	done := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- lineOrErr{line: append([]byte(nil), scanner.Bytes()...)}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- lineOrErr{err: err}:
			case <-done:
			}
		}
	}()

	c.cmd = cmd
	c.stdin = stdin
	c.lines = lines
	c.done = done
	c.seqNum = -1
	return nil
}

// Close terminates the prover subprocess and releases the reader.
func (c *Client) Close() error {
	if c.cmd == nil {
		return nil
	}
	close(c.done)
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	err := c.cmd.Wait()
	c.cmd = nil
	return err
}

// query sends one command and waits for its ok response, collecting any
// message broadcasts seen along the way.
func (c *Client) query(ctx context.Context, command string, params map[string]any) (*response, []replMessage, error) {
	if c.cmd == nil {
		return nil, nil, &ProtocolError{Message: "client not started"}
	}
	c.seqNum++
	query := map[string]any{"seq_num": c.seqNum, "command": command}
	for k, v := range params {
		query[k] = v
	}
	line, err := json.Marshal(query)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding %s query: %w", command, err)
	}
	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		return nil, nil, fmt.Errorf("writing %s query: %w", command, err)
	}
	return c.wait(ctx)
}

func (c *Client) wait(ctx context.Context) (*response, []replMessage, error) {
	var messages []replMessage
	for {
		var raw []byte
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case l, ok := <-c.lines:
			if !ok {
				return nil, nil, &ProtocolError{Message: "prover exited unexpectedly"}
			}
			if l.err != nil {
				return nil, nil, fmt.Errorf("reading prover output: %w", l.err)
			}
			raw = l.line
		}

		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, nil, &ProtocolError{Message: fmt.Sprintf("undecodable response %q", raw)}
		}
		switch resp.Response {
		case "ok":
			if resp.SeqNum != c.seqNum {
				return nil, nil, &ProtocolError{Message: fmt.Sprintf("response for query %d, expected %d", resp.SeqNum, c.seqNum)}
			}
			return &resp, messages, nil
		case "error":
			if resp.SeqNum != c.seqNum {
				return nil, nil, &ProtocolError{Message: fmt.Sprintf("response for query %d, expected %d", resp.SeqNum, c.seqNum)}
			}
			return nil, nil, &ProtocolError{Message: resp.Message}
		case "current_tasks":
			// Progress updates; nothing to do.
		case "all_messages":
			messages = resp.Msgs
		default:
			return nil, nil, &ProtocolError{Message: fmt.Sprintf("unexpected response %q", raw)}
		}
	}
}

// findSentenceRanges locates sentence boundaries by probing the goal
// state after each marker. Markers inside a term or comment resolve to
// a widget that starts before them and are skipped.
func (c *Client) findSentenceRanges(ctx context.Context, doc string, pm *positionMap) ([]sentenceRange, error) {
	var ranges []sentenceRange
	tacBeg, hasTac := -1, false
	for _, m := range findMarkers(doc) {
		// Markers inside comments resolve to a widget starting before
		// the previous one; skip them.
		if hasTac && m.beg < tacBeg {
			continue
		}
		line, col := pm.position(m.end)
		info, _, err := c.query(ctx, "info", map[string]any{
			"file_name": c.fname, "line": line, "column": col,
		})
		if err != nil {
			return nil, err
		}

		var state string
		if info.Record != nil && info.Record.State != nil {
			state = *info.Record.State
		}
		widgetBeg := -1
		if info.Record != nil && info.Record.Widget != nil {
			widgetBeg = pm.offset(info.Record.Widget.Line, info.Record.Widget.Column)
		} else if m.text != "end" {
			return nil, &ProtocolError{Message: fmt.Sprintf("marker %q at offset %d has no widget", m.text, m.beg)}
		}

		switch m.text {
		case "begin":
			// Nested begin blocks are not segmented further.
			if hasTac {
				continue
			}
			ranges = append(ranges, sentenceRange{m.beg, m.end, state})
		case ",":
			if !hasTac {
				return nil, &ProtocolError{Message: fmt.Sprintf("comma at offset %d outside a tactic block", m.beg)}
			}
			// Commas within a term belong to the enclosing tactic.
			if widgetBeg <= m.end {
				continue
			}
			ranges = append(ranges, sentenceRange{tacBeg, m.end, state})
		case "end":
		}
		tacBeg, hasTac = widgetBeg, widgetBeg >= 0
	}
	return ranges, nil
}

// Annotate syncs the chunks as one document and returns its fragments
// grouped back into chunks.
func (c *Client) Annotate(ctx context.Context, chunks []string) (document.Movie, error) {
	doc := strings.Join(chunks, "")
	pm := newPositionMap(doc)

	_, messages, err := c.query(ctx, "sync", map[string]any{
		"file_name": c.fname, "content": doc,
	})
	if err != nil {
		return nil, err
	}

	ranges, err := c.findSentenceRanges(ctx, doc, pm)
	if err != nil {
		return nil, err
	}
	spans, err := segment(doc, ranges)
	if err != nil {
		return nil, err
	}
	attachMessages(spans, messages, pm)
	return rebuildChunks(chunks, spans), nil
}

// Annotate runs a prover over the chunks with a fresh client.
func Annotate(ctx context.Context, binPath string, chunks []string, args ...string) (document.Movie, error) {
	c := NewClient(binPath, args...)
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Annotate(ctx, chunks)
}
