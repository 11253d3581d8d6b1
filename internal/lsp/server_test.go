package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"reef/internal/diag"
	"reef/internal/index"
)

func encodeRequests(t *testing.T, msgs ...map[string]any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, msg := range msgs {
		payload, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		if err := writeMessage(&buf, payload); err != nil {
			t.Fatalf("writeMessage: %v", err)
		}
	}
	return &buf
}

func decodeResponses(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(r)
		if err != nil {
			return msgs
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		msgs = append(msgs, msg)
	}
}

func TestServerLifecycle(t *testing.T) {
	in := encodeRequests(t,
		map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "method": "initialized"},
		map[string]any{"jsonrpc": "2.0", "id": 2, "method": "workspace/unknown"},
		map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"},
		map[string]any{"jsonrpc": "2.0", "method": "exit"},
	)
	var out bytes.Buffer
	s := NewServer(in, &out, ServerOptions{})

	if err := s.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("Run returned %v, want ErrExit", err)
	}

	msgs := decodeResponses(t, &out)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(msgs))
	}

	var init initializeResult
	if err := json.Unmarshal(msgs[0].Result, &init); err != nil {
		t.Fatalf("unmarshal initialize result: %v", err)
	}
	if init.Capabilities.CodeActionProvider == nil {
		t.Fatal("server must advertise code actions")
	}
	kinds := init.Capabilities.CodeActionProvider.CodeActionKinds
	if len(kinds) != 1 || kinds[0] != codeActionKindQuickfix {
		t.Errorf("advertised kinds = %v", kinds)
	}
	if init.Capabilities.TextDocumentSync.Change != 2 {
		t.Errorf("expected incremental sync, got %d", init.Capabilities.TextDocumentSync.Change)
	}

	if msgs[1].Error == nil || msgs[1].Error.Code != codeMethodNotFound {
		t.Errorf("unknown method should answer %d, got %+v", codeMethodNotFound, msgs[1].Error)
	}
	if msgs[2].Error != nil {
		t.Errorf("shutdown failed: %+v", msgs[2].Error)
	}
}

func TestServerExitWithoutShutdown(t *testing.T) {
	in := encodeRequests(t,
		map[string]any{"jsonrpc": "2.0", "method": "exit"},
	)
	var out bytes.Buffer
	s := NewServer(in, &out, ServerOptions{})
	if err := s.Run(context.Background()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("Run returned %v, want ErrExitWithoutShutdown", err)
	}
}

func TestRunDiagnosticsPublishes(t *testing.T) {
	uri := pathToURI("/ws/src/main.rf")
	bag := diag.NewBag(0)
	bag.Add(diag.NewWarning(
		diag.CodeUnusedImportModule,
		diag.Span{Start: 0, End: 14},
		"unused import 'reef/list'",
	).WithData("false,0"))

	var out bytes.Buffer
	s := NewServer(bytes.NewReader(nil), &out, ServerOptions{
		Analyze: func(ctx context.Context, opts AnalyzeOptions) (*Snapshot, error) {
			return &Snapshot{
				Index:       index.New(nil),
				Diagnostics: map[string]*diag.Bag{uri: bag},
			}, nil
		},
	})
	s.mu.Lock()
	s.openDocs[uri] = "use reef/list\n\npub fn main() {\n}\n"
	s.mu.Unlock()

	seq := atomic.AddUint64(&s.analysisSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	s.runDiagnostics(seq)

	msgs := decodeResponses(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 publish notification, got %d", len(msgs))
	}
	if msgs[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("method = %q", msgs[0].Method)
	}
	var params publishDiagnosticsParams
	if err := json.Unmarshal(msgs[0].Params, &params); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if params.URI != uri {
		t.Errorf("uri = %q, want %q", params.URI, uri)
	}
	if len(params.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(params.Diagnostics))
	}
	d := params.Diagnostics[0]
	if d.Code != codeUnusedImportModule || d.Severity != severityWarning {
		t.Errorf("diagnostic = %+v", d)
	}
	payload, ok := decodeStringData(d.Data)
	if !ok || payload != "false,0" {
		t.Errorf("data payload = %q (ok=%v), want \"false,0\"", payload, ok)
	}

	// The stale snapshot guard: a superseded pass must publish nothing.
	out.Reset()
	atomic.StoreUint64(&s.latestSeq, seq+1)
	s.runDiagnostics(seq)
	if msgs := decodeResponses(t, &out); len(msgs) != 0 {
		t.Errorf("superseded pass published %d messages", len(msgs))
	}
}
