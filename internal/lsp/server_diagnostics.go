package lsp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"reef/internal/analysis"
	"reef/internal/diag"
	"reef/internal/index"
	"reef/internal/project"
)

func (s *Server) scheduleDiagnostics() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.analysisSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.runDiagnostics(seq)
	})
	s.mu.Unlock()
}

func (s *Server) runDiagnostics(seq uint64) {
	if !s.isLatestSeq(seq) {
		return
	}
	s.mu.Lock()
	root := s.workspaceRoot
	docs := make(map[string]string, len(s.openDocs))
	for uri, text := range s.openDocs {
		docs[uri] = text
	}
	maxDiagnostics := s.maxDiagnostics
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(docs) == 0 {
		s.clearPublishedDiagnostics()
		return
	}

	snapshot, err := s.analyze(ctx, AnalyzeOptions{
		WorkspaceRoot:  root,
		Docs:           docs,
		MaxDiagnostics: maxDiagnostics,
	})
	if err != nil {
		s.logf("analysis failed: %v", err)
		return
	}
	if !s.isLatestSeq(seq) {
		return
	}

	s.mu.Lock()
	s.snapshot = snapshot
	stale := make([]string, 0, len(s.published))
	for uri := range s.published {
		if _, ok := snapshot.Diagnostics[uri]; !ok {
			stale = append(stale, uri)
		}
	}
	s.mu.Unlock()

	for uri, bag := range snapshot.Diagnostics {
		list := toLSPDiagnostics(docs[uri], bag)
		s.mu.Lock()
		if len(list) == 0 {
			if _, ok := s.published[uri]; !ok {
				s.mu.Unlock()
				continue
			}
			delete(s.published, uri)
		} else {
			s.published[uri] = struct{}{}
		}
		s.mu.Unlock()
		if err := s.sendPublish(uri, list); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
	}
	for _, uri := range stale {
		s.mu.Lock()
		delete(s.published, uri)
		s.mu.Unlock()
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

// toLSPDiagnostics converts checker diagnostics to their wire shape. The
// payload travels in the data field as a JSON string, exactly as the
// quickfix engine expects it back.
func toLSPDiagnostics(text string, bag *diag.Bag) []lspDiagnostic {
	if bag == nil {
		return nil
	}
	list := make([]lspDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		item := lspDiagnostic{
			Range:    rangeForSpan(text, d.Primary.Start, d.Primary.End),
			Severity: lspSeverity(d.Severity),
			Code:     d.Code.String(),
			Source:   "reef",
			Message:  d.Message,
		}
		if d.Data != "" {
			if raw, err := json.Marshal(d.Data); err == nil {
				item.Data = raw
			}
		}
		list = append(list, item)
	}
	return list
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	case diag.SevInfo:
		return severityInfo
	default:
		return severityHint
	}
}

// AnalyzeWorkspace is the default analyzer: it rebuilds the module index from
// the project owning the workspace root and checks every open document.
func AnalyzeWorkspace(ctx context.Context, opts AnalyzeOptions) (*Snapshot, error) {
	srcDir := ""
	if root, ok, err := project.FindProjectRoot(opts.WorkspaceRoot); err == nil && ok {
		srcDir = filepath.Join(root, project.SourceDir)
	} else if opts.WorkspaceRoot != "" {
		srcDir = filepath.Join(opts.WorkspaceRoot, project.SourceDir)
	}

	overlay := make(map[string]string, len(opts.Docs))
	for uri, text := range opts.Docs {
		if path := uriToPath(uri); path != "" {
			overlay[path] = text
		}
	}

	idx := index.New(nil)
	if srcDir != "" {
		if _, err := os.Stat(srcDir); err == nil {
			built, err := index.Build(ctx, srcDir, index.BuildOptions{Overlay: overlay})
			if err != nil {
				return nil, err
			}
			idx = built
		}
	}

	snapshot := &Snapshot{
		Index:       idx,
		Diagnostics: make(map[string]*diag.Bag, len(opts.Docs)),
	}
	for uri, text := range opts.Docs {
		name := index.ModuleName(srcDir, uriToPath(uri))
		snapshot.Diagnostics[uri] = analysis.Analyze(name, text, idx, analysis.Options{
			MaxDiagnostics: opts.MaxDiagnostics,
		})
	}
	return snapshot, nil
}
