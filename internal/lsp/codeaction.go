package lsp

import (
	"encoding/json"
	"errors"
)

// handleCodeAction serves textDocument/codeAction: one synchronous
// classify -> generate -> assemble pass over the diagnostics the editor sent
// back in the request context. The pass reads the snapshot current at
// request time and mutates nothing.
func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)

	s.mu.Lock()
	text, open := s.openDocs[uri]
	snapshot := s.snapshot
	s.mu.Unlock()

	if uri == "" || !open || snapshot == nil || snapshot.Index == nil {
		return s.sendResponse(msg.ID, []codeAction{})
	}

	// A document the scanner cannot read yields no actions; the editor may
	// ask during a transient invalid state and that is not an error.
	doc := parseDocument(text)
	if doc == nil {
		return s.sendResponse(msg.ID, []codeAction{})
	}

	batches := groupQuickfixes(params.Context.Diagnostics)
	actions, err := buildQuickfixActions(snapshot.Index, doc, uri, batches)
	if err != nil {
		if errors.Is(err, errMalformedFixData) {
			s.logf("code action failed: %v", err)
			return s.sendError(msg.ID, codeInternalError, "internal error")
		}
		return s.sendError(msg.ID, codeInternalError, err.Error())
	}
	if actions == nil {
		actions = []codeAction{}
	}
	return s.sendResponse(msg.ID, actions)
}
