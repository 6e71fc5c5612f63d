package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/store"
)

// testSetup creates handlers over an empty store.
func testSetup(t *testing.T) (*Handlers, *config.Config) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{t.TempDir()}

	h := NewHandlers(store.New(), cfg, assist.NewService(nil, 0, nil))
	h.now = func() time.Time { return time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC) }
	return h, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// mustCreate captures an item and returns its id.
func mustCreate(t *testing.T, h *Handlers, title string) string {
	t.Helper()
	result, _ := h.HandleCreate(context.Background(), makeRequest(map[string]any{"title": title}))
	return parseOutput(t, result)["id"].(string)
}

// mustTransition applies an action and returns the decoded output.
func mustTransition(t *testing.T, h *Handlers, args map[string]any) map[string]any {
	t.Helper()
	result, _ := h.HandleTransition(context.Background(), makeRequest(args))
	return parseOutput(t, result)
}

func TestHandleCreate(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "create with title",
			args: map[string]any{"title": "Write release notes", "tags": []any{"docs"}},
		},
		{
			name: "create idea",
			args: map[string]any{"title": "Side project", "type": "Idea", "certainty": "uncertain"},
		},
		{
			name:      "missing title",
			args:      map[string]any{"body": "no title"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "unknown type",
			args:      map[string]any{"title": "x", "type": "Chore"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "tags of the wrong shape",
			args:      map[string]any{"title": "x", "tags": "docs"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleCreate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			it := out["item"].(map[string]any)
			if it["stage"] != "inbox" {
				t.Errorf("stage = %v, want inbox", it["stage"])
			}
			if it["source"] != "mcp" {
				t.Errorf("source = %v, want mcp", it["source"])
			}
		})
	}
}

func TestHandleGet(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Fix the gate")

	result, _ := h.HandleGet(ctx, makeRequest(map[string]any{"id": id}))
	out := parseOutput(t, result)
	actions := out["actions"].([]any)
	if len(actions) != 2 {
		t.Errorf("inbox actions = %v, want process and archive", actions)
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": "missing"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleTransition_Lifecycle(t *testing.T) {
	h, _ := testSetup(t)
	id := mustCreate(t, h, "Quarterly report")

	out := mustTransition(t, h, map[string]any{"id": id, "action": "process"})
	if out["to"] != "review" {
		t.Fatalf("process: to = %v, want review", out["to"])
	}

	out = mustTransition(t, h, map[string]any{
		"id":      id,
		"action":  "prioritize",
		"mode":    "professional",
		"factors": map[string]any{"reach": 80, "impact": 70, "confidence": 60, "effort": 20},
	})
	if out["to"] != "scheduled" {
		t.Fatalf("prioritize: to = %v, want scheduled", out["to"])
	}
	decision := out["decision"].(map[string]any)
	if decision["outcome"] != "schedule" {
		t.Errorf("outcome = %v, want schedule", decision["outcome"])
	}
	if score := out["item"].(map[string]any)["final_score"]; score != 16800.0 {
		t.Errorf("final_score = %v, want 16800", score)
	}

	out = mustTransition(t, h, map[string]any{"id": id, "action": "start"})
	if out["to"] != "ongoing" {
		t.Fatalf("start: to = %v, want ongoing", out["to"])
	}

	out = mustTransition(t, h, map[string]any{"id": id, "action": "complete"})
	if out["to"] != "done" {
		t.Fatalf("complete: to = %v, want done", out["to"])
	}

	// Repeating an action whose target is the current stage changes nothing.
	out = mustTransition(t, h, map[string]any{"id": id, "action": "done"})
	if out["changed"] != false {
		t.Errorf("second done: changed = %v, want false", out["changed"])
	}
}

func TestHandleTransition_Errors(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Inbox item")

	tests := []struct {
		name      string
		args      map[string]any
		errorCode string
	}{
		{
			name:      "start from inbox",
			args:      map[string]any{"id": id, "action": "start"},
			errorCode: "INVALID_TRANSITION",
		},
		{
			name:      "unknown action",
			args:      map[string]any{"id": id, "action": "snooze"},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "edit goes through item_edit",
			args:      map[string]any{"id": id, "action": "edit"},
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "factor out of range",
			args: map[string]any{
				"id": id, "action": "prioritize", "mode": "personal",
				"factors": map[string]any{"impact": 0, "confidence": 5, "effort": 1},
			},
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "fractional factor",
			args: map[string]any{
				"id": id, "action": "prioritize", "mode": "personal",
				"factors": map[string]any{"impact": 2.5, "confidence": 5, "effort": 1},
			},
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleTransition(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			assertErrorCode(t, result, tt.errorCode)
		})
	}
}

func TestHandleTransition_UnknownIDIsNoop(t *testing.T) {
	h, _ := testSetup(t)

	out := mustTransition(t, h, map[string]any{"id": "missing", "action": "process"})
	if out["applied"] != false {
		t.Errorf("applied = %v, want false", out["applied"])
	}
}

func TestHandleEdit(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Fence")

	result, _ := h.HandleEdit(ctx, makeRequest(map[string]any{"id": id, "project": "Garden"}))
	assertErrorCode(t, result, "INVALID_TRANSITION")

	mustTransition(t, h, map[string]any{"id": id, "action": "process"})

	result, _ = h.HandleEdit(ctx, makeRequest(map[string]any{
		"id":            id,
		"project":       "Garden",
		"due_date":      "2026-03-14",
		"task_category": "maintain",
	}))
	it := parseOutput(t, result)["item"].(map[string]any)
	if it["project"] != "Garden" || it["due_date"] != "2026-03-14" || it["task_category"] != "maintain" {
		t.Errorf("edit did not apply: %v", it)
	}

	result, _ = h.HandleEdit(ctx, makeRequest(map[string]any{"id": id, "task_category": "urgent"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleReplace(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Original")

	got, _ := h.HandleGet(ctx, makeRequest(map[string]any{"id": id}))
	it := parseOutput(t, got)["item"].(map[string]any)
	it["title"] = "Renamed"

	result, _ := h.HandleReplace(ctx, makeRequest(map[string]any{"item": it, "expected_revision": 1}))
	out := parseOutput(t, result)
	if out["updated"] != true {
		t.Fatalf("updated = %v, want true", out["updated"])
	}
	if out["item"].(map[string]any)["title"] != "Renamed" {
		t.Errorf("title not replaced: %v", out["item"])
	}

	// Revision is now 2.
	result, _ = h.HandleReplace(ctx, makeRequest(map[string]any{"item": it, "expected_revision": 1}))
	assertErrorCode(t, result, "CONFLICT")

	result, _ = h.HandleReplace(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleDelete(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Temporary")

	result, _ := h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	if out := parseOutput(t, result); out["deleted"] != true {
		t.Errorf("deleted = %v, want true", out["deleted"])
	}

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	if out := parseOutput(t, result); out["deleted"] != false {
		t.Errorf("second delete: deleted = %v, want false", out["deleted"])
	}
}

func TestHandleListAndView(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	a := mustCreate(t, h, "A")
	mustCreate(t, h, "B")
	mustTransition(t, h, map[string]any{"id": a, "action": "process"})

	result, _ := h.HandleList(ctx, makeRequest(map[string]any{"stage": "inbox"}))
	out := parseOutput(t, result)
	if items := out["items"].([]any); len(items) != 1 {
		t.Errorf("inbox list = %d items, want 1", len(items))
	}

	result, _ = h.HandleView(ctx, makeRequest(map[string]any{"name": "review"}))
	out = parseOutput(t, result)
	items := out["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != a {
		t.Errorf("review view = %v, want [%s]", items, a)
	}

	result, _ = h.HandleView(ctx, makeRequest(map[string]any{"name": "someday"}))
	assertErrorCode(t, result, "UNKNOWN_PROJECTION")

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{"stage": "limbo"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleBoardAndCalendar(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleBoard(ctx, makeRequest(nil))
	if out := parseOutput(t, result); out["total"] != 0.0 {
		t.Errorf("total = %v, want 0", out["total"])
	}

	result, _ = h.HandleCalendar(ctx, makeRequest(map[string]any{}))
	out := parseOutput(t, result)
	if out["from"] != "2026-03-08" {
		t.Errorf("from = %v, want week start 2026-03-08", out["from"])
	}
	if days := out["days"].([]any); len(days) != 7 {
		t.Errorf("days = %d, want 7", len(days))
	}

	result, _ = h.HandleCalendar(ctx, makeRequest(map[string]any{"days": 400}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleNextAndSearch(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleNext(ctx, makeRequest(nil))
	if out := parseOutput(t, result); out["item"] != nil {
		t.Errorf("next on empty store = %v, want nil", out["item"])
	}

	id := mustCreate(t, h, "Renew passport")
	mustTransition(t, h, map[string]any{"id": id, "action": "process"})
	mustTransition(t, h, map[string]any{
		"id": id, "action": "prioritize", "mode": "personal",
		"factors": map[string]any{"impact": 10, "confidence": 10, "effort": 1},
	})

	result, _ = h.HandleNext(ctx, makeRequest(nil))
	if got := parseOutput(t, result)["item"].(map[string]any)["id"]; got != id {
		t.Errorf("next = %v, want %s", got, id)
	}

	result, _ = h.HandleSearch(ctx, makeRequest(map[string]any{"query": "PASSPORT"}))
	if items := parseOutput(t, result)["items"].([]any); len(items) != 1 {
		t.Errorf("search hits = %d, want 1", len(items))
	}

	result, _ = h.HandleSearch(ctx, makeRequest(map[string]any{"query": "  "}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleScoreAndClassify(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleScore(ctx, makeRequest(map[string]any{
		"mode":    "personal",
		"factors": map[string]any{"impact": 5, "confidence": 4, "effort": 2},
	}))
	out := parseOutput(t, result)
	if out["score"] != 10.0 || out["stage"] != "re-evaluate" {
		t.Errorf("score preview = %v", out)
	}

	result, _ = h.HandleClassify(ctx, makeRequest(map[string]any{"mode": "professional", "score": 1000}))
	if out := parseOutput(t, result); out["stage"] != "scheduled" {
		t.Errorf("classify 1000 = %v, want scheduled", out["stage"])
	}

	result, _ = h.HandleClassify(ctx, makeRequest(map[string]any{"mode": "work", "score": 1}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleBulk(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	a := mustCreate(t, h, "A")
	b := mustCreate(t, h, "B")

	result, _ := h.HandleBulk(ctx, makeRequest(map[string]any{
		"action": "process",
		"ids":    []any{a, b, "missing"},
	}))
	out := parseOutput(t, result)
	if out["changed"] != 2.0 {
		t.Errorf("changed = %v, want 2", out["changed"])
	}
	if results := out["results"].([]any); len(results) != 3 {
		t.Errorf("results = %d, want 3", len(results))
	}

	result, _ = h.HandleBulk(ctx, makeRequest(map[string]any{"action": "process", "ids": []any{}}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleBulkDelete(ctx, makeRequest(map[string]any{"ids": []any{a, "missing"}}))
	out = parseOutput(t, result)
	if out["deleted"] != 1.0 {
		t.Errorf("deleted = %v, want 1", out["deleted"])
	}
}

func TestHandlePurge(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandlePurge(ctx, makeRequest(map[string]any{"older_than_days": -1}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandlePurge(ctx, makeRequest(map[string]any{}))
	if out := parseOutput(t, result); out["purged"] != 0.0 {
		t.Errorf("purged = %v, want 0", out["purged"])
	}
}

func TestHandleExportImport(t *testing.T) {
	h, cfg := testSetup(t)
	ctx := context.Background()
	mustCreate(t, h, "Keep me")
	mustCreate(t, h, "Me too")

	path := filepath.Join(cfg.AllowedPaths[0], "backup.jsonl")
	result, _ := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	if out := parseOutput(t, result); out["count"] != 2.0 {
		t.Fatalf("count = %v, want 2", out["count"])
	}

	// Same ids already stored: error mode refuses, skip mode skips.
	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	out := parseOutput(t, result)
	if out["imported"] != 0.0 || len(out["errors"].([]any)) != 2 {
		t.Errorf("error-mode import = %v", out)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "skip"}))
	if out := parseOutput(t, result); out["skipped"] != 2.0 {
		t.Errorf("skipped = %v, want 2", out["skipped"])
	}

	fresh, _ := testSetup(t)
	fresh.cfg = cfg
	result, _ = fresh.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	if out := parseOutput(t, result); out["imported"] != 2.0 {
		t.Errorf("imported = %v, want 2", out["imported"])
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": filepath.Join(t.TempDir(), "x.jsonl")}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleAssistFallbacks(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	id := mustCreate(t, h, "Plan the offsite")

	result, _ := h.HandleSummarize(ctx, makeRequest(map[string]any{"id": id}))
	out := parseOutput(t, result)
	if out["summary"] != assist.FallbackSummary || out["fallback"] != true {
		t.Errorf("summarize = %v", out)
	}

	result, _ = h.HandleSuggestTags(ctx, makeRequest(map[string]any{"id": id, "apply": true}))
	out = parseOutput(t, result)
	if out["applied"] != false {
		t.Errorf("applied = %v, want false", out["applied"])
	}
	if tags := out["tags"].([]any); len(tags) != 0 {
		t.Errorf("tags = %v, want empty", tags)
	}

	result, _ = h.HandleEstimateEffort(ctx, makeRequest(map[string]any{"id": id}))
	if out := parseOutput(t, result); out["estimate"] != assist.FallbackEffort {
		t.Errorf("estimate = %v", out["estimate"])
	}

	result, _ = h.HandleSummarize(ctx, makeRequest(map[string]any{"id": "missing"}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestServerRegistration(t *testing.T) {
	h, cfg := testSetup(t)

	s := NewServer(h.store, cfg, h.assist, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	if len(tools) != len(toolRegistry) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry))
	}

	for _, name := range []string{"item_create", "item_transition", "item_view", "item_import"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	h, cfg := testSetup(t)

	cfg.DisabledTools = []string{"item_purge", "item_bulk_delete", "item_bulk_delete"}
	s := NewServer(h.store, cfg, h.assist, "test")
	tools := s.ListTools()

	if len(tools) != len(toolRegistry)-2 {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry)-2)
	}
	for _, name := range []string{"item_purge", "item_bulk_delete"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	h, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(h.store, cfg, h.assist, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"item_purge", "item_bulk"}, wantLen: 0},
		{name: "one unknown", input: []string{"item_purge", "item_archive"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 22 {
		t.Errorf("AllToolNames() returned %d names, want 22", len(names))
	}
	if names[0] != "item_board" {
		t.Errorf("AllToolNames() not sorted: first = %s", names[0])
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedError(t *testing.T) {
	r := errorResult(fmt.Errorf("items[2]: %w", errors.NewNotFound("abc")))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("disk full"))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message=%v leaks the cause", errObj["message"])
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("abc"))

	errObj := errorObject(t, r)
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

// errorObject returns the "error" member of an error result.
func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %s, got success: %v", expectedCode, extractErrorMessage(result))
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}

func TestDecode(t *testing.T) {
	t.Run("nil arguments", func(t *testing.T) {
		got, err := decode[IDRequest](mcp.CallToolRequest{})
		if err != nil {
			t.Fatalf("decode() error = %v", err)
		}
		if got.ID != "" {
			t.Errorf("ID = %q, want empty", got.ID)
		}
	})

	t.Run("wrong type names the argument", func(t *testing.T) {
		_, err := decode[CreateRequest](makeRequest(map[string]any{"title": 42}))
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Fatalf("decode() error = %v, want INVALID_REQUEST", err)
		}
		if msg := errors.As(err).Message; msg != "title must be string (got number)" {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("handler surfaces decode errors", func(t *testing.T) {
		h, _ := testSetup(t)
		result, err := h.HandleCreate(context.Background(), makeRequest(map[string]any{"tags": "not-a-list"}))
		if err != nil {
			t.Fatalf("HandleCreate() error = %v", err)
		}
		assertErrorCode(t, result, "INVALID_REQUEST")
	})
}
