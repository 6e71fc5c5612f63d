package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"item_create":          {def: createToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate }},
	"item_get":             {def: getToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet }},
	"item_replace":         {def: replaceToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReplace }},
	"item_edit":            {def: editToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEdit }},
	"item_delete":          {def: deleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	"item_list":            {def: listToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	"item_transition":      {def: transitionToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTransition }},
	"item_view":            {def: viewToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleView }},
	"item_board":           {def: boardToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBoard }},
	"item_calendar":        {def: calendarToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCalendar }},
	"item_next":            {def: nextToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNext }},
	"item_search":          {def: searchToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch }},
	"item_score":           {def: scoreToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleScore }},
	"item_classify":        {def: classifyToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClassify }},
	"item_bulk":            {def: bulkToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulk }},
	"item_bulk_delete":     {def: bulkDeleteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBulkDelete }},
	"item_purge":           {def: purgeToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge }},
	"item_export":          {def: exportToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	"item_import":          {def: importToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
	"item_summarize":       {def: summarizeToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarize }},
	"item_suggest_tags":    {def: suggestTagsToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggestTags }},
	"item_estimate_effort": {def: estimateEffortToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEstimateEffort }},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the item tools registered.
// Tools listed in cfg.DisabledTools are left out.
func NewServer(st *store.Store, cfg *config.Config, svc assist.Assistant, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sieve",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, cfg, svc)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the item tools over stdio until stdin closes.
func Run(st *store.Store, cfg *config.Config, svc assist.Assistant, version string) error {
	return server.ServeStdio(NewServer(st, cfg, svc, version))
}

