package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sieve/internal/projection"
)

var actionNames = []string{
	"process", "archive", "prioritize", "move-to-review",
	"restore", "start", "done", "reschedule",
}

var stageNames = []string{
	"inbox", "review", "scheduled", "re-evaluate", "discarded", "ongoing", "done",
}

// factorsProperty describes the RICE/ICE factor object.
var factorsProperty = mcp.Properties(map[string]any{
	"reach":      map[string]any{"type": "integer", "minimum": 1, "maximum": 100, "description": "Professional mode only"},
	"impact":     map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
	"confidence": map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
	"effort":     map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
})

var stringItems = mcp.Items(map[string]any{"type": "string"})

var createToolDef = mcp.NewTool("item_create",
	mcp.WithDescription("Capture a new item into the inbox."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
	mcp.WithString("body", mcp.Description("Free-form body, markdown allowed")),
	mcp.WithString("type", mcp.Description("Item type"), mcp.Enum("Task", "Idea", "Note", "Media")),
	mcp.WithArray("tags", stringItems, mcp.Description("Tags")),
	mcp.WithString("certainty", mcp.Enum("certain", "uncertain")),
)

var getToolDef = mcp.NewTool("item_get",
	mcp.WithDescription("Fetch one item and the actions its stage allows."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var replaceToolDef = mcp.NewTool("item_replace",
	mcp.WithDescription("Replace a stored item wholesale. Pass expected_revision for compare-and-swap."),
	mcp.WithObject("item", mcp.Required(), mcp.Description("Full item object, matched by id")),
	mcp.WithNumber("expected_revision", mcp.Description("Fail with CONFLICT unless the stored revision matches")),
)

var editToolDef = mcp.NewTool("item_edit",
	mcp.WithDescription("Set scheduling fields on a processed item. An empty string clears a field."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("assigned_to"),
	mcp.WithString("start_date", mcp.Description("YYYY-MM-DD")),
	mcp.WithString("due_date", mcp.Description("YYYY-MM-DD")),
	mcp.WithString("project"),
	mcp.WithString("task_category", mcp.Enum("", "future", "maintain", "distraction")),
)

var deleteToolDef = mcp.NewTool("item_delete",
	mcp.WithDescription("Permanently delete an item. Unknown ids are a no-op."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithDestructiveHintAnnotation(true),
)

var listToolDef = mcp.NewTool("item_list",
	mcp.WithDescription("List items newest first, optionally filtered."),
	mcp.WithString("stage", mcp.Enum(stageNames...)),
	mcp.WithString("tag"),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithNumber("limit"),
	mcp.WithNumber("offset"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var transitionToolDef = mcp.NewTool("item_transition",
	mcp.WithDescription("Apply a workflow action to an item. prioritize needs mode and factors."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("action", mcp.Required(), mcp.Enum(actionNames...)),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithObject("factors", factorsProperty),
)

var viewToolDef = mcp.NewTool("item_view",
	mcp.WithDescription("Read a named view: "+strings.Join(projection.NameStrings(), ", ")+"."),
	mcp.WithString("name", mcp.Required()),
	mcp.WithString("tag"),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithString("project"),
	mcp.WithNumber("limit"),
	mcp.WithNumber("offset"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var boardToolDef = mcp.NewTool("item_board",
	mcp.WithDescription("Ongoing items grouped by task category tab, then project."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var calendarToolDef = mcp.NewTool("item_calendar",
	mcp.WithDescription("Per-day start and deadline events for the calendar view."),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithString("from", mcp.Description("YYYY-MM-DD, default start of this week")),
	mcp.WithNumber("days", mcp.Description("Default 7, max 62")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var nextToolDef = mcp.NewTool("item_next",
	mcp.WithDescription("The highest-priority scheduled item."),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var searchToolDef = mcp.NewTool("item_search",
	mcp.WithDescription("Case-insensitive search over title, tags and body."),
	mcp.WithString("query", mcp.Required()),
	mcp.WithString("stage", mcp.Enum(stageNames...)),
	mcp.WithString("tag"),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithNumber("limit"),
	mcp.WithNumber("offset"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var scoreToolDef = mcp.NewTool("item_score",
	mcp.WithDescription("Preview a score and its bucket without touching any item."),
	mcp.WithString("mode", mcp.Required(), mcp.Enum("professional", "personal")),
	mcp.WithObject("factors", mcp.Required(), factorsProperty),
	mcp.WithReadOnlyHintAnnotation(true),
)

var classifyToolDef = mcp.NewTool("item_classify",
	mcp.WithDescription("Bucket a raw score with the configured thresholds."),
	mcp.WithString("mode", mcp.Required(), mcp.Enum("professional", "personal")),
	mcp.WithNumber("score", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var bulkToolDef = mcp.NewTool("item_bulk",
	mcp.WithDescription("Apply one action to many items, reporting each outcome."),
	mcp.WithString("action", mcp.Required(), mcp.Enum(actionNames...)),
	mcp.WithArray("ids", mcp.Required(), stringItems),
	mcp.WithString("mode", mcp.Enum("professional", "personal")),
	mcp.WithObject("factors", factorsProperty),
)

var bulkDeleteToolDef = mcp.NewTool("item_bulk_delete",
	mcp.WithDescription("Permanently delete many items."),
	mcp.WithArray("ids", mcp.Required(), stringItems),
	mcp.WithDestructiveHintAnnotation(true),
)

var purgeToolDef = mcp.NewTool("item_purge",
	mcp.WithDescription("Permanently delete done items older than N days."),
	mcp.WithNumber("older_than_days"),
	mcp.WithDestructiveHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("item_export",
	mcp.WithDescription("Write items to a JSONL file under ~/.sieve/exports or an allowed path."),
	mcp.WithString("path"),
	mcp.WithString("stage", mcp.Enum(stageNames...)),
)

var importToolDef = mcp.NewTool("item_import",
	mcp.WithDescription("Load items from a JSONL export."),
	mcp.WithString("path", mcp.Required()),
	mcp.WithString("mode", mcp.Enum("error", "replace", "skip")),
)

var summarizeToolDef = mcp.NewTool("item_summarize",
	mcp.WithDescription("Summarize an item's body in one or two sentences."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var suggestTagsToolDef = mcp.NewTool("item_suggest_tags",
	mcp.WithDescription("Suggest up to three tags; apply merges them into the item."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithBoolean("apply"),
)

var estimateEffortToolDef = mcp.NewTool("item_estimate_effort",
	mcp.WithDescription("Estimate the time an item will take."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)
