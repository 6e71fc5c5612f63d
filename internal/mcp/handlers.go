package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/ops"
	"github.com/hpungsan/sieve/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store  *store.Store
	cfg    *config.Config
	assist assist.Assistant
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, cfg *config.Config, svc assist.Assistant) *Handlers {
	return &Handlers{store: st, cfg: cfg, assist: svc, now: time.Now}
}

// Request types for each tool

// CreateRequest represents the arguments for item_create.
type CreateRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Type      string   `json:"type,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Certainty *string  `json:"certainty,omitempty"`
}

// IDRequest represents the arguments of tools that take only an id.
type IDRequest struct {
	ID string `json:"id"`
}

// ReplaceRequest represents the arguments for item_replace.
type ReplaceRequest struct {
	Item             *item.Item `json:"item"`
	ExpectedRevision *int64     `json:"expected_revision,omitempty"`
}

// EditRequest represents the arguments for item_edit.
type EditRequest struct {
	ID           string  `json:"id"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	Project      *string `json:"project,omitempty"`
	TaskCategory *string `json:"task_category,omitempty"`
}

// ListRequest represents the arguments for item_list.
type ListRequest struct {
	Stage  *string `json:"stage,omitempty"`
	Tag    *string `json:"tag,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// TransitionRequest represents the arguments for item_transition.
type TransitionRequest struct {
	ID      string       `json:"id"`
	Action  string       `json:"action"`
	Mode    string       `json:"mode,omitempty"`
	Factors item.Factors `json:"factors"`
}

// ViewRequest represents the arguments for item_view.
type ViewRequest struct {
	Name    string  `json:"name"`
	Tag     *string `json:"tag,omitempty"`
	Mode    string  `json:"mode,omitempty"`
	Project *string `json:"project,omitempty"`
	Limit   int     `json:"limit,omitempty"`
	Offset  int     `json:"offset,omitempty"`
}

// CalendarRequest represents the arguments for item_calendar.
type CalendarRequest struct {
	Mode string `json:"mode,omitempty"`
	From string `json:"from,omitempty"`
	Days int    `json:"days,omitempty"`
}

// ModeRequest represents the arguments for item_next.
type ModeRequest struct {
	Mode string `json:"mode,omitempty"`
}

// SearchRequest represents the arguments for item_search.
type SearchRequest struct {
	Query  string  `json:"query"`
	Stage  *string `json:"stage,omitempty"`
	Tag    *string `json:"tag,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// ScoreRequest represents the arguments for item_score.
type ScoreRequest struct {
	Mode    string       `json:"mode"`
	Factors item.Factors `json:"factors"`
}

// ClassifyRequest represents the arguments for item_classify.
type ClassifyRequest struct {
	Mode  string  `json:"mode"`
	Score float64 `json:"score"`
}

// BulkRequest represents the arguments for item_bulk.
type BulkRequest struct {
	Action  string       `json:"action"`
	IDs     []string     `json:"ids"`
	Mode    string       `json:"mode,omitempty"`
	Factors item.Factors `json:"factors"`
}

// BulkDeleteRequest represents the arguments for item_bulk_delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// PurgeRequest represents the arguments for item_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// ExportRequest represents the arguments for item_export.
type ExportRequest struct {
	Path  string  `json:"path,omitempty"`
	Stage *string `json:"stage,omitempty"`
}

// ImportRequest represents the arguments for item_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// SuggestTagsRequest represents the arguments for item_suggest_tags.
type SuggestTagsRequest struct {
	ID    string `json:"id"`
	Apply bool   `json:"apply,omitempty"`
}

// Handler implementations

// HandleCreate handles the item_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Create(ctx, h.store, ops.CreateInput{
		Type:      input.Type,
		Title:     input.Title,
		Body:      input.Body,
		Tags:      input.Tags,
		Source:    "mcp",
		Certainty: input.Certainty,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the item_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Get(h.store, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReplace handles the item_replace tool call.
func (h *Handlers) HandleReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReplaceRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Replace(ctx, h.store, ops.ReplaceInput{
		Item:             input.Item,
		ExpectedRevision: input.ExpectedRevision,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEdit handles the item_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Edit(ctx, h.store, ops.EditInput{
		ID:           input.ID,
		AssignedTo:   input.AssignedTo,
		StartDate:    input.StartDate,
		DueDate:      input.DueDate,
		Project:      input.Project,
		TaskCategory: input.TaskCategory,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the item_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.store, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the item_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(h.store, ops.ListInput{
		Stage:  input.Stage,
		Tag:    input.Tag,
		Mode:   input.Mode,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTransition handles the item_transition tool call.
func (h *Handlers) HandleTransition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TransitionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Action == "edit" {
		return errorResult(errors.NewInvalidRequest("use item_edit to change fields")), nil
	}

	result, err := ops.Transition(ctx, h.store, h.cfg, ops.TransitionInput{
		ID:      input.ID,
		Action:  input.Action,
		Mode:    input.Mode,
		Factors: input.Factors,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleView handles the item_view tool call.
func (h *Handlers) HandleView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ViewRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.View(h.store, ops.ViewInput{
		Name:    input.Name,
		Tag:     input.Tag,
		Mode:    input.Mode,
		Project: input.Project,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBoard handles the item_board tool call.
func (h *Handlers) HandleBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Board(h.store))
}

// HandleCalendar handles the item_calendar tool call.
func (h *Handlers) HandleCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CalendarRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Calendar(h.store, ops.CalendarInput{
		Mode: input.Mode,
		From: input.From,
		Days: input.Days,
	}, h.now())
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNext handles the item_next tool call.
func (h *Handlers) HandleNext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Next(h.store, ops.NextInput{Mode: input.Mode})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the item_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Search(h.store, ops.SearchInput{
		Query:  input.Query,
		Stage:  input.Stage,
		Tag:    input.Tag,
		Mode:   input.Mode,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleScore handles the item_score tool call.
func (h *Handlers) HandleScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScoreRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Score(h.cfg, ops.ScoreInput{Mode: input.Mode, Factors: input.Factors})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClassify handles the item_classify tool call.
func (h *Handlers) HandleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClassifyRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Classify(h.cfg, ops.ClassifyInput{Mode: input.Mode, Score: input.Score})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBulk handles the item_bulk tool call.
func (h *Handlers) HandleBulk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Bulk(ctx, h.store, h.cfg, ops.BulkInput{
		Action:  input.Action,
		IDs:     input.IDs,
		Mode:    input.Mode,
		Factors: input.Factors,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBulkDelete handles the item_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.BulkDelete(ctx, h.store, ops.BulkDeleteInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the item_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Purge(ctx, h.store, h.cfg, ops.PurgeInput{OlderThanDays: input.OlderThanDays}, h.now())
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the item_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, ops.ExportInput{
		Path:  input.Path,
		Stage: input.Stage,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the item_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummarize handles the item_summarize tool call.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Summarize(ctx, h.store, h.assist, ops.AssistInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSuggestTags handles the item_suggest_tags tool call.
func (h *Handlers) HandleSuggestTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestTagsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SuggestTags(ctx, h.store, h.assist, ops.SuggestTagsInput{ID: input.ID, Apply: input.Apply})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEstimateEffort handles the item_estimate_effort tool call.
func (h *Handlers) HandleEstimateEffort(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.EstimateEffort(ctx, h.store, h.assist, ops.AssistInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Details of INTERNAL errors are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	sieveErr := errors.As(err)
	errorObj := map[string]any{
		"code":    sieveErr.Code,
		"message": sieveErr.Message,
		"status":  sieveErr.Status,
	}
	if sieveErr.Code != errors.ErrInternal && sieveErr.Details != nil {
		errorObj["details"] = sieveErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
