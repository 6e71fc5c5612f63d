package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/ops"
	"github.com/hpungsan/sieve/internal/store"
)

// Handlers contains HTTP route handlers for the JSON API.
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

type createBody struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Certainty *string  `json:"certainty"`
}

type editBody struct {
	AssignedTo   *string `json:"assigned_to"`
	StartDate    *string `json:"start_date"`
	DueDate      *string `json:"due_date"`
	Project      *string `json:"project"`
	TaskCategory *string `json:"task_category"`
}

type prioritizeBody struct {
	Mode    string       `json:"mode"`
	Factors item.Factors `json:"factors"`
}

type classifyBody struct {
	Mode  string  `json:"mode"`
	Score float64 `json:"score"`
}

type bulkBody struct {
	Action  string       `json:"action"`
	IDs     []string     `json:"ids"`
	Mode    string       `json:"mode"`
	Factors item.Factors `json:"factors"`
}

type idsBody struct {
	IDs []string `json:"ids"`
}

// HandleList handles GET /items.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.List(h.store, ops.ListInput{
		Stage:  ptrString(q.Get("stage")),
		Tag:    ptrString(q.Get("tag")),
		Mode:   q.Get("mode"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleCreate handles POST /items.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Create(r.Context(), h.store, ops.CreateInput{
		Type:      body.Type,
		Title:     body.Title,
		Body:      body.Body,
		Tags:      body.Tags,
		Source:    "http",
		Certainty: body.Certainty,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	w.Header().Set("Location", "/items/"+result.ID)
	renderJSON(w, http.StatusCreated, result)
}

// HandleGet handles GET /items/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Get(h.store, ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		renderError(w, err)
		return
	}
	w.Header().Set("ETag", revisionTag(result.Item.Revision))
	renderJSON(w, http.StatusOK, result)
}

// HandleReplace handles PUT /items/{id}. An If-Match header carrying the
// item's ETag makes the write conditional. Like the other writes, an unknown
// id answers updated=false rather than 404.
func (h *Handlers) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var it item.Item
	if err := decodeBody(r, &it); err != nil {
		renderError(w, err)
		return
	}
	id := r.PathValue("id")
	if it.ID != "" && it.ID != id {
		renderError(w, errors.NewInvalidRequest("item id does not match the URL"))
		return
	}
	it.ID = id

	input := ops.ReplaceInput{Item: &it}
	if match := r.Header.Get("If-Match"); match != "" {
		rev, err := parseRevisionTag(match)
		if err != nil {
			renderError(w, err)
			return
		}
		input.ExpectedRevision = &rev
	}

	result, err := ops.Replace(r.Context(), h.store, input)
	if err != nil {
		renderError(w, err)
		return
	}
	if result.Item != nil {
		w.Header().Set("ETag", revisionTag(result.Item.Revision))
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleEdit handles PATCH /items/{id}.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var body editBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Edit(r.Context(), h.store, ops.EditInput{
		ID:           r.PathValue("id"),
		AssignedTo:   body.AssignedTo,
		StartDate:    body.StartDate,
		DueDate:      body.DueDate,
		Project:      body.Project,
		TaskCategory: body.TaskCategory,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDelete handles DELETE /items/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.store, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleTransition handles POST /items/{id}/{action}. Prioritize reads its
// mode and factors from the body.
func (h *Handlers) HandleTransition(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	if action == "edit" {
		renderError(w, errors.NewInvalidRequest("use PATCH /items/{id} to edit fields"))
		return
	}

	var body prioritizeBody
	if err := decodeOptionalBody(r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Transition(r.Context(), h.store, h.cfg, ops.TransitionInput{
		ID:      r.PathValue("id"),
		Action:  action,
		Mode:    body.Mode,
		Factors: body.Factors,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAssist handles POST /items/{id}/assist/{kind} where kind is
// summary, tags or effort. tags?apply=true merges the suggestions.
func (h *Handlers) HandleAssist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		result any
		err    error
	)
	switch r.PathValue("kind") {
	case "summary":
		result, err = ops.Summarize(r.Context(), h.store, h.assist, ops.AssistInput{ID: id})
	case "tags":
		result, err = ops.SuggestTags(r.Context(), h.store, h.assist, ops.SuggestTagsInput{
			ID:    id,
			Apply: parseBoolParam(r, "apply"),
		})
	case "effort":
		result, err = ops.EstimateEffort(r.Context(), h.store, h.assist, ops.AssistInput{ID: id})
	default:
		err = errors.NewInvalidRequest(fmt.Sprintf("unknown assist %q (summary, tags, effort)", r.PathValue("kind")))
	}
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleView handles GET /views/{name}.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.View(h.store, ops.ViewInput{
		Name:    r.PathValue("name"),
		Tag:     ptrString(q.Get("tag")),
		Mode:    q.Get("mode"),
		Project: ptrString(q.Get("project")),
		Limit:   parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:  parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBoard handles GET /board.
func (h *Handlers) HandleBoard(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Board(h.store))
}

// HandleCalendar handles GET /calendar.
func (h *Handlers) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.Calendar(h.store, ops.CalendarInput{
		Mode: q.Get("mode"),
		From: q.Get("from"),
		Days: parseIntParam(r, "days", 0),
	}, h.now())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleNext handles GET /next.
func (h *Handlers) HandleNext(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Next(h.store, ops.NextInput{Mode: r.URL.Query().Get("mode")})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSearch handles GET /search?q=.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.Search(h.store, ops.SearchInput{
		Query:  q.Get("q"),
		Stage:  ptrString(q.Get("stage")),
		Tag:    ptrString(q.Get("tag")),
		Mode:   q.Get("mode"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleScore handles POST /score.
func (h *Handlers) HandleScore(w http.ResponseWriter, r *http.Request) {
	var body prioritizeBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	result, err := ops.Score(h.cfg, ops.ScoreInput{Mode: body.Mode, Factors: body.Factors})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleClassify handles POST /classify.
func (h *Handlers) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var body classifyBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	result, err := ops.Classify(h.cfg, ops.ClassifyInput{Mode: body.Mode, Score: body.Score})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBulk handles POST /bulk.
func (h *Handlers) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	result, err := ops.Bulk(r.Context(), h.store, h.cfg, ops.BulkInput{
		Action:  body.Action,
		IDs:     body.IDs,
		Mode:    body.Mode,
		Factors: body.Factors,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleBulkDelete handles POST /bulk/delete.
func (h *Handlers) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if err := decodeBody(r, &body); err != nil {
		renderError(w, err)
		return
	}
	result, err := ops.BulkDelete(r.Context(), h.store, ops.BulkDeleteInput{IDs: body.IDs})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandlePurge handles POST /purge?confirm=true[&older_than_days=N].
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if !parseBoolParam(r, "confirm") {
		renderError(w, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.URL.Query().Get("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			renderError(w, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.store, h.cfg, input, h.now())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// renderJSON writes data as a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes the structured error body with the error's status.
// Details of INTERNAL errors are never exposed.
func renderError(w http.ResponseWriter, err error) {
	sErr := errors.As(err)
	errorObj := map[string]any{
		"code":    string(sErr.Code),
		"message": sErr.Message,
		"status":  sErr.Status,
	}
	if sErr.Code != errors.ErrInternal && sErr.Details != nil {
		errorObj["details"] = sErr.Details
	}
	renderJSON(w, sErr.Status, map[string]any{"error": errorObj})
}

// decodeBody reads a required JSON body into dst.
func decodeBody(r *http.Request, dst any) error {
	return decodeJSON(r, dst, true)
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty.
func decodeOptionalBody(r *http.Request, dst any) error {
	return decodeJSON(r, dst, false)
}

func decodeJSON(r *http.Request, dst any, required bool) error {
	if r.Body == nil {
		if required {
			return errors.NewInvalidRequest("request body is required")
		}
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, io.EOF):
		if required {
			return errors.NewInvalidRequest("request body is required")
		}
		return nil
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
}

// revisionTag formats a revision as a strong ETag.
func revisionTag(rev int64) string {
	return strconv.Quote(strconv.FormatInt(rev, 10))
}

// parseRevisionTag accepts a quoted or bare revision number.
func parseRevisionTag(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "W/")
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	rev, err := strconv.ParseInt(s, 10, 64)
	if err != nil || rev < 1 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("If-Match must carry an item revision (got %q)", s))
	}
	return rev, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
