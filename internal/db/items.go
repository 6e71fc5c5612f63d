package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/hpungsan/sieve/internal/item"
)

const itemsTable = "items"

var itemColumns = []string{
	"id", "type", "title", "body", "tags_json", "source", "stage",
	"mode", "reach", "impact", "confidence", "effort", "final_score",
	"assigned_to", "start_date", "due_date", "project", "task_category", "certainty",
	"revision", "created_at", "updated_at",
}

// builder produces SQLite-flavoured statements.
var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Persister stores items in the items table. It satisfies store.Persister.
type Persister struct {
	db *sql.DB
}

// NewPersister wraps an initialized database.
func NewPersister(db *sql.DB) *Persister {
	return &Persister{db: db}
}

// Load returns all items, newest-created first.
func (p *Persister) Load(ctx context.Context) ([]*item.Item, error) {
	query, args, err := builder.
		Select(itemColumns...).
		From(itemsTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get reads one item by id; it returns nil when absent.
func (p *Persister) Get(ctx context.Context, id string) (*item.Item, error) {
	query, args, err := builder.
		Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	it, err := scanItem(p.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return it, err
}

// Save inserts the item or replaces the row with the same id.
func (p *Persister) Save(ctx context.Context, it *item.Item) error {
	var tagsJSON sql.NullString
	if len(it.Tags) > 0 {
		data, err := json.Marshal(it.Tags)
		if err != nil {
			return err
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var (
		mode                              sql.NullString
		reach, impact, confidence, effort sql.NullInt64
		finalScore                        sql.NullFloat64
	)
	if a := it.Assessment; a != nil {
		mode = sql.NullString{String: string(a.Mode), Valid: true}
		reach = sql.NullInt64{Int64: int64(a.Factors.Reach), Valid: true}
		impact = sql.NullInt64{Int64: int64(a.Factors.Impact), Valid: true}
		confidence = sql.NullInt64{Int64: int64(a.Factors.Confidence), Valid: true}
		effort = sql.NullInt64{Int64: int64(a.Factors.Effort), Valid: true}
		finalScore = sql.NullFloat64{Float64: a.FinalScore, Valid: true}
	}

	var taskCategory, certainty sql.NullString
	if it.TaskCategory != nil {
		taskCategory = sql.NullString{String: string(*it.TaskCategory), Valid: true}
	}
	if it.Certainty != nil {
		certainty = sql.NullString{String: string(*it.Certainty), Valid: true}
	}

	query, args, err := builder.
		Insert(itemsTable).
		Columns(itemColumns...).
		Values(
			it.ID, string(it.Type), it.Title, it.Body, tagsJSON, it.Source, string(it.Stage),
			mode, reach, impact, confidence, effort, finalScore,
			toNullString(it.AssignedTo), toNullString(it.StartDate), toNullString(it.DueDate),
			toNullString(it.Project), taskCategory, certainty,
			it.Revision, it.CreatedAt, it.UpdatedAt,
		).
		Suffix(upsertSuffix()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save item %s: %w", it.ID, err)
	}
	return nil
}

// Delete removes the row with id.
func (p *Persister) Delete(ctx context.Context, id string) error {
	query, args, err := builder.
		Delete(itemsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// CountByStage returns the number of stored items per stage.
func (p *Persister) CountByStage(ctx context.Context) (map[item.Stage]int, error) {
	query, args, err := builder.
		Select("stage", "COUNT(*)").
		From(itemsTable).
		GroupBy("stage").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[item.Stage]int{}
	for rows.Next() {
		var (
			stage string
			n     int
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[item.Stage(stage)] = n
	}
	return counts, rows.Err()
}

func upsertSuffix() string {
	s := "ON CONFLICT(id) DO UPDATE SET "
	for i, col := range itemColumns[1:] {
		if i > 0 {
			s += ", "
		}
		s += col + " = excluded." + col
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

// scanItem scans a single row into an Item.
func scanItem(row scanner) (*item.Item, error) {
	var (
		it                                item.Item
		typ, stage                        string
		tagsJSON                          sql.NullString
		mode                              sql.NullString
		reach, impact, confidence, effort sql.NullInt64
		finalScore                        sql.NullFloat64
		assignedTo, startDate, dueDate    sql.NullString
		project, taskCategory, certainty  sql.NullString
	)

	err := row.Scan(
		&it.ID, &typ, &it.Title, &it.Body, &tagsJSON, &it.Source, &stage,
		&mode, &reach, &impact, &confidence, &effort, &finalScore,
		&assignedTo, &startDate, &dueDate, &project, &taskCategory, &certainty,
		&it.Revision, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	it.Type = item.Type(typ)
	it.Stage = item.Stage(stage)
	it.AssignedTo = fromNullString(assignedTo)
	it.StartDate = fromNullString(startDate)
	it.DueDate = fromNullString(dueDate)
	it.Project = fromNullString(project)

	if taskCategory.Valid {
		tc := item.TaskCategory(taskCategory.String)
		it.TaskCategory = &tc
	}
	if certainty.Valid {
		c := item.Certainty(certainty.String)
		it.Certainty = &c
	}
	if mode.Valid && finalScore.Valid {
		it.Assessment = &item.Assessment{
			Mode: item.Mode(mode.String),
			Factors: item.Factors{
				Reach:      int(reach.Int64),
				Impact:     int(impact.Int64),
				Confidence: int(confidence.Int64),
				Effort:     int(effort.Int64),
			},
			FinalScore: finalScore.Float64,
		}
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &it.Tags); err != nil {
			return nil, err
		}
	}

	return &it, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
