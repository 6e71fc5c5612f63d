package item

// Summary represents an item's metadata without the body.
// Used for browse operations (list, views, search) to reduce data transfer.
type Summary struct {
	ID           string        `json:"id"`
	Type         Type          `json:"type"`
	Title        string        `json:"title"`
	Stage        Stage         `json:"stage"`
	Tags         []string      `json:"tags,omitempty"`
	Source       string        `json:"source,omitempty"`
	Mode         Mode          `json:"mode,omitempty"`
	FinalScore   *float64      `json:"final_score,omitempty"`
	Project      *string       `json:"project,omitempty"`
	TaskCategory *TaskCategory `json:"task_category,omitempty"`
	StartDate    *string       `json:"start_date,omitempty"`
	DueDate      *string       `json:"due_date,omitempty"`
	AssignedTo   *string       `json:"assigned_to,omitempty"`
	CreatedAt    int64         `json:"created_at"`
	UpdatedAt    int64         `json:"updated_at"`
	Revision     int64         `json:"revision"`
}

// ToSummary converts an Item to a Summary by stripping the body.
func (it *Item) ToSummary() Summary {
	s := Summary{
		ID:           it.ID,
		Type:         it.Type,
		Title:        it.Title,
		Stage:        it.Stage,
		Tags:         it.Tags,
		Source:       it.Source,
		Project:      it.Project,
		TaskCategory: it.TaskCategory,
		StartDate:    it.StartDate,
		DueDate:      it.DueDate,
		AssignedTo:   it.AssignedTo,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
		Revision:     it.Revision,
	}
	if it.Assessment != nil {
		s.Mode = it.Assessment.Mode
		score := it.Assessment.FinalScore
		s.FinalScore = &score
	}
	return s
}

// Summaries converts a slice of items.
func Summaries(items []*Item) []Summary {
	out := make([]Summary, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToSummary())
	}
	return out
}
