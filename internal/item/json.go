package item

import "encoding/json"

// wireItem is the JSON shape of an item. It carries both the stage and the
// legacy flags so collaborators speaking either dialect can read it.
//
// The flags cannot express a review item that still holds an assessment
// (after restore or move-to-review): they read processed, todo, scored, which
// the flag dialect means as scheduled. Only the stage field keeps such an
// item in review, so readers that drop it will see it as scheduled.
type wireItem struct {
	ID        string   `json:"id"`
	Type      Type     `json:"type"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Source    string   `json:"source"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at,omitempty"`
	Revision  int64    `json:"revision,omitempty"`

	Stage         Stage    `json:"stage,omitempty"`
	ProcessedFlag bool     `json:"processed_flag"`
	Status        Status   `json:"status,omitempty"`
	Binned        *bool    `json:"binned,omitempty"`
	Category      Category `json:"category,omitempty"`

	PrioritizationType Mode     `json:"prioritization_type,omitempty"`
	Reach              *int     `json:"reach,omitempty"`
	Impact             *int     `json:"impact,omitempty"`
	Confidence         *int     `json:"confidence,omitempty"`
	Effort             *int     `json:"effort,omitempty"`
	FinalScore         *float64 `json:"final_score,omitempty"`

	AssignedTo   *string       `json:"assigned_to,omitempty"`
	StartDate    *string       `json:"start_date,omitempty"`
	DueDate      *string       `json:"due_date,omitempty"`
	Project      *string       `json:"project,omitempty"`
	TaskCategory *TaskCategory `json:"task_category,omitempty"`
	Certainty    *Certainty    `json:"certainty,omitempty"`
}

// MarshalJSON emits the item with its stage and the derived legacy flags.
func (it Item) MarshalJSON() ([]byte, error) {
	f := FlagsFor(it.Stage)
	w := wireItem{
		ID:            it.ID,
		Type:          it.Type,
		Title:         it.Title,
		Body:          it.Body,
		Tags:          it.Tags,
		Source:        it.Source,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
		Revision:      it.Revision,
		Stage:         it.Stage,
		ProcessedFlag: f.Processed,
		Status:        f.Status,
		Category:      f.Category,
		AssignedTo:    it.AssignedTo,
		StartDate:     it.StartDate,
		DueDate:       it.DueDate,
		Project:       it.Project,
		TaskCategory:  it.TaskCategory,
		Certainty:     it.Certainty,
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if f.Binned {
		binned := true
		w.Binned = &binned
	}
	if a := it.Assessment; a != nil {
		w.PrioritizationType = a.Mode
		w.Reach = intPtr(a.Factors.Reach)
		w.Impact = intPtr(a.Factors.Impact)
		w.Confidence = intPtr(a.Factors.Confidence)
		w.Effort = intPtr(a.Factors.Effort)
		score := a.FinalScore
		w.FinalScore = &score
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts either dialect. Without a stage field the stage is
// derived from the legacy flags. An assessment is only read when both the
// prioritization type and final score are present.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*it = Item{
		ID:           w.ID,
		Type:         w.Type,
		Title:        w.Title,
		Body:         w.Body,
		Tags:         w.Tags,
		Source:       w.Source,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
		Revision:     w.Revision,
		AssignedTo:   w.AssignedTo,
		StartDate:    w.StartDate,
		DueDate:      w.DueDate,
		Project:      w.Project,
		TaskCategory: w.TaskCategory,
		Certainty:    w.Certainty,
	}

	if w.PrioritizationType != "" && w.FinalScore != nil {
		it.Assessment = &Assessment{
			Mode: w.PrioritizationType,
			Factors: Factors{
				Reach:      derefInt(w.Reach),
				Impact:     derefInt(w.Impact),
				Confidence: derefInt(w.Confidence),
				Effort:     derefInt(w.Effort),
			},
			FinalScore: *w.FinalScore,
		}
	}

	if w.Stage != "" {
		it.Stage = w.Stage
	} else {
		it.Stage = DeriveStage(Flags{
			Processed: w.ProcessedFlag,
			Status:    w.Status,
			Binned:    w.Binned != nil && *w.Binned,
			Category:  w.Category,
		}, it.Assessment != nil)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
