package item

import "strings"

// Type is the kind of captured content. It is informational and never
// affects routing.
type Type string

const (
	TypeTask  Type = "Task"
	TypeIdea  Type = "Idea"
	TypeNote  Type = "Note"
	TypeMedia Type = "Media"
)

// Types lists every item type in display order.
var Types = []Type{TypeTask, TypeIdea, TypeNote, TypeMedia}

// ParseType resolves a case-insensitive type name.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// Mode selects the scoring formula and threshold table.
type Mode string

const (
	ModeProfessional Mode = "professional"
	ModePersonal     Mode = "personal"
)

// ParseMode resolves a case-insensitive mode name.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeProfessional:
		return ModeProfessional, true
	case ModePersonal:
		return ModePersonal, true
	}
	return "", false
}

// TaskCategory partitions ongoing work into tabs.
type TaskCategory string

const (
	TaskFuture      TaskCategory = "future"
	TaskMaintain    TaskCategory = "maintain"
	TaskDistraction TaskCategory = "distraction"
)

// ParseTaskCategory resolves a case-insensitive task category.
func ParseTaskCategory(s string) (TaskCategory, bool) {
	switch TaskCategory(strings.ToLower(strings.TrimSpace(s))) {
	case TaskFuture:
		return TaskFuture, true
	case TaskMaintain:
		return TaskMaintain, true
	case TaskDistraction:
		return TaskDistraction, true
	}
	return "", false
}

// Certainty is an informational confidence marker set at capture.
type Certainty string

const (
	Certain   Certainty = "certain"
	Uncertain Certainty = "uncertain"
)

// ParseCertainty resolves a case-insensitive certainty value.
func ParseCertainty(s string) (Certainty, bool) {
	switch Certainty(strings.ToLower(strings.TrimSpace(s))) {
	case Certain:
		return Certain, true
	case Uncertain:
		return Uncertain, true
	}
	return "", false
}

// Factors are the user-supplied scoring inputs. Reach is only read in
// professional mode.
type Factors struct {
	Reach      int `json:"reach"`
	Impact     int `json:"impact"`
	Confidence int `json:"confidence"`
	Effort     int `json:"effort"`
}

// Assessment is the result of prioritizing an item. Mode and score are set
// together, so an item is either fully assessed or not assessed at all.
type Assessment struct {
	Mode       Mode    `json:"mode"`
	Factors    Factors `json:"factors"`
	FinalScore float64 `json:"final_score"`
}

// Item is a single captured unit tracked through the workflow.
type Item struct {
	// ID is a ULID assigned at creation; never reused
	ID string

	Type  Type
	Title string
	Body  string

	// Tags keep their insertion order for display
	Tags []string

	// Source is a free-text origin label (e.g. "cli", "mcp")
	Source string

	// CreatedAt is the Unix timestamp of capture
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last store write
	UpdatedAt int64

	// Revision increments on every store write
	Revision int64

	// Stage is the authoritative lifecycle position
	Stage Stage

	// Assessment is nil until the item is prioritized. It survives a return
	// to review and is overwritten by the next prioritize.
	Assessment *Assessment

	// Scheduling metadata, settable only after the item leaves the inbox
	AssignedTo   *string
	StartDate    *string
	DueDate      *string
	Project      *string
	TaskCategory *TaskCategory

	Certainty *Certainty
}

// Draft holds the capture fields a caller supplies to create an item.
type Draft struct {
	Type      Type
	Title     string
	Body      string
	Tags      []string
	Source    string
	Certainty *Certainty
}

// Scored reports whether the item carries an assessment.
func (it *Item) Scored() bool {
	return it.Assessment != nil
}

// Mode returns the assessment mode, or "" when unscored.
func (it *Item) Mode() Mode {
	if it.Assessment == nil {
		return ""
	}
	return it.Assessment.Mode
}

// Clone returns a deep copy so callers can mutate without touching the store.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	if it.Tags != nil {
		c.Tags = append([]string(nil), it.Tags...)
	}
	if it.Assessment != nil {
		a := *it.Assessment
		c.Assessment = &a
	}
	c.AssignedTo = cloneString(it.AssignedTo)
	c.StartDate = cloneString(it.StartDate)
	c.DueDate = cloneString(it.DueDate)
	c.Project = cloneString(it.Project)
	if it.TaskCategory != nil {
		tc := *it.TaskCategory
		c.TaskCategory = &tc
	}
	if it.Certainty != nil {
		ce := *it.Certainty
		c.Certainty = &ce
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
