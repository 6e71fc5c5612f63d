// Package ops is the contract the transports call: every read and write of
// items goes through one of these functions, which validate input, run the
// workflow engine and commit through the store.
package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
)

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	MaxBulkItems     = 100
	MinFactor        = 1
	MaxFactor        = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate clamps limit/offset and returns the page of items.
func paginate[T any](all []T, limit, offset int) ([]T, Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	total := len(all)
	start := min(offset, total)
	end := min(start+limit, total)
	page := all[start:end]

	return page, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}

// requireID trims and checks an item id.
func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// parseMode validates a mode string. Empty is allowed when optional.
func parseMode(s string, optional bool) (item.Mode, error) {
	if strings.TrimSpace(s) == "" {
		if optional {
			return "", nil
		}
		return "", errors.NewInvalidRequest("mode is required (professional or personal)")
	}
	m, ok := item.ParseMode(s)
	if !ok {
		return "", errors.NewInvalidRequest(fmt.Sprintf("mode must be one of: professional, personal (got %q)", s))
	}
	return m, nil
}

// parseStage validates an optional stage filter.
func parseStage(s *string) (*item.Stage, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	st, ok := item.ParseStage(*s)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown stage: %q", *s))
	}
	return &st, nil
}

// validateFactors enforces the [1,100] range for committed assessments.
// Reach is only checked in professional mode; personal assessments drop it.
func validateFactors(mode item.Mode, f item.Factors) error {
	check := func(name string, v int) error {
		if v < MinFactor || v > MaxFactor {
			return errors.NewInvalidRequest(fmt.Sprintf("%s must be between %d and %d (got %d)", name, MinFactor, MaxFactor, v))
		}
		return nil
	}
	if mode == item.ModeProfessional {
		if err := check("reach", f.Reach); err != nil {
			return err
		}
	}
	if err := check("impact", f.Impact); err != nil {
		return err
	}
	if err := check("confidence", f.Confidence); err != nil {
		return err
	}
	return check("effort", f.Effort)
}

// cleanOptionalString trims s and maps blank to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// itemFilter narrows a list of items by tag, mode and project.
type itemFilter struct {
	Stage   *item.Stage
	Tag     *string
	Mode    item.Mode
	Project *string
}

func (f itemFilter) match(it *item.Item) bool {
	if f.Stage != nil && it.Stage != *f.Stage {
		return false
	}
	if f.Tag != nil && !it.HasTag(*f.Tag) {
		return false
	}
	if f.Mode != "" && it.Mode() != f.Mode {
		return false
	}
	if f.Project != nil {
		if it.Project == nil || item.Normalize(*it.Project) != item.Normalize(*f.Project) {
			return false
		}
	}
	return true
}

func (f itemFilter) apply(items []*item.Item) []*item.Item {
	out := make([]*item.Item, 0, len(items))
	for _, it := range items {
		if f.match(it) {
			out = append(out, it)
		}
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
