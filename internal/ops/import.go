package ops

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/store"
)

// Import limits
const (
	MaxImportBytes     = 64 << 20
	maxImportLineBytes = 4 << 20
)

// ImportMode controls id-collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any collision, import nothing
	ImportModeReplace ImportMode = "replace" // overwrite the stored item
	ImportModeSkip    ImportMode = "skip"    // keep the stored item
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one rejected line.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	item *item.Item
}

// Import reads a JSONL export back into the store.
func Import(ctx context.Context, st *store.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeSkip:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := err.(*errors.SieveError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if info.Size() > MaxImportBytes {
		return nil, errors.NewFileTooLarge(MaxImportBytes, info.Size())
	}

	records, parseErrors := parseExportFile(file)
	out := &ImportOutput{Errors: []ImportError{}}

	if input.Mode == ImportModeError {
		if len(parseErrors) > 0 {
			out.Errors = parseErrors
			return out, nil
		}
		if collisions := findCollisions(st, records); len(collisions) > 0 {
			out.Errors = collisions
			return out, nil
		}
	} else {
		out.Errors = append(out.Errors, parseErrors...)
		out.Skipped += len(parseErrors)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled(err)
		}
		if input.Mode == ImportModeSkip {
			if _, exists := st.Get(rec.item.ID); exists {
				out.Skipped++
				continue
			}
		}
		if err := st.Put(ctx, rec.item); err != nil {
			return nil, err
		}
		out.Imported++
	}

	slog.InfoContext(ctx, "import finished",
		"path", input.Path, "mode", input.Mode, "imported", out.Imported, "skipped", out.Skipped)
	return out, nil
}

// parseExportFile decodes every item line, skipping the header.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		header, it, err := item.ParseExportLine(line)
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if header != nil {
			continue
		}
		if it.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}
		stage, ok := item.ParseStage(string(it.Stage))
		if !ok {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      it.ID,
				Code:    "INVALID_RECORD",
				Message: fmt.Sprintf("unknown stage %q", it.Stage),
			})
			continue
		}
		it.Stage = stage
		records = append(records, importRecord{line: lineNum, item: it})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, parseErrors
}

// findCollisions reports ids already in the store or repeated in the file.
func findCollisions(st *store.Store, records []importRecord) []ImportError {
	var out []ImportError
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		id := rec.item.ID
		if first, dup := seen[id]; dup {
			out = append(out, ImportError{
				Line:    rec.line,
				ID:      id,
				Code:    "DUPLICATE_ID",
				Message: fmt.Sprintf("id %q already appears on line %d", id, first),
			})
			continue
		}
		seen[id] = rec.line
		if _, exists := st.Get(id); exists {
			out = append(out, ImportError{
				Line:    rec.line,
				ID:      id,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("item with id %q already exists", id),
			})
		}
	}
	return out
}
