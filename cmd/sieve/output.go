package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/sieve/internal/errors"
)

// Output formats accepted by --format.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// outputFormat resolves --format. Without the flag, a terminal gets a table
// and anything else gets JSON.
func outputFormat(c *cli.Context) (string, error) {
	format := strings.ToLower(strings.TrimSpace(c.String("format")))
	switch format {
	case "":
		if isTTY(c.App.Writer) {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatJSON, formatYAML, formatTable:
		return format, nil
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("format must be one of: json, yaml, table (got %q)", format))
	}
}

// render writes v in the selected format. table may be nil for results that
// have no tabular shape; those fall back to YAML.
func render(c *cli.Context, v any, table func() string) error {
	format, err := outputFormat(c)
	if err != nil {
		return outputError(err)
	}
	w := c.App.Writer
	switch format {
	case formatTable:
		if table != nil {
			_, err := fmt.Fprintln(w, table())
			return err
		}
		return outputYAML(w, v)
	case formatYAML:
		return outputYAML(w, v)
	default:
		return outputJSON(w, v)
	}
}

// outputJSON marshals v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML goes through JSON first so field names and omitempty match the
// JSON output.
func outputYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	se := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", se.Code, se.Message), 1)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readInput reads all of r, trimmed.
func readInput(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}

// optionalString returns a pointer to the flag value when it was set, so
// an explicit empty value differs from an absent flag.
func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}
