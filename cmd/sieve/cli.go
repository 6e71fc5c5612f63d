package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sieve/internal/assist"
	"github.com/hpungsan/sieve/internal/config"
	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
	"github.com/hpungsan/sieve/internal/ops"
	"github.com/hpungsan/sieve/internal/store"
	"github.com/hpungsan/sieve/internal/web"
	"github.com/hpungsan/sieve/internal/workflow"
)

// stageCounter reports item counts per stage straight from storage.
type stageCounter interface {
	CountByStage(ctx context.Context) (map[item.Stage]int, error)
}

// env carries what the commands operate on. It is nil for --help and
// --version, which never reach an action.
type env struct {
	store  *store.Store
	cfg    *config.Config
	assist assist.Assistant
	counts stageCounter
	logger *slog.Logger
	now    func() time.Time
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "sieve",
		Usage:   "Capture, triage and schedule work items",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"o"}, Usage: "Output format: json|yaml|table (default: table on a terminal, json otherwise)"},
		},
		Commands: []*cli.Command{
			captureCmd(e),
			showCmd(e),
			replaceCmd(e),
			editCmd(e),
			deleteCmd(e),
			listCmd(e),
			viewCmd(e),
			boardCmd(e),
			calendarCmd(e),
			nextCmd(e),
			searchCmd(e),
			transitionCmd(e, workflow.ActionProcess, "Move an inbox item to review"),
			transitionCmd(e, workflow.ActionArchive, "Discard an inbox item"),
			transitionCmd(e, workflow.ActionMoveToReview, "Send a re-evaluate item back to review"),
			transitionCmd(e, workflow.ActionRestore, "Return a discarded item to review"),
			transitionCmd(e, workflow.ActionStart, "Start a scheduled item"),
			transitionCmd(e, workflow.ActionDone, "Mark an item done"),
			transitionCmd(e, workflow.ActionReschedule, "Move an ongoing item back to scheduled"),
			prioritizeCmd(e),
			bulkCmd(e),
			scoreCmd(e),
			classifyCmd(e),
			summarizeCmd(e),
			tagsCmd(e),
			effortCmd(e),
			exportCmd(e),
			importCmd(e),
			purgeCmd(e),
			statsCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func factorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Required: true, Usage: "Scoring mode: professional|personal"},
		&cli.IntFlag{Name: "reach", Aliases: []string{"r"}, Usage: "Reach 1-100 (professional only)"},
		&cli.IntFlag{Name: "impact", Aliases: []string{"i"}, Usage: "Impact 1-100"},
		&cli.IntFlag{Name: "confidence", Aliases: []string{"c"}, Usage: "Confidence 1-100"},
		&cli.IntFlag{Name: "effort", Aliases: []string{"e"}, Usage: "Effort 1-100"},
	}
}

func factorsFrom(c *cli.Context) item.Factors {
	return item.Factors{
		Reach:      c.Int("reach"),
		Impact:     c.Int("impact"),
		Confidence: c.Int("confidence"),
		Effort:     c.Int("effort"),
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Filter by tag"},
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Filter by mode: professional|personal"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items to return"},
		&cli.IntFlag{Name: "offset", Usage: "Items to skip"},
	}
}

// requireArgs returns the positional arguments, failing when there are fewer
// than n.
func requireArgs(c *cli.Context, n int, what string) ([]string, error) {
	if c.NArg() < n {
		return nil, errors.NewInvalidRequest(what + " is required")
	}
	return c.Args().Slice(), nil
}

// captureCmd creates the capture command.
func captureCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Aliases:   []string{"add"},
		Usage:     "Capture a new item into the inbox",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Item body; \"-\" reads it from stdin"},
			&cli.StringFlag{Name: "type", Value: string(item.TypeTask), Usage: "Item type: Task|Idea|Note|Media"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "certainty", Usage: "certain|uncertain"},
		},
		Action: func(c *cli.Context) error {
			if _, err := requireArgs(c, 1, "title"); err != nil {
				return outputError(err)
			}
			body := c.String("body")
			if body == "-" {
				var err error
				if body, err = readInput(c.App.Reader); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}
			output, err := ops.Create(c.Context, e.store, ops.CreateInput{
				Type:      c.String("type"),
				Title:     c.Args().First(),
				Body:      body,
				Tags:      parseTags(c.String("tags")),
				Source:    "cli",
				Certainty: optionalString(c, "certainty"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return itemTable(output.Item, nil) })
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Aliases:   []string{"get"},
		Usage:     "Show one item and the actions available to it",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Get(e.store, ops.GetInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return itemTable(output.Item, output.Actions) })
		},
	}
}

// replaceCmd creates the replace command.
func replaceCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "replace",
		Usage: "Replace a stored item with the JSON item read from stdin",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "expected-revision", Usage: "Only replace when the stored revision matches"},
		},
		Action: func(c *cli.Context) error {
			raw, err := readInput(c.App.Reader)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if raw == "" {
				return outputError(errors.NewInvalidRequest("item JSON must be piped via stdin"))
			}
			var it item.Item
			if err := json.Unmarshal([]byte(raw), &it); err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid item JSON: %v", err)))
			}
			input := ops.ReplaceInput{Item: &it}
			if c.IsSet("expected-revision") {
				rev := c.Int64("expected-revision")
				input.ExpectedRevision = &rev
			}
			output, err := ops.Replace(c.Context, e.store, input)
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// editCmd creates the edit command.
func editCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Set scheduling metadata; an empty value clears the field",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "assigned-to", Usage: "Assignee"},
			&cli.StringFlag{Name: "start", Usage: "Start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "project", Usage: "Project name"},
			&cli.StringFlag{Name: "category", Usage: "Task category: future|maintain|distraction"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Edit(c.Context, e.store, ops.EditInput{
				ID:           c.Args().First(),
				AssignedTo:   optionalString(c, "assigned-to"),
				StartDate:    optionalString(c, "start"),
				DueDate:      optionalString(c, "due"),
				Project:      optionalString(c, "project"),
				TaskCategory: optionalString(c, "category"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return transitionTable(output) })
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete items permanently",
		ArgsUsage: "<id> [id...]",
		Action: func(c *cli.Context) error {
			ids, err := requireArgs(c, 1, "id")
			if err != nil {
				return outputError(err)
			}
			if len(ids) == 1 {
				output, err := ops.Delete(c.Context, e.store, ops.DeleteInput{ID: ids[0]})
				if err != nil {
					return outputError(err)
				}
				return render(c, output, nil)
			}
			output, err := ops.BulkDelete(c.Context, e.store, ops.BulkDeleteInput{IDs: ids})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	flags := append(filterFlags(), &cli.StringFlag{Name: "stage", Aliases: []string{"s"}, Usage: "Filter by stage"})
	return &cli.Command{
		Name:  "list",
		Usage: "List items, newest first",
		Flags: flags,
		Action: func(c *cli.Context) error {
			output, err := ops.List(e.store, ops.ListInput{
				Stage:  optionalString(c, "stage"),
				Tag:    optionalString(c, "tag"),
				Mode:   c.String("mode"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return summaryTable(output.Items) })
		},
	}
}

// viewCmd creates the view command.
func viewCmd(e *env) *cli.Command {
	flags := append(filterFlags(), &cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project"})
	return &cli.Command{
		Name:      "view",
		Usage:     "Show a named view (inbox, review, scheduled, ongoing, discard, re-evaluate, calendar, done)",
		ArgsUsage: "<name>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			output, err := ops.View(e.store, ops.ViewInput{
				Name:    c.Args().First(),
				Tag:     optionalString(c, "tag"),
				Mode:    c.String("mode"),
				Project: optionalString(c, "project"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return summaryTable(output.Items) })
		},
	}
}

// boardCmd creates the board command.
func boardCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "board",
		Usage: "Show ongoing items grouped by tab and project",
		Action: func(c *cli.Context) error {
			output := ops.Board(e.store)
			return render(c, output, func() string { return boardTable(output) })
		},
	}
}

// calendarCmd creates the calendar command.
func calendarCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Show start and due dates day by day",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Filter by mode: professional|personal"},
			&cli.StringFlag{Name: "from", Usage: "First day (YYYY-MM-DD, default: start of this week)"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7, Usage: "Number of days"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Calendar(e.store, ops.CalendarInput{
				Mode: c.String("mode"),
				From: c.String("from"),
				Days: c.Int("days"),
			}, e.now())
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return calendarTable(output) })
		},
	}
}

// nextCmd creates the next command.
func nextCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Show the highest-scoring scheduled item",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Filter by mode: professional|personal"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Next(e.store, ops.NextInput{Mode: c.String("mode")})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string {
				if output.Item == nil {
					return "Nothing scheduled."
				}
				return itemTable(output.Item, nil)
			})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(e *env) *cli.Command {
	flags := append(filterFlags(), &cli.StringFlag{Name: "stage", Aliases: []string{"s"}, Usage: "Filter by stage"})
	return &cli.Command{
		Name:      "search",
		Usage:     "Search titles, tags and bodies",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			output, err := ops.Search(e.store, ops.SearchInput{
				Query:  c.Args().First(),
				Stage:  optionalString(c, "stage"),
				Tag:    optionalString(c, "tag"),
				Mode:   c.String("mode"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string {
				summaries := make([]item.Summary, 0, len(output.Items))
				for _, r := range output.Items {
					summaries = append(summaries, r.Summary)
				}
				return summaryTable(summaries)
			})
		},
	}
}

// transitionCmd creates a command that applies one fixed action.
func transitionCmd(e *env, action workflow.Action, usage string) *cli.Command {
	name := string(action)
	var aliases []string
	switch action {
	case workflow.ActionMoveToReview:
		name, aliases = "review", []string{string(action)}
	case workflow.ActionDone:
		aliases = []string{"complete"}
	}
	return &cli.Command{
		Name:      name,
		Aliases:   aliases,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Transition(c.Context, e.store, e.cfg, ops.TransitionInput{
				ID:     c.Args().First(),
				Action: string(action),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return transitionTable(output) })
		},
	}
}

// prioritizeCmd creates the prioritize command.
func prioritizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "prioritize",
		Usage:     "Score a review item and route it by the score",
		ArgsUsage: "<id>",
		Flags:     factorFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Transition(c.Context, e.store, e.cfg, ops.TransitionInput{
				ID:      c.Args().First(),
				Action:  string(workflow.ActionPrioritize),
				Mode:    c.String("mode"),
				Factors: factorsFrom(c),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return transitionTable(output) })
		},
	}
}

// bulkCmd creates the bulk command.
func bulkCmd(e *env) *cli.Command {
	flags := factorFlags()
	flags[0] = &cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Scoring mode for prioritize: professional|personal"}
	return &cli.Command{
		Name:      "bulk",
		Usage:     "Apply one action to several items",
		ArgsUsage: "<action> <id> [id...]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			args, err := requireArgs(c, 2, "action and at least one id")
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Bulk(c.Context, e.store, e.cfg, ops.BulkInput{
				Action:  args[0],
				IDs:     args[1:],
				Mode:    c.String("mode"),
				Factors: factorsFrom(c),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string {
				rows := make([][]string, 0, len(output.Results))
				for _, r := range output.Results {
					status := "unchanged"
					switch {
					case r.Error != nil:
						status = r.Error.Code
					case !r.Applied:
						status = "unknown id"
					case r.Changed:
						status = "changed"
					}
					rows = append(rows, []string{r.ID, string(r.From), string(r.To), status})
				}
				return renderTable([]string{"ID", "From", "To", "Result"}, rows, nil) + "\n" + output.Message
			})
		},
	}
}

// scoreCmd creates the score command.
func scoreCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Compute a score and decision without touching any item",
		Flags: factorFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Score(e.cfg, ops.ScoreInput{Mode: c.String("mode"), Factors: factorsFrom(c)})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// classifyCmd creates the classify command.
func classifyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Map a final score to its decision",
		ArgsUsage: "<score>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Required: true, Usage: "Scoring mode: professional|personal"},
		},
		Action: func(c *cli.Context) error {
			if _, err := requireArgs(c, 1, "score"); err != nil {
				return outputError(err)
			}
			score, err := strconv.ParseFloat(c.Args().First(), 64)
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid score: %q", c.Args().First())))
			}
			output, err := ops.Classify(e.cfg, ops.ClassifyInput{Mode: c.String("mode"), Score: score})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// summarizeCmd creates the summarize command.
func summarizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize an item's body",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Summarize(c.Context, e.store, e.assist, ops.AssistInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return output.Summary })
		},
	}
}

// tagsCmd creates the tags command.
func tagsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "tags",
		Usage:     "Suggest tags for an item",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "apply", Aliases: []string{"a"}, Usage: "Merge the suggestions into the item"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.SuggestTags(c.Context, e.store, e.assist, ops.SuggestTagsInput{
				ID:    c.Args().First(),
				Apply: c.Bool("apply"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// effortCmd creates the effort command.
func effortCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "effort",
		Usage:     "Estimate the effort an item needs",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.EstimateEffort(c.Context, e.store, e.assist, ops.AssistInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, func() string { return output.Estimate })
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export items to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.sieve/exports/<stage>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "stage", Aliases: []string{"s"}, Usage: "Filter by stage"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.store, e.cfg, ops.ExportInput{
				Path:  c.String("path"),
				Stage: optionalString(c, "stage"),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import items from a JSONL file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			if _, err := requireArgs(c, 1, "path"); err != nil {
				return outputError(err)
			}
			output, err := ops.Import(c.Context, e.store, e.cfg, ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete done items",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge items done more than N days ago (e.g., 30d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}
			output, err := ops.Purge(c.Context, e.store, e.cfg, input, e.now())
			if err != nil {
				return outputError(err)
			}
			return render(c, output, nil)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Count items per stage",
		Action: func(c *cli.Context) error {
			if e.counts == nil {
				return outputError(errors.NewInvalidRequest("stats needs a database"))
			}
			counts, err := e.counts.CountByStage(c.Context)
			if err != nil {
				return outputError(err)
			}
			out := make(map[string]int, len(item.Stages))
			for _, s := range item.Stages {
				out[string(s)] = counts[s]
			}
			return render(c, out, func() string {
				rows := make([][]string, 0, len(out))
				for _, s := range item.Stages {
					rows = append(rows, []string{string(s), strconv.Itoa(out[string(s)])})
				}
				return renderTable([]string{"Stage", "Items"}, rows, []columnAlignment{alignLeft, alignRight})
			})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				e.cfg.HTTP.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				e.cfg.HTTP.Port = c.Int("port")
			}
			if err := e.cfg.Validate(); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			srv := web.NewServer(e.store, e.cfg, e.assist, e.logger)
			if err := web.Run(srv, e.logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}
