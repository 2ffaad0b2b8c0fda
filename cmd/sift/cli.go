package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/ops"
	"github.com/hpungsan/sift/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, router *ops.Router) *cli.App {
	app := &cli.App{
		Name:    "sift",
		Usage:   "Adaptive item router and clarification queue",
		Version: Version,
		Commands: []*cli.Command{
			routeCmd(router),
			ingestCmd(router),
			dedupeCmd(router),
			askCmd(db),
			answerCmd(db),
			questionsCmd(db),
			adjustCmd(db),
			thresholdsCmd(db),
			feedbackCmd(db),
			consolidateCmd(db),
			domainsCmd(db),
			createDomainCmd(db),
			projectsCmd(db),
			createProjectCmd(db),
			learnCmd(db),
			itemsCmd(db),
			itemStatusCmd(db),
			webCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// routeCmd creates the route command.
func routeCmd(router *ops.Router) *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "Classify text into a domain and project without storing it",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Domain hint (skips domain classification)"},
			&cli.BoolFlag{Name: "no-clarify", Usage: "Suppress clarification questions on low confidence"},
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			decision, err := router.Route(c.Context, ops.RouteInput{
				Text:       text,
				DomainHint: c.String("domain"),
				NoClarify:  c.Bool("no-clarify"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(decision)
		},
	}
}

// ingestCmd creates the ingest command.
func ingestCmd(router *ops.Router) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Dedupe, classify and store an item (text as argument or piped via stdin)",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Item source (e.g., email, note)"},
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Domain hint"},
			&cli.BoolFlag{Name: "skip-dedupe", Usage: "Skip the duplicate check"},
			&cli.BoolFlag{Name: "no-clarify", Usage: "Suppress clarification questions on low confidence"},
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			input := ops.IngestInput{
				Text:       text,
				Source:     c.String("source"),
				DomainHint: c.String("domain"),
				SkipDedupe: c.Bool("skip-dedupe"),
				NoClarify:  c.Bool("no-clarify"),
			}

			output, err := router.Ingest(c.Context, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// dedupeCmd creates the dedupe command.
func dedupeCmd(router *ops.Router) *cli.Command {
	return &cli.Command{
		Name:      "dedupe",
		Usage:     "Check text against recent open items for duplicates",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := router.CheckDuplicate(c.Context, ops.DedupeInput{Text: text})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// askCmd creates the ask command.
func askCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Queue a question for later clarification",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "task_clarification", Usage: "Question type: domain_routing|task_clarification|entity|priority"},
			&cli.StringFlag{Name: "context", Usage: "Context carried with the question"},
			&cli.StringFlag{Name: "options", Usage: "Comma-separated candidate answers"},
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			input := ops.AskInput{
				Type:    c.String("type"),
				Text:    text,
				Context: c.String("context"),
			}
			if options := c.String("options"); options != "" {
				input.Options = splitList(options)
			}

			output, err := ops.Ask(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// answerCmd creates the answer command.
func answerCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "answer",
		Usage:     "Answer a pending question",
		ArgsUsage: "<question-id> <answer>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: sift answer <question-id> <answer>"))
			}

			output, err := ops.Answer(c.Context, db, ops.AnswerInput{
				QuestionID: c.Args().Get(0),
				Answer:     strings.Join(c.Args().Slice()[1:], " "),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// questionsCmd creates the questions command.
func questionsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "questions",
		Usage: "List queued questions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: "pending", Usage: "Filter: pending|answered"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListQuestions(db, ops.ListQuestionsInput{
				Status: c.String("status"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// adjustCmd creates the adjust command.
func adjustCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "adjust",
		Usage:     "Nudge an adaptive threshold with feedback",
		ArgsUsage: "<name> <too_sensitive|not_sensitive>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: sift adjust <name> <feedback>"))
			}

			output, err := ops.AdjustThreshold(db, ops.AdjustInput{
				Name:     c.Args().Get(0),
				Feedback: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// thresholdsCmd creates the thresholds command.
func thresholdsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "thresholds",
		Usage:     "Show adaptive thresholds (all, or one by name)",
		ArgsUsage: "[name]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				output, err := ops.GetThresholdValue(db, c.Args().First())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.ListThresholds(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// feedbackCmd creates the feedback command.
func feedbackCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Correct or confirm an item's routing",
		ArgsUsage: "<item-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Required: true, Usage: "The correct domain"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "The correct project ID"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("usage: sift feedback <item-id> --domain <domain>"))
			}

			output, err := ops.RecordFeedback(c.Context, db, ops.FeedbackInput{
				ItemID:    c.Args().First(),
				Domain:    c.String("domain"),
				ProjectID: c.String("project"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// consolidateCmd creates the consolidate command.
func consolidateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "consolidate",
		Usage:     "Merge duplicate project names into one canonical project",
		ArgsUsage: "<variant> [variant...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Required: true, Usage: "Domain the projects belong to"},
			&cli.StringFlag{Name: "into", Required: true, Usage: "The surviving canonical name"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "Consolidation mode: merge|rename"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("at least one variant name is required"))
			}

			output, err := ops.Consolidate(c.Context, db, ops.ConsolidateInput{
				Domain:        c.String("domain"),
				Variants:      c.Args().Slice(),
				CanonicalName: c.String("into"),
				Mode:          c.String("mode"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// domainsCmd creates the domains command.
func domainsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "domains",
		Usage: "List active routing domains",
		Action: func(c *cli.Context) error {
			output, err := ops.ListDomains(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// createDomainCmd creates the create-domain command.
func createDomainCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "create-domain",
		Usage:     "Register a new routing domain",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name (default: derived from path)"},
			&cli.Float64Flag{Name: "target", Aliases: []string{"t"}, Usage: "Target allocation percent"},
			&cli.StringFlag{Name: "keywords", Usage: "Comma-separated seed keywords"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("usage: sift create-domain <path>"))
			}

			output, err := ops.CreateDomain(db, ops.CreateDomainInput{
				Path:          c.Args().First(),
				DisplayName:   c.String("name"),
				TargetPercent: c.Float64("target"),
				Keywords:      splitList(c.String("keywords")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List active projects",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Filter by domain"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListProjects(db, ops.ListProjectsInput{
				Domain: c.String("domain"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// createProjectCmd creates the create-project command.
func createProjectCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "create-project",
		Usage:     "Create a project within a domain",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Required: true, Usage: "Parent domain"},
			&cli.StringFlag{Name: "description", Usage: "Free-text description"},
			&cli.StringFlag{Name: "keywords", Usage: "Comma-separated seed keywords"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("usage: sift create-project <name> --domain <domain>"))
			}

			input := ops.CreateProjectInput{
				Name:     c.Args().First(),
				Domain:   c.String("domain"),
				Keywords: splitList(c.String("keywords")),
			}
			if desc := c.String("description"); desc != "" {
				input.Description = &desc
			}

			output, err := ops.CreateProject(db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// learnCmd creates the learn command.
func learnCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "learn",
		Usage:     "Extract keywords from text into a domain or project profile",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Target domain"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Target project ID"},
		},
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.LearnKeywords(db, ops.LearnKeywordsInput{
				Domain:    c.String("domain"),
				ProjectID: c.String("project"),
				Text:      text,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// itemsCmd creates the items command.
func itemsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "List stored items",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter: open|completed|ignored"},
			&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Filter by domain"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListItems(db, ops.ListItemsInput{
				Status:    c.String("status"),
				Domain:    c.String("domain"),
				ProjectID: c.String("project"),
				Limit:     c.Int("limit"),
				Offset:    c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// itemStatusCmd creates the item-status command.
func itemStatusCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "item-status",
		Usage:     "Set an item's status",
		ArgsUsage: "<item-id> <open|completed|ignored>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: sift item-status <item-id> <status>"))
			}

			output, err := ops.SetItemStatus(db, ops.SetItemStatusInput{
				ItemID: c.Args().Get(0),
				Status: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8713, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// textArg returns the item text from positional args or piped stdin.
func textArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if stdinHasData() {
		text, err := readStdin()
		if err != nil {
			return "", errors.NewInternal(err)
		}
		if text != "" {
			return text, nil
		}
	}
	return "", errors.NewInvalidRequest("text is required (argument or stdin)")
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if siftErr, ok := err.(*errors.SiftError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", siftErr.Code, siftErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// splitList splits a comma-separated string into trimmed entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
