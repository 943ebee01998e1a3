package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rpggio/workefforts/internal/counter"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/spf13/cobra"
)

func (c *cli) createCmd() *cobra.Command {
	var (
		priority string
		assignee string
		due      string
		tags     []string
		related  []string
		bodyFile string
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new active work effort",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := record.ParsePriority(priority)
			if err != nil {
				return fmt.Errorf("--priority %q: %w", priority, err)
			}
			req := record.CreateRequest{
				Title:      strings.Join(args, " "),
				Priority:   p,
				Assignee:   assignee,
				Tags:       tags,
				RelatedIDs: related,
			}
			if due != "" {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("--due must be YYYY-MM-DD: %w", err)
				}
				req.DueDate = &d
			}
			if bodyFile != "" {
				body, err := readBody(cmd, bodyFile)
				if err != nil {
					return err
				}
				req.Body = body
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Records.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			path := filestore.FolderPath(a.Config.Root, rec.Status, rec.ID, rec.Title)
			return c.emit(cmd, map[string]any{"record": rec, "path": path}, func(w io.Writer) {
				fmt.Fprintf(w, "Created %s %s\n%s\n", rec.ID, rec.Title, path)
			})
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium, high or critical")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "owner of the work effort")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable or comma separated)")
	cmd.Flags().StringSliceVarP(&related, "related", "r", nil, "related work effort id (repeatable)")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "read the body from a file, - for stdin")
	return cmd
}

func readBody(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a work effort's header and body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Records.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, rec, func(w io.Writer) {
				fmt.Fprintf(w, "%s  %s\n", rec.ID, headerStyle.Render(rec.Title))
				fmt.Fprintf(w, "status:   %s\n", styleStatus(rec.Status))
				fmt.Fprintf(w, "priority: %s\n", rec.Priority)
				fmt.Fprintf(w, "assignee: %s\n", rec.Assignee)
				fmt.Fprintf(w, "created:  %s\n", shortTime(rec.CreatedAt))
				fmt.Fprintf(w, "updated:  %s\n", shortTime(rec.LastUpdated))
				if rec.DueDate != nil {
					fmt.Fprintf(w, "due:      %s\n", rec.DueDate.Format("2006-01-02"))
				}
				if len(rec.Tags) > 0 {
					fmt.Fprintf(w, "tags:     %s\n", strings.Join(rec.Tags, ", "))
				}
				if len(rec.RelatedIDs) > 0 {
					fmt.Fprintf(w, "related:  %s\n", strings.Join(rec.RelatedIDs, ", "))
				}
				fmt.Fprintf(w, "\n%s", rec.Body)
			})
		},
	}
}

func (c *cli) transitionCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "transition [id] [status]",
		Short: "Move a work effort to active, paused, completed or archived",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := record.ParseStatus(args[1])
			if err != nil {
				return fmt.Errorf("status %q: %w", args[1], err)
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Records.Transition(cmd.Context(), record.TransitionRequest{ID: args[0], To: to, Strict: strict})
			if err != nil {
				return err
			}
			return c.emit(cmd, res, func(w io.Writer) {
				if !res.Changed {
					fmt.Fprintf(w, "%s already %s\n", args[0], styleStatus(res.To))
					return
				}
				fmt.Fprintf(w, "%s: %s -> %s\n%s\n", args[0], styleStatus(res.From), styleStatus(res.To), res.Path)
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the work effort already has the target status")
	return cmd
}

func (c *cli) discoverCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "discover [roots...]",
		Short: "List work efforts below the given roots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := record.ParseDiscoveryMode(mode)
			if err != nil {
				return fmt.Errorf("--mode %q: %w", mode, err)
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			descs, fileErrs, err := a.Records.Discover(cmd.Context(), record.DiscoverOptions{Roots: args, Mode: m})
			if err != nil {
				return err
			}
			for _, fe := range fileErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", fe.Error())
			}

			return c.emit(cmd, descs, func(w io.Writer) {
				if len(descs) == 0 {
					fmt.Fprintln(w, "No work efforts found.")
					return
				}
				rows := make([][]string, 0, len(descs))
				for _, d := range descs {
					id := d.ID
					if id == "" {
						id = "-"
					}
					rows = append(rows, []string{id, styleStatus(d.Status), d.Title, shortTime(d.ModTime), d.Path})
				}
				fmt.Fprint(w, renderTable([]string{"ID", "STATUS", "TITLE", "MODIFIED", "PATH"}, rows))
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(record.ModeStandard), "standard or thorough")
	return cmd
}

func (c *cli) relatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related [id]",
		Short: "List the work efforts a record references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			set, err := a.Records.Related(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, set, func(w io.Writer) {
				for _, id := range set.IDs {
					fmt.Fprintln(w, id)
				}
				for _, ref := range set.Dangling {
					fmt.Fprintln(w, styleMissing(ref))
				}
			})
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [id]",
		Short: "Show a work effort's status transitions, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.Records.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, events, func(w io.Writer) {
				if len(events) == 0 {
					fmt.Fprintln(w, "No transitions yet.")
					return
				}
				for _, ev := range events {
					fmt.Fprintf(w, "%s  %s -> %s\n", shortTime(ev.At), styleStatus(ev.From), styleStatus(ev.To))
				}
			})
		},
	}
}

func (c *cli) chainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain [id]",
		Short: "Follow references transitively from a work effort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			graph, err := a.Records.Chain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, graph, func(w io.Writer) {
				fmt.Fprintf(w, "nodes: %s\n", strings.Join(graph.Nodes, ", "))
				for _, e := range graph.Edges {
					fmt.Fprintf(w, "%s -> %s\n", e.From, e.To)
				}
				for _, e := range graph.Dangling {
					fmt.Fprintf(w, "%s -> %s\n", e.From, styleMissing(e.To))
				}
			})
		},
	}
}

func (c *cli) nextIDCmd() *cobra.Command {
	var peek, repair bool

	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Allocate the next id, or inspect and repair the counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if peek && repair {
				return fmt.Errorf("--peek and --repair are mutually exclusive")
			}

			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var id string
			switch {
			case peek:
				v, err := a.Counter.Peek(ctx)
				if err != nil {
					return err
				}
				id = counter.Format(v)
			case repair:
				v, err := a.Counter.Repair(ctx)
				if err != nil {
					return err
				}
				id = counter.Format(v)
			default:
				if id, err = a.Counter.Next(ctx); err != nil {
					return err
				}
			}
			return c.emit(cmd, map[string]string{"id": id}, func(w io.Writer) {
				fmt.Fprintln(w, id)
			})
		},
	}

	cmd.Flags().BoolVar(&peek, "peek", false, "print the last allocated id without allocating")
	cmd.Flags().BoolVar(&repair, "repair", false, "re-derive the counter from the files on disk")
	return cmd
}

func (c *cli) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index from the files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			for _, fe := range stats.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", fe.Error())
			}
			return c.emit(cmd, stats, func(w io.Writer) {
				fmt.Fprintf(w, "Indexed %d work efforts (%d skipped)\n", stats.Indexed, len(stats.Skipped))
			})
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		limit   int
		reindex bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over titles and bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if reindex {
				if _, err := a.Reindex(ctx); err != nil {
					return err
				}
			}
			hits, err := a.Index.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return c.emit(cmd, hits, func(w io.Writer) {
				if len(hits) == 0 {
					fmt.Fprintln(w, "No matches. Run 'workefforts index' after editing files by hand.")
					return
				}
				rows := make([][]string, 0, len(hits))
				for _, h := range hits {
					rows = append(rows, []string{h.Record.ID, styleStatus(h.Record.Status), h.Record.Title, h.Snippet})
				}
				fmt.Fprint(w, renderTable([]string{"ID", "STATUS", "TITLE", "MATCH"}, rows))
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of hits")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the index before searching")
	return cmd
}

func (c *cli) activityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity [id]",
		Short: "Show recent transitions recorded in the activity log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := repository.ListActivityOptions{Limit: limit}
			if len(args) == 1 {
				opts.RecordID = args[0]
			}
			entries, err := a.Activity.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.emit(cmd, entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No activity recorded.")
					return
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{shortTime(e.At), e.RecordID, styleStatus(e.From), styleStatus(e.To)})
				}
				fmt.Fprint(w, renderTable([]string{"AT", "ID", "FROM", "TO"}, rows))
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}
