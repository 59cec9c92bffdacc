package main

import (
	"fmt"
	"strings"
	"time"

	"book-catalogue/internal/adapter"
	"book-catalogue/internal/core"
	"book-catalogue/internal/core/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var listFlags struct {
	q          string
	status     string
	genre      string
	addedSince string
	sort       string
	desc       bool
	page       int
	pageSize   int
	verbose    bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Load the catalogue once and print matching books",
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&listFlags.q, "search", "q", "", "search title, author, genre and location")
	f.StringVar(&listFlags.status, "status", "all", "status filter (all, Available, Unavailable)")
	f.StringVar(&listFlags.genre, "genre", "all", "genre filter")
	f.StringVar(&listFlags.addedSince, "added-since", "", "only books added on or after this date (YYYY-MM-DD)")
	f.StringVar(&listFlags.sort, "sort", "", "sort column")
	f.BoolVar(&listFlags.desc, "desc", false, "sort descending")
	f.IntVar(&listFlags.page, "page", 1, "page number")
	f.IntVar(&listFlags.pageSize, "page-size", core.DefaultPageSize, "books per page")
	f.BoolVarP(&listFlags.verbose, "verbose", "v", false, "print loading messages")
	rootCmd.AddCommand(listCmd)
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func runList(cmd *cobra.Command, _ []string) error {
	q := model.ListQuery{
		Q:        listFlags.q,
		Status:   listFlags.status,
		Genre:    listFlags.genre,
		Page:     listFlags.page,
		PageSize: listFlags.pageSize,
	}
	if listFlags.addedSince != "" {
		t, err := time.Parse(time.DateOnly, listFlags.addedSince)
		if err != nil {
			return fmt.Errorf("--added-since: %w", err)
		}
		q.AddedSince = &t
	}
	if listFlags.sort != "" {
		if !core.IsSortable(listFlags.sort) {
			return fmt.Errorf("--sort must be one of: %s", strings.Join(core.SortableFields, ", "))
		}
		q.Sort = &model.SortKey{Field: listFlags.sort, Desc: listFlags.desc}
	}

	a, err := newApp(cmd.Context(), cfg, adapter.NewWriterSink(cmd.ErrOrStderr(), listFlags.verbose))
	if err != nil {
		return err
	}
	defer a.Close()

	if state := a.loader.Load(cmd.Context()); state == model.StateFailed {
		return fmt.Errorf("catalogue unavailable")
	}

	snap := a.loader.State().Snapshot()
	page := core.Query(snap.Records, q)
	sum := core.Summarize(snap.Records)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Title", "Author", "Genre", "Location", "Status").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	for _, rec := range page.Data {
		v := adapter.NewBookView(rec)
		t.Row(v.Title, v.Author, v.Genre, v.Location, v.StatusLabel)
	}

	out := cmd.OutOrStdout()
	if page.Total == 0 {
		fmt.Fprintln(out, "No books found")
	} else {
		fmt.Fprintln(out, t.Render())
	}
	fmt.Fprintf(out, "page %d, %d of %d matching; %d books, %d available\n",
		page.Page, len(page.Data), page.Total, sum.Total, sum.Available)
	return nil
}
