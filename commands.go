package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"vfsnav/internal/constants"
	"vfsnav/internal/favorites"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/jobs"
	"vfsnav/internal/listing"
	"vfsnav/internal/navigator"
	"vfsnav/internal/ui"
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var (
		filter     string
		showHidden bool
		sortBy     string
		desc       bool
		skipLinks  bool
		long       bool
	)

	cmd := &cobra.Command{
		Use:   "ls [url]",
		Short: "List a folder",
		Long: `List the folder at url (default: the configured start location, or home).

The filter is a glob (*.log, data-??.csv) or, with a leading slash, a
regular expression (/\.log$). Symbolic links on SFTP servers are resolved
unless --skip-link-check is given.

Example:
  vfsnav ls sftp://deploy@build01/var/log --filter '*.log' --sort modified --desc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := cfg.Browser.StartURL
			if len(args) == 1 {
				target = args[0]
			}
			if !cmd.Flags().Changed("sort") {
				sortBy = cfg.Browser.Sort.SortBy
			}
			if !cmd.Flags().Changed("desc") {
				desc = cfg.Browser.Sort.SortOrder == "desc"
			}
			key, err := listing.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			settings := navigator.StaticSettings{
				Mode:      listing.DirsAndFiles,
				Hidden:    showHidden || cfg.Browser.ShowHiddenFiles,
				Filter:    filter,
				SkipLinks: skipLinks || cfg.Browser.SkipLinkCheck,
			}
			c, err := listFolder(cmd.Context(), target, settings, listing.Order{Key: key, Desc: desc})
			if err != nil {
				return err
			}
			printRows(cmd.OutOrStdout(), c.rows, long)
			printErr("%s", c.status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Glob, or /regex, matched against names")
	cmd.Flags().BoolVarP(&showHidden, "show-hidden", "a", false, "Show hidden files")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", constants.DefaultSortBy, "Sort by name, size, modified or type")
	cmd.Flags().BoolVarP(&desc, "desc", "r", false, "Reverse the sort order")
	cmd.Flags().BoolVar(&skipLinks, "skip-link-check", false, "Do not resolve SFTP symbolic links")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show type, size and modification time")
	return cmd
}

// listFolder runs one navigation through the engine and waits until the
// listing is published and its link probe has finished.
func listFolder(ctx context.Context, target string, settings navigator.StaticSettings, order listing.Order) (*console, error) {
	c := newConsole(settings, logger.Component("console").DebugFunc())
	s, err := openSession(navigator.Prompter(c))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	engine := navigator.New(navigator.Options{
		VFS:          s.fs,
		Presentation: c,
		Settings:     c,
		Executor:     s.jobs,
		DebugPrint:   logger.Component("navigator").DebugFunc(),
	})
	defer engine.Close()
	engine.Model().SetOrder(order)

	c.Post(func() { engine.Start(target) })
	if err := c.run(ctx, c.settled); err != nil {
		return nil, err
	}
	if err := c.failure(); err != nil {
		return nil, err
	}
	if engine.Model().Filter().Invalid() {
		return nil, fmt.Errorf("invalid filter %q", settings.Filter)
	}

	cfg.AddToNavigationHistory(c.location)
	saveConfig()
	return c, nil
}

func printRows(w io.Writer, rows []fileinfo.FileRef, long bool) {
	if !long {
		for _, r := range rows {
			fmt.Fprintln(w, displayName(r))
		}
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		size, modified := "", ""
		if r.Type.HasContent() {
			size = fileinfo.FormatFileSize(r.Size)
		}
		if !r.Modified.IsZero() {
			modified = r.Modified.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", typeLetter(r), size, modified, displayName(r))
	}
	_ = tw.Flush()
}

func displayName(r fileinfo.FileRef) string {
	name := r.BaseName
	if r.Type == fileinfo.TypeFolder && !r.IsParent() {
		name += "/"
	}
	if r.Symlink && r.LinkTarget != "" {
		name += " -> " + r.LinkTarget
	}
	return name
}

func typeLetter(r fileinfo.FileRef) string {
	switch r.Type {
	case fileinfo.TypeFolder:
		return "d"
	case fileinfo.TypeFileOrFolder:
		return "a"
	case fileinfo.TypeFile:
		if r.Symlink {
			return "l"
		}
		return "-"
	default:
		return "?"
	}
}

// newCatCmd creates the 'cat' command.
func newCatCmd() *cobra.Command {
	var maxBytes int64

	cmd := &cobra.Command{
		Use:   "cat <url>",
		Short: "Print the beginning of a file",
		Long: `Print up to --max-bytes of the file at url. Archive members are
addressed as zip:file:///data/logs.zip!/2024/app.log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return catFile(cmd.Context(), cmd.OutOrStdout(), args[0], maxBytes)
		},
	}
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", constants.PreviewMaxBytes, "Stop after this many bytes (0 = whole file)")
	return cmd
}

// catFile streams the file as a read job. The console loop stays on this
// goroutine so a login prompt can be answered while the job waits.
func catFile(ctx context.Context, out io.Writer, target string, maxBytes int64) error {
	c := newConsole(navigator.StaticSettings{}, logger.Component("console").DebugFunc())
	s, err := openSession(navigator.Prompter(c))
	if err != nil {
		return err
	}
	defer s.Close()
	s.jobs.Subscribe(func() { c.Post(func() {}) })

	job := s.jobs.Submit(jobs.TypeRead, "cat", target, func(ctx context.Context, j *jobs.Job) error {
		ref, err := s.fs.Resolve(ctx, target)
		if err != nil {
			return err
		}
		if !ref.Type.HasContent() {
			return fmt.Errorf("%s is not a file", ref.FriendlyURL)
		}
		rc, err := s.fs.OpenRead(ctx, ref)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = jobs.Copy(ctx, j, out, rc, maxBytes)
		return err
	})
	if err := c.run(ctx, func() bool { return job.Snapshot().Finished() }); err != nil {
		job.Cancel()
		return err
	}
	return job.Wait(ctx)
}

// newFavoritesCmd creates the 'favorites' command group.
func newFavoritesCmd() *cobra.Command {
	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "List and edit favorite locations (list, add, remove, move)",
	}

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List system locations, user favorites and imported bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printFavorites(cmd.OutOrStdout(), loadFavorites(cmd.Context()))
			return nil
		},
	})

	var group string
	addCmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a user favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fileinfo.ParseURL(args[1]); err != nil {
				return err
			}
			model := loadFavorites(cmd.Context())
			return model.Add(favorites.Favorite{Name: args[0], URL: args[1], Group: group})
		},
	}
	addCmd.Flags().StringVar(&group, "group", "", "Group the favorite belongs to")
	favoritesCmd.AddCommand(addCmd)

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the user favorite at index (see 'favorites list')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return loadFavorites(cmd.Context()).Remove(i)
		},
	})

	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "move <from> <to>",
		Short: "Reorder user favorites",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, errFrom := strconv.Atoi(args[0])
			to, errTo := strconv.Atoi(args[1])
			if err := errors.Join(errFrom, errTo); err != nil {
				return fmt.Errorf("invalid index: %w", err)
			}
			return loadFavorites(cmd.Context()).Move(from, to)
		},
	})

	return favoritesCmd
}

func printFavorites(w io.Writer, model *favorites.Model) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "System")
	for _, f := range model.System() {
		fmt.Fprintf(tw, "  \t%s\t%s\n", f.Name, f.URL)
	}
	fmt.Fprintln(tw, "Favorites")
	for i, f := range model.User() {
		name := f.Name
		if f.Group != "" {
			name += " [" + f.Group + "]"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", i, name, f.URL)
	}
	if imported := model.Imported(); len(imported) > 0 {
		fmt.Fprintln(tw, "Imported")
		for _, f := range imported {
			fmt.Fprintf(tw, "  \t%s\t%s\n", f.Name, f.URL)
		}
	}
	_ = tw.Flush()
}

// newHistoryCmd creates the 'history' command.
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [query]",
		Short: "Show recently visited locations, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := cfg.Browser.NavigationHistory.Entries
			if len(args) == 1 {
				entries = cfg.FilterNavigationHistory(args[0])
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
}

// newBrowseCmd creates the 'browse' command.
func newBrowseCmd() *cobra.Command {
	var (
		choose bool
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "browse [url]",
		Short: "Open the browser window",
		Long: `Open a browser window at url. With --choose the window acts as a
chooser: the approved rows are printed and the window closes.

Keys: Enter open, Ctrl+Enter approve, Backspace up, F5 refresh,
F6 location bar, F7 favorites and history, Esc cancel; typing jumps to
the first matching name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := cfg.Browser.StartURL
			if len(args) == 1 {
				target = args[0]
			}
			if !cmd.Flags().Changed("mode") {
				mode = cfg.Browser.SelectionMode
			}
			selection, err := listing.ParseSelectionMode(mode)
			if err != nil {
				return err
			}
			key, err := listing.ParseSortKey(cfg.Browser.Sort.SortBy)
			if err != nil {
				return err
			}
			return browse(cmd, target, ui.Options{
				Title:         constants.ApplicationTitle,
				Width:         float32(cfg.Window.Width),
				Height:        float32(cfg.Window.Height),
				Mode:          selection,
				ShowHidden:    cfg.Browser.ShowHiddenFiles,
				SkipLinkCheck: cfg.Browser.SkipLinkCheck,
				Order:         listing.Order{Key: key, Desc: cfg.Browser.Sort.SortOrder == "desc"},
				Chooser:       choose,
			})
		},
	}
	cmd.Flags().BoolVar(&choose, "choose", false, "Act as a chooser and print the approved rows")
	cmd.Flags().StringVar(&mode, "mode", constants.DefaultSelectionMode, "What can be approved: files_only, dirs_only or dirs_and_files")
	return cmd
}

func browse(cmd *cobra.Command, target string, opts ui.Options) error {
	out := cmd.OutOrStdout()
	opts.DebugPrint = logger.Component("ui").DebugFunc()
	opts.Favorites = loadFavorites(cmd.Context())
	opts.History = func() []string { return cfg.Browser.NavigationHistory.Entries }
	opts.OnVisit = func(url string) {
		cfg.AddToNavigationHistory(url)
		saveConfig()
	}
	opts.OnApprove = func(rows []fileinfo.FileRef) {
		for _, r := range rows {
			if opts.Chooser {
				fmt.Fprintln(out, r.FriendlyURL)
				continue
			}
			if err := fileinfo.OpenWithDefaultApp(r); err != nil {
				logger.Warnf("open %s: %v", r.FriendlyURL, err)
			}
		}
	}

	browser := ui.NewBrowser(app.NewWithID(constants.ApplicationID), opts)
	s, err := openSession(browser.PromptResolver())
	if err != nil {
		return err
	}
	defer s.Close()

	engine := navigator.New(navigator.Options{
		VFS:          s.fs,
		Presentation: browser,
		Settings:     browser,
		Executor:     s.jobs,
		DebugPrint:   logger.Component("navigator").DebugFunc(),
	})
	browser.Attach(engine)
	browser.Run(target)
	return nil
}
