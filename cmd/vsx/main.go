// cmd/vsx/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"vsx/internal/commit"
	"vsx/internal/errors"
	"vsx/internal/logging"
	"vsx/internal/repo"
	"vsx/internal/watch"
	"vsx/shared/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	repoDir  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "vsx",
		Short: "vsx is a local version control system",
		Long: `vsx keeps content-addressed snapshots of a working directory, with
named branches, a staging area and three-way merges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.repoDir, "repo", "C", "", "Run as if started in this directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the repository config")

	var initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.path(".")
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if dir, err = opts.path(args[0]); err != nil {
					return err
				}
			}

			repoOpts, err := opts.repoOptions()
			if err != nil {
				return err
			}
			r, err := repo.Init(dir, repoOpts...)
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty vsx repository in", r.Root)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Long:  `Stages each path as an add, modify or delete depending on the working file and the current branch.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			for _, arg := range args {
				p, err := opts.path(arg)
				if err != nil {
					return err
				}
				change, err := r.Add(p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", operationLabel(change.Operation), change.Path)
			}
			return nil
		},
	}

	var rmCmd = &cobra.Command{
		Use:   "rm <paths...>",
		Short: "Stage tracked files for deletion and remove them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			for _, arg := range args {
				p, err := opts.path(arg)
				if err != nil {
					return err
				}
				change, err := r.Stage(p, commit.OpDelete)
				if err != nil {
					return err
				}
				if err := r.Workspace().Remove(change.Path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", operationLabel(change.Operation), change.Path)
			}
			return nil
		},
	}

	var resetCmd = &cobra.Command{
		Use:   "reset <paths...>",
		Short: "Remove paths from the staging area",
		Long:  `Drops the staged change for each path. The working files are left alone.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			for _, arg := range args {
				p, err := opts.path(arg)
				if err != nil {
					return err
				}
				removed, err := r.Unstage(p)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not staged\n", arg)
				}
			}
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Record the staged changes on the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			c, err := r.Commit(message)
			if err != nil {
				return err
			}
			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, utils.ShortHash(c.ID), c.Message)
			fmt.Fprintf(cmd.OutOrStdout(), " %d file(s) changed\n", len(c.Files))
			return nil
		},
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the history of the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			var commits []*commit.Commit
			if all {
				commits = r.Log()
			} else if commits, err = r.History(""); err != nil {
				return err
			}

			printLog(cmd.OutOrStdout(), commits)
			return nil
		},
	}
	logCmd.Flags().Bool("all", false, "Show every commit in the repository, newest first")

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			st, err := r.Status()
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch [name]",
		Short: "List branches or create one",
		Long:  `Without a name, lists branches and marks the current one. With a name, creates a branch forked from --from (default: the current branch), or deletes it with --delete.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			del, _ := cmd.Flags().GetBool("delete")
			if del && len(args) == 0 {
				return errors.ValidationError("branch --delete requires a name", nil)
			}

			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			if del {
				if err := r.DeleteBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted branch %s\n", args[0])
				return nil
			}

			if len(args) == 1 {
				b, err := r.CreateBranch(args[0], from)
				if err != nil {
					return err
				}
				fork := "no commits"
				if b.BaseCommit != "" {
					fork = utils.ShortHash(b.BaseCommit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created branch %s from %s (%s)\n", b.Name, b.ParentBranch, fork)
				return nil
			}

			names, err := r.Branches()
			if err != nil {
				return err
			}
			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			green := color.New(color.FgGreen).SprintFunc()
			for _, name := range names {
				if name == current {
					fmt.Fprintf(cmd.OutOrStdout(), "* %s\n", green(name))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
			}
			return nil
		},
	}
	branchCmd.Flags().String("from", "", "Branch to fork from")
	branchCmd.Flags().BoolP("delete", "d", false, "Delete the named branch")

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <name>",
		Short: "Switch branches and restore the working tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Checkout(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to branch '%s'\n", args[0])
			return nil
		},
	}

	var diffCmd = &cobra.Command{
		Use:   "diff <branch1> <branch2>",
		Short: "Compare the trees of two branches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, _ := cmd.Flags().GetBool("patch")
			contextLines, _ := cmd.Flags().GetInt("context")

			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			report, err := r.Diff(args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Empty() {
				fmt.Fprintln(out, "No differences")
				return nil
			}

			red := color.New(color.FgRed).SprintFunc()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()

			if len(report.OnlyIn1) > 0 {
				fmt.Fprintf(out, "Only in %s:\n", report.Branch1)
				for _, p := range report.OnlyIn1 {
					fmt.Fprintf(out, "\t%s %s\n", red("-"), p)
				}
			}
			if len(report.OnlyIn2) > 0 {
				fmt.Fprintf(out, "Only in %s:\n", report.Branch2)
				for _, p := range report.OnlyIn2 {
					fmt.Fprintf(out, "\t%s %s\n", green("+"), p)
				}
			}
			if len(report.Modified) > 0 {
				fmt.Fprintln(out, "Modified:")
				for _, m := range report.Modified {
					fmt.Fprintf(out, "\t%s %s (%s -> %s)\n", yellow("M"), m.Path,
						utils.ShortHash(m.Hash1), utils.ShortHash(m.Hash2))
				}
			}

			if !patch {
				return nil
			}
			for _, m := range report.Modified {
				result, err := r.Patch(m, contextLines)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n--- %s/%s\n+++ %s/%s\n", report.Branch1, m.Path, report.Branch2, m.Path)
				printColoredDiff(out, result.Format())
			}
			return nil
		},
	}
	diffCmd.Flags().Bool("patch", false, "Show line diffs of modified files")
	diffCmd.Flags().Int("context", 3, "Lines of context around each change")

	var mergeCmd = &cobra.Command{
		Use:   "merge <source> [target]",
		Short: "Merge a branch into the current or named branch",
		Long:  `Merges source into target. On conflicts no commit is made and each conflicting file is written with both versions between markers.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 2 {
				target = args[1]
			}

			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.Merge(args[0], target)
			if result != nil && len(result.Conflicts) > 0 {
				printConflicts(cmd.OutOrStdout(), result.Conflicts)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s [%s]\n",
				result.Source, result.Target, utils.ShortHash(result.Commit.ID))
			for _, f := range result.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "\t%s %s\n", operationLabel(f.Operation), f.Path)
			}
			return nil
		},
	}

	var cloneCmd = &cobra.Command{
		Use:   "clone <src> <dst>",
		Short: "Copy a repository to a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := opts.path(args[0])
			if err != nil {
				return err
			}
			dst, err := opts.path(args[1])
			if err != nil {
				return err
			}
			if err := repo.Clone(src, dst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloned %s into %s\n", src, dst)
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Stage working tree changes as they happen",
		Long:  `Watches the working directory and stages every created, written or removed file until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := watch.New(r.Root, r, r.Ignored, r.Logger.Operation("watch"))
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", r.Root)
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	var fsckCmd = &cobra.Command{
		Use:   "fsck",
		Short: "Verify stored objects and references",
		Long:  `Re-hashes every stored blob and checks that every blob and commit referenced by commits, the stage and branches exists.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.open()
			if err != nil {
				return err
			}
			defer r.Close()

			report, err := r.Fsck()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			red := color.New(color.FgRed).SprintFunc()
			for _, h := range report.Corrupt {
				fmt.Fprintf(out, "%s object %s\n", red("corrupt"), h)
			}
			for _, h := range report.Missing {
				fmt.Fprintf(out, "%s object %s\n", red("missing"), h)
			}
			for _, ref := range report.Dangling {
				fmt.Fprintf(out, "%s commit %s\n", red("dangling"), ref)
			}
			if !report.OK() {
				return errors.ValidationError(fmt.Sprintf("repository check found %d problem(s)",
					len(report.Corrupt)+len(report.Missing)+len(report.Dangling)), report)
			}
			fmt.Fprintf(out, "%d object(s) verified, no problems found\n", report.Objects)
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, addCmd, rmCmd, resetCmd, commitCmd, logCmd, statusCmd,
		branchCmd, checkoutCmd, diffCmd, mergeCmd, cloneCmd, watchCmd, fsckCmd)
	return rootCmd
}

// path resolves a user supplied path against -C, or the process working
// directory when -C is unset.
func (o *globalOptions) path(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	base := o.repoDir
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		base = cwd
	}
	return filepath.Abs(filepath.Join(base, p))
}

func (o *globalOptions) repoOptions() ([]repo.Option, error) {
	if o.logLevel == "" {
		return nil, nil
	}
	logger, err := logging.NewLogger(o.logLevel, "console")
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid log level %q", o.logLevel), o.logLevel)
	}
	return []repo.Option{repo.WithLogger(logger)}, nil
}

func (o *globalOptions) open() (*repo.Repository, error) {
	start, err := o.path(".")
	if err != nil {
		return nil, err
	}
	repoOpts, err := o.repoOptions()
	if err != nil {
		return nil, err
	}
	return repo.Find(start, repoOpts...)
}

func operationLabel(op commit.Operation) string {
	switch op {
	case commit.OpAdd:
		return color.GreenString("add")
	case commit.OpModify:
		return color.YellowString("modify")
	case commit.OpDelete:
		return color.RedString("delete")
	}
	return string(op)
}

func printLog(out io.Writer, commits []*commit.Commit) {
	yellow := color.New(color.FgYellow).SprintFunc()

	for i, c := range commits {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s %s\n", yellow("commit"), yellow(utils.ShortHash(c.ID)))
		if c.IsMerge() {
			fmt.Fprintf(out, "Merge:  %s %s\n", utils.ShortHash(c.Parent[0]), utils.ShortHash(c.Parent[1]))
		}
		fmt.Fprintf(out, "Date:   %s\n\n", c.CreatedAt.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Fprintf(out, "    %s\n\n", c.Message)
		for _, f := range c.Files {
			fmt.Fprintf(out, "\t%s %s\n", operationLabel(f.Operation), f.Path)
		}
	}
}

func printStatus(out io.Writer, st *repo.Status) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	fmt.Fprintf(out, "On branch %s\n", st.Branch)
	if st.Head == "" {
		fmt.Fprintln(out, "No commits yet")
	}

	if st.Clean() {
		fmt.Fprintln(out, "Nothing to commit (working tree clean)")
		printIgnored(out, st.Ignored)
		return
	}
	fmt.Fprintln(out)

	if len(st.Staged) > 0 {
		fmt.Fprintln(out, "Changes to be committed:")
		fmt.Fprintln(out, "  (use \"vsx reset <file>...\" to unstage)")
		for _, c := range st.Staged {
			fmt.Fprintf(out, "\t%s %s\n", green(string(c.Operation)), c.Path)
		}
		fmt.Fprintln(out)
	}

	if len(st.Modified) > 0 {
		fmt.Fprintln(out, "Modified files:")
		fmt.Fprintln(out, "  (use \"vsx add <file>...\" to stage)")
		for _, p := range st.Modified {
			fmt.Fprintf(out, "\t%s %s\n", yellow("M"), p)
		}
		fmt.Fprintln(out)
	}

	if len(st.Deleted) > 0 {
		fmt.Fprintln(out, "Deleted files:")
		fmt.Fprintln(out, "  (use \"vsx rm <file>...\" to stage the deletion)")
		for _, p := range st.Deleted {
			fmt.Fprintf(out, "\t%s %s\n", red("D"), p)
		}
		fmt.Fprintln(out)
	}

	if len(st.Untracked) > 0 {
		fmt.Fprintln(out, "Untracked files:")
		fmt.Fprintln(out, "  (use \"vsx add <file>...\" to track)")
		for _, p := range st.Untracked {
			fmt.Fprintf(out, "\t%s %s\n", blue("?"), p)
		}
		fmt.Fprintln(out)
	}

	printIgnored(out, st.Ignored)
}

func printIgnored(out io.Writer, ignored []string) {
	if len(ignored) == 0 {
		return
	}
	faint := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(out, "Ignored files:")
	for _, p := range ignored {
		fmt.Fprintf(out, "\t%s %s\n", faint("!"), p)
	}
}

func printConflicts(out io.Writer, conflicts map[string]string) {
	red := color.New(color.FgRed).SprintFunc()

	paths := make([]string, 0, len(conflicts))
	for p := range conflicts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Fprintln(out, "Merge stopped on conflicts; no commit was made:")
	for _, p := range paths {
		fmt.Fprintf(out, "\t%s %s: %s\n", red("C"), p, conflicts[p])
	}
}

func printColoredDiff(out io.Writer, diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			header.Fprintln(out, line)
		case strings.HasPrefix(line, "+"):
			added.Fprintln(out, line)
		case strings.HasPrefix(line, "-"):
			removed.Fprintln(out, line)
		default:
			fmt.Fprintln(out, line)
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(errors.ExitCode(err))
	}
}
