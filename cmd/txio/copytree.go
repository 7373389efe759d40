package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/spf13/cobra"

	"github.com/gobeaver/txio"
)

var (
	treeConcurrent bool
	treeJobs       int
	treeInclude    []string
	treeExclude    []string
	treeMaxDepth   int
)

func init() {
	cmd := newCopyTreeCmd()
	cmd.Flags().BoolVarP(&treeConcurrent, "concurrent", "c", false, "Copy the entries of each level in parallel")
	cmd.Flags().IntVarP(&treeJobs, "jobs", "j", 0, "Parallel copies per level with --concurrent (0 is unbounded)")
	cmd.Flags().StringSliceVar(&treeInclude, "include", nil, "Only copy files matching these glob patterns")
	cmd.Flags().StringSliceVar(&treeExclude, "exclude", nil, "Skip files matching these glob patterns")
	cmd.Flags().IntVar(&treeMaxDepth, "max-depth", 0, "Only descend this many levels (0 is unlimited)")
	rootCmd.AddCommand(cmd)
}

func newCopyTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copytree <src> <dst>",
		Short: "Copy a directory tree",
		Long: `The copytree command recreates a directory tree under a new root. If
any file fails to copy, every directory and file created so far is removed.

Example:
  txio copytree assets build/assets
  txio copytree data backup --concurrent --jobs 8
  txio copytree src out --include '*.json' --exclude 'tmp/**' --max-depth 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopyTree(cmd, args)
		},
	}
	return cmd
}

func runCopyTree(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	selector, err := buildSelector()
	if err != nil {
		return err
	}

	x, err := newIO()
	if err != nil {
		return err
	}
	defer x.Logger().Sync() //nolint:errcheck

	opts := copyOptions(cmd)
	if selector != nil {
		opts = append(opts, txio.WithSelector(selector))
	}
	if cmd.Flags().Changed("jobs") {
		opts = append(opts, txio.WithConcurrency(treeJobs))
	}

	s := &summary{Command: "copytree", Source: src, Target: dst}
	err = runTransaction(x, s, func() error {
		copyFn := x.Directory.Copy
		if treeConcurrent {
			copyFn = x.Directory.CopyConcurrent
		}
		if err := copyFn(cmd.Context(), src, dst, opts...); err != nil {
			return err
		}
		files, err := countFiles(dst)
		s.Files = files
		return err
	})
	if err != nil {
		return err
	}
	return report(s)
}

func buildSelector() (txio.FileSelector, error) {
	var parts []txio.FileSelector

	if len(treeInclude) > 0 {
		var includes []txio.FileSelector
		for _, pattern := range treeInclude {
			sel, err := txio.CompileGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid --include pattern %q: %w", pattern, err)
			}
			includes = append(includes, sel)
		}
		parts = append(parts, txio.Or(includes...))
	}
	for _, pattern := range treeExclude {
		sel, err := txio.CompileGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid --exclude pattern %q: %w", pattern, err)
		}
		parts = append(parts, txio.Not(sel))
	}
	if treeMaxDepth < 0 {
		return nil, fmt.Errorf("--max-depth must not be negative")
	}
	if treeMaxDepth > 0 {
		parts = append(parts, txio.Depth(treeMaxDepth))
	}

	if len(parts) == 0 {
		return nil, nil
	}
	return txio.And(parts...), nil
}

// countFiles counts the regular files below root.
func countFiles(root string) (int, error) {
	var n atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n.Add(1)
		}
		return nil
	})
	return int(n.Load()), err
}
