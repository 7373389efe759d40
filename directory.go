package txio

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Directory copies directory trees. Every directory it creates and every
// file it copies is registered for rollback individually.
type Directory struct {
	file *File
}

// NewDirectory creates a Directory that copies files through file.
func NewDirectory(file *File) *Directory {
	return &Directory{file: file}
}

// Copy recreates src under dst, one entry after another. dst and any
// missing parents are created.
func (d *Directory) Copy(ctx context.Context, src, dst string, opts ...Option) error {
	return d.copyTree(ctx, src, dst, opts, false)
}

// CopyConcurrent is Copy with every file and subdirectory of a level handled
// by its own goroutine. All siblings run to completion; the first failure is
// returned once they have. WithConcurrency bounds the goroutines per level.
func (d *Directory) CopyConcurrent(ctx context.Context, src, dst string, opts ...Option) error {
	return d.copyTree(ctx, src, dst, opts, true)
}

func (d *Directory) copyTree(ctx context.Context, src, dst string, opts []Option, concurrent bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, dst = filepath.Clean(src), filepath.Clean(dst)
	info, err := os.Stat(src)
	if err != nil {
		return &PathError{Op: "copytree", Path: src, Err: mapNotExist(err)}
	}
	if !info.IsDir() {
		return &PathError{Op: "copytree", Path: src, Err: ErrNotDir}
	}
	inside, err := within(src, dst)
	if err != nil {
		return &PathError{Op: "copytree", Path: dst, Err: err}
	}
	if inside {
		return &PathError{Op: "copytree", Path: dst, Err: ErrDestinationInSource}
	}

	o := buildOptions(d.file.defaults, opts)
	if o.BufferSet && o.BufferSize <= 0 {
		return &PathError{Op: "copytree", Path: src, Err: ErrInvalidBufferSize}
	}
	if o.Verify != "" {
		if _, err := NewHasher(o.Verify); err != nil {
			return &PathError{Op: "copytree", Path: src, Err: err}
		}
	}

	w := &treeWalk{
		file:       d.file,
		opts:       o,
		selector:   selectorOrAll(o.Selector),
		concurrent: concurrent,
	}
	if err := w.level(src, dst, ""); err != nil {
		return err
	}

	d.file.logger.Debug("directory.copy",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Bool("concurrent", concurrent),
	)
	return nil
}

type treeWalk struct {
	file       *File
	opts       *Options
	selector   FileSelector
	concurrent bool
}

// level creates dst and copies the direct children of src into it. rel is
// the slash-separated path of src below the copy root.
func (w *treeWalk) level(src, dst, rel string) error {
	w.file.manager.TrackDir(dst, "copytree")

	if err := os.MkdirAll(dst, 0755); err != nil {
		return &PathError{Op: "copytree", Path: dst, Err: err}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return &PathError{Op: "copytree", Path: src, Err: mapNotExist(err)}
	}

	var tasks []func() error
	for _, entry := range entries {
		info, err := w.describe(src, rel, entry)
		if err != nil {
			return err
		}

		childSrc := filepath.Join(src, entry.Name())
		childDst := filepath.Join(dst, entry.Name())
		childRel := info.Path

		if info.IsDir {
			// Links to directories are not followed; they could form a cycle.
			if entry.Type()&os.ModeSymlink != 0 {
				w.file.logger.Debug("directory.copy skipped symlink", zap.String("path", childSrc))
				continue
			}
			if !w.selector.TraverseDescendants(info) {
				continue
			}
			tasks = append(tasks, func() error {
				return w.level(childSrc, childDst, childRel)
			})
			continue
		}

		if !w.selector.Match(info) {
			continue
		}
		tasks = append(tasks, func() error {
			return w.file.copy(childSrc, childDst, w.opts)
		})
	}

	if !w.concurrent {
		for _, task := range tasks {
			if err := task(); err != nil {
				return err
			}
		}
		return nil
	}

	// No derived context: a failing sibling must not cancel the others.
	var g errgroup.Group
	if w.opts.Concurrency > 0 {
		g.SetLimit(w.opts.Concurrency)
	}
	for _, task := range tasks {
		g.Go(task)
	}
	return g.Wait()
}

// describe builds the FileInfo the selector sees. Symlinks are resolved so
// a link to a file is copied as that file.
func (w *treeWalk) describe(dir, rel string, entry os.DirEntry) (*FileInfo, error) {
	var (
		info os.FileInfo
		err  error
	)
	if entry.Type()&os.ModeSymlink != 0 {
		info, err = os.Stat(filepath.Join(dir, entry.Name()))
	} else {
		info, err = entry.Info()
	}
	if err != nil {
		return nil, &PathError{Op: "copytree", Path: filepath.Join(dir, entry.Name()), Err: mapNotExist(err)}
	}

	return &FileInfo{
		Name:    entry.Name(),
		Path:    path.Join(rel, entry.Name()),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// within reports whether dst is src itself or lies below it. Copying into
// such a target would enumerate its own output.
func within(src, dst string) (bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absSrc, absDst)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
