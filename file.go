package txio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gobeaver/txio/codec"
	"github.com/gobeaver/txio/txn"
)

// File writes, copies and reads single files. Mutations register an undo
// action with the manager before touching the filesystem, so they take part
// in whatever transaction is active at that moment.
type File struct {
	manager  *txn.Manager
	codecs   *codec.Registry
	logger   *zap.Logger
	defaults []Option
}

// NewFile creates a File bound to manager. A nil registry gets the built-in
// codecs and a nil logger discards output. defaults apply to every call
// before the caller's own options.
func NewFile(manager *txn.Manager, codecs *codec.Registry, logger *zap.Logger, defaults ...Option) *File {
	if codecs == nil {
		codecs = codec.NewRegistry(codec.DefaultOptions())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{
		manager:  manager,
		codecs:   codecs,
		logger:   logger,
		defaults: defaults,
	}
}

// WriteEncoded writes payload to path, creating missing parent directories.
// Without overwrite an existing path fails with ErrExist before anything is
// registered or written.
func (f *File) WriteEncoded(ctx context.Context, path string, payload []byte, opts ...Option) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	o := buildOptions(f.defaults, opts)
	path = filepath.Clean(path)

	if err := checkTarget("write", path, o.Overwrite); err != nil {
		return err
	}

	f.manager.Track(path, "write")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}

	out, err := createTarget(path, 0644, o.Overwrite)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if _, err := out.Write(payload); err != nil {
		out.Close()
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}

	f.logger.Debug("file.write", zap.String("path", path), zap.Int("bytes", len(payload)))
	return nil
}

// Write encodes v with the codec registered for format and writes the
// result like WriteEncoded.
func (f *File) Write(ctx context.Context, path string, format codec.Format, v any, opts ...Option) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c, err := f.codecs.Get(format)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	payload, err := c.Marshal(v)
	if err != nil {
		return &PathError{Op: "encode", Path: path, Err: err}
	}
	return f.WriteEncoded(ctx, path, payload, opts...)
}

// WriteJSON writes v as JSON.
func (f *File) WriteJSON(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.JSON, v, opts...)
}

// WriteBSON writes v as a BSON document.
func (f *File) WriteBSON(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.BSON, v, opts...)
}

// WriteXML writes v as XML.
func (f *File) WriteXML(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.XML, v, opts...)
}

// WriteCSV writes a slice of structs as CSV with a header row.
func (f *File) WriteCSV(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.CSV, v, opts...)
}

// WriteYAML writes v as YAML.
func (f *File) WriteYAML(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.YAML, v, opts...)
}

// WriteTOML writes v as TOML.
func (f *File) WriteTOML(ctx context.Context, path string, v any, opts ...Option) error {
	return f.Write(ctx, path, codec.TOML, v, opts...)
}

// Copy copies the regular file at src to dst, keeping its permission bits.
// Copying a file onto itself with overwrite is a no-op that registers
// nothing.
func (f *File) Copy(ctx context.Context, src, dst string, opts ...Option) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return f.copy(filepath.Clean(src), filepath.Clean(dst), buildOptions(f.defaults, opts))
}

func (f *File) copy(src, dst string, o *Options) error {
	if o.BufferSet && o.BufferSize <= 0 {
		return &PathError{Op: "copy", Path: src, Err: ErrInvalidBufferSize}
	}
	if o.Verify != "" {
		if _, err := NewHasher(o.Verify); err != nil {
			return &PathError{Op: "copy", Path: src, Err: err}
		}
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return &PathError{Op: "copy", Path: src, Err: mapNotExist(err)}
	}
	if srcInfo.IsDir() {
		return &PathError{Op: "copy", Path: src, Err: ErrIsDir}
	}

	dstInfo, err := os.Stat(dst)
	switch {
	case err == nil:
		if !o.Overwrite {
			return &PathError{Op: "copy", Path: dst, Err: ErrExist}
		}
		if os.SameFile(srcInfo, dstInfo) {
			return nil
		}
		if dstInfo.IsDir() {
			return &PathError{Op: "copy", Path: dst, Err: ErrIsDir}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return &PathError{Op: "copy", Path: dst, Err: err}
	}

	f.manager.Track(dst, "copy")

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &PathError{Op: "copy", Path: dst, Err: err}
	}

	written, err := copyContents(src, dst, srcInfo.Mode().Perm(), o)
	if err != nil {
		return &PathError{Op: "copy", Path: dst, Err: err}
	}

	if o.Verify != "" {
		if err := verifyCopy(src, dst, o.Verify); err != nil {
			return &PathError{Op: "copy", Path: dst, Err: err}
		}
	}

	f.logger.Debug("file.copy",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Int64("bytes", written),
	)
	return nil
}

func copyContents(src, dst string, perm fs.FileMode, o *Options) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := createTarget(dst, perm, o.Overwrite)
	if err != nil {
		return 0, err
	}

	var written int64
	if o.BufferSet {
		written, err = copyBuffered(out, in, o.BufferSize)
	} else {
		written, err = io.Copy(out, in)
	}
	if err != nil {
		out.Close()
		return written, err
	}
	// OpenFile applies the umask and leaves an existing file's mode alone.
	if err := out.Chmod(perm); err != nil {
		out.Close()
		return written, err
	}
	return written, out.Close()
}

// copyBuffered moves at most size bytes per read/write round trip.
func copyBuffered(dst io.Writer, src io.Reader, size int) (int64, error) {
	buf := make([]byte, size)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// Read decodes the file at path into out. Reads are not transactional.
func (f *File) Read(ctx context.Context, path string, format codec.Format, out any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c, err := f.codecs.Get(format)
	if err != nil {
		return &PathError{Op: "read", Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &PathError{Op: "read", Path: path, Err: mapNotExist(err)}
	}
	if err := c.Unmarshal(data, out); err != nil {
		return &PathError{Op: "decode", Path: path, Err: err}
	}
	return nil
}

// ReadJSON decodes a JSON file.
func (f *File) ReadJSON(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.JSON, out)
}

// ReadBSON decodes a BSON document.
func (f *File) ReadBSON(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.BSON, out)
}

// ReadXML decodes an XML file.
func (f *File) ReadXML(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.XML, out)
}

// ReadCSV decodes a CSV file with a header row into a slice of structs.
func (f *File) ReadCSV(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.CSV, out)
}

// ReadYAML decodes a YAML file.
func (f *File) ReadYAML(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.YAML, out)
}

// ReadTOML decodes a TOML file.
func (f *File) ReadTOML(ctx context.Context, path string, out any) error {
	return f.Read(ctx, path, codec.TOML, out)
}

// ReadAuto decodes path using the format implied by its extension, falling
// back to sniffing the content.
func (f *File) ReadAuto(ctx context.Context, path string, out any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if format, ok := codec.FormatFromPath(path); ok {
		return f.Read(ctx, path, format, out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &PathError{Op: "read", Path: path, Err: mapNotExist(err)}
	}
	format, ok := codec.Detect(data)
	if !ok {
		return &PathError{Op: "read", Path: path, Err: codec.ErrUnknownFormat}
	}
	c, err := f.codecs.Get(format)
	if err != nil {
		return &PathError{Op: "read", Path: path, Err: err}
	}
	if err := c.Unmarshal(data, out); err != nil {
		return &PathError{Op: "decode", Path: path, Err: err}
	}
	return nil
}

// checkTarget enforces the overwrite rule before any registration.
func checkTarget(op, path string, overwrite bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &PathError{Op: op, Path: path, Err: err}
	}
	if !overwrite {
		return &PathError{Op: op, Path: path, Err: ErrExist}
	}
	if info.IsDir() {
		return &PathError{Op: op, Path: path, Err: ErrIsDir}
	}
	return nil
}

// createTarget opens path for writing. Without overwrite the file must not
// exist, which also catches a target created after checkTarget ran.
func createTarget(path string, perm fs.FileMode, overwrite bool) (*os.File, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag |= os.O_EXCL
	}
	out, err := os.OpenFile(path, flag, perm)
	if err != nil && errors.Is(err, fs.ErrExist) {
		return nil, ErrExist
	}
	return out, err
}

func mapNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
