// Package txio reads and writes serialized files and copies files and
// directory trees, with the option of grouping those mutations into a
// best-effort, in-process transaction that can be rolled back.
//
// Every mutating call registers an undo action before it touches the disk.
// Outside a transaction the registration is a no-op and the call behaves
// like a plain write or copy.
//
// # Basic Usage
//
//	x, err := txio.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//
//	if err := x.Begin(); err != nil {
//	    log.Fatal(err)
//	}
//	err = x.File.WriteJSON(ctx, "out/report.json", report)
//	if err == nil {
//	    err = x.Directory.Copy(ctx, "assets", "out/assets")
//	}
//	if err != nil {
//	    x.Rollback() // removes out/ again if this transaction created it
//	    return err
//	}
//	return x.Commit()
//
// The same flow with the commit and rollback handled for you:
//
//	err := x.InTransaction(ctx, func(ctx context.Context) error {
//	    if err := x.File.WriteJSON(ctx, "out/report.json", report); err != nil {
//	        return err
//	    }
//	    return x.Directory.Copy(ctx, "assets", "out/assets")
//	})
//
// # Rollback Semantics
//
// Rollback runs the undo actions most recent first. An action removes the
// directories its mutation created and, for file writes, the target file if
// its last-write time is not older than the registration time minus a
// tolerance (BEAVER_TXIO_ROLLBACK_TOLERANCE_MS, 50ms by default).
//
// This is not a journal. Overwritten files are deleted on rollback, not
// restored; a crash leaves whatever was written; other processes see every
// change immediately.
//
// # Formats
//
// Write and Read take a [codec.Format]: JSON, BSON, XML, CSV, YAML and TOML
// are built in, and any of them can be zstd-compressed by appending "+zstd".
// ReadAuto chooses the format from the file extension ("data.json.zst" is
// "json+zstd") and falls back to sniffing the content.
//
// # Copy Options
//
//	x.File.Copy(ctx, "a.bin", "b.bin",
//	    txio.WithOverwrite(true),
//	    txio.WithBufferSize(64<<10),
//	    txio.WithVerify(txio.ChecksumXXHash),
//	)
//
//	x.Directory.CopyConcurrent(ctx, "src", "dst",
//	    txio.WithConcurrency(8),
//	    txio.WithSelector(txio.And(txio.Glob("*.json"), txio.Depth(3))),
//	)
//
// # Error Handling
//
// Failures carry a [PathError] wrapping one of the sentinel errors:
//
//	err := x.File.Copy(ctx, "missing.txt", "dst.txt")
//	if txio.IsNotExist(err) {
//	    // source does not exist
//	}
//
//	var pathErr *txio.PathError
//	if errors.As(err, &pathErr) {
//	    fmt.Printf("Operation: %s, Path: %s\n", pathErr.Op, pathErr.Path)
//	}
//
// # Configuration
//
// txio is configured via environment variables with the BEAVER_TXIO_ prefix,
// a custom prefix through [WithPrefix], or programmatically:
//
//	cfg := txio.DefaultConfig()
//	cfg.DefaultOverwrite = true
//	cfg.MaxConcurrency = 4
//	x, err := txio.New(cfg)
package txio
