package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeaver/txio/codec"
)

var convertTo string

func init() {
	cmd := newConvertCmd()
	cmd.Flags().StringVar(&convertTo, "to", "", "Output format (default: from the output file extension)")
	rootCmd.AddCommand(cmd)
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a document between JSON, BSON, YAML and TOML",
		Long: `The convert command decodes a document and writes it in another format.
Formats are taken from the file extensions; append .zst for zstd
compression.

Example:
  txio convert settings.yaml settings.json
  txio convert data.json data.bson
  txio convert config.toml config.json.zst
  txio convert dump.dat out.yaml --to yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args)
		},
	}
	return cmd
}

// documentFormats can round-trip an untyped map.
var documentFormats = map[codec.Format]bool{
	codec.JSON: true,
	codec.BSON: true,
	codec.YAML: true,
	codec.TOML: true,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	format := codec.Format(convertTo)
	if format == "" {
		var ok bool
		if format, ok = codec.FormatFromPath(out); !ok {
			return fmt.Errorf("cannot infer output format from %q, use --to", out)
		}
	}
	if inner, _ := format.Compressed(); !documentFormats[inner] {
		return fmt.Errorf("convert does not support %q output", format)
	}

	x, err := newIO()
	if err != nil {
		return err
	}
	defer x.Logger().Sync() //nolint:errcheck

	doc := map[string]any{}
	if err := x.File.ReadAuto(cmd.Context(), in, &doc); err != nil {
		return err
	}
	printVerbose("Decoded %d top-level key(s) from %s\n", len(doc), in)

	s := &summary{Command: "convert", Source: in, Target: out}
	err = runTransaction(x, s, func() error {
		return x.File.Write(cmd.Context(), out, format, doc, copyOptions(cmd)...)
	})
	if err != nil {
		return err
	}
	return report(s)
}
