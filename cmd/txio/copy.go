package main

import (
	"github.com/spf13/cobra"

	"github.com/gobeaver/txio"
)

var copyVerify string

func init() {
	cmd := newCopyCmd()
	cmd.Flags().StringVar(&copyVerify, "verify", "", "Verify the copy with a checksum (md5, sha1, sha256, sha512, crc32, xxhash)")
	rootCmd.AddCommand(cmd)
}

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a single file",
		Long: `The copy command copies one file. Missing parent directories of the
destination are created and removed again if the copy fails.

Example:
  txio copy report.pdf archive/2024/report.pdf
  txio copy big.iso /mnt/backup/big.iso --buffer-size 1048576 --verify xxhash
  txio copy config.yaml config.yaml.bak --overwrite --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args)
		},
	}
	return cmd
}

func runCopy(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	x, err := newIO()
	if err != nil {
		return err
	}
	defer x.Logger().Sync() //nolint:errcheck

	opts := copyOptions(cmd)
	if copyVerify != "" {
		opts = append(opts, txio.WithVerify(txio.ChecksumAlgorithm(copyVerify)))
	}

	s := &summary{Command: "copy", Source: src, Target: dst}
	err = runTransaction(x, s, func() error {
		return x.File.Copy(cmd.Context(), src, dst, opts...)
	})
	if err != nil {
		return err
	}
	return report(s)
}
