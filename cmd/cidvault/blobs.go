package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/config"
	"github.com/bitfsorg/cidvault/storage"
)

type blobEntry struct {
	CID  string `json:"cid" yaml:"cid"`
	Size int64  `json:"size" yaml:"size"`
}

func newBlobsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blobs",
		Short: "List the sealed blobs held on local disk",
		Long: `blobs lists the local content store: the blob directory with the local
storage backend, or the read-through cache otherwise. Blobs left behind by a
store whose ledger append failed show up here with no ledger entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := localBlobDir(a.cfg)
			if err != nil {
				return err
			}
			fs, err := storage.NewFileStore(dir)
			if err != nil {
				return err
			}
			cids, err := fs.List()
			if err != nil {
				return err
			}
			entries := make([]blobEntry, 0, len(cids))
			for _, c := range cids {
				n, err := fs.Size(c)
				if err != nil {
					return err
				}
				entries = append(entries, blobEntry{CID: c, Size: n})
			}

			a.log.WithField("dir", fs.BaseDir()).Debug("listed local blobs")
			return writeOutput(cmd.OutOrStdout(), a.output, entries, func(w io.Writer) error {
				for _, e := range entries {
					if err := writePlain(w, "%s\t%d\n", e.CID, e.Size); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// localBlobDir returns the directory of the on-disk content store.
func localBlobDir(cfg config.Config) (string, error) {
	switch {
	case cfg.Storage.Backend == config.StorageLocal:
		return cfg.BlobDir(), nil
	case cfg.Storage.Cache:
		return cfg.CacheDir(), nil
	}
	return "", errors.New("no local content store: storage backend is remote and cache is off")
}
