package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/cidvault/config"
	"github.com/bitfsorg/cidvault/ledger"
	"github.com/bitfsorg/cidvault/network"
	"github.com/bitfsorg/cidvault/storage"
)

type txStatus struct {
	TxID     string `json:"tx_id" yaml:"tx_id"`
	State    string `json:"state" yaml:"state"` // pending, confirmed, reverted, recorded
	Block    uint64 `json:"block,omitempty" yaml:"block,omitempty"`
	GasUsed  uint64 `json:"gas_used,omitempty" yaml:"gas_used,omitempty"`
	Wallet   string `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	CID      string `json:"cid,omitempty" yaml:"cid,omitempty"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty"` // present or missing, local store only
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Explorer string `json:"explorer,omitempty" yaml:"explorer,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tx-id>",
		Short: "Show whether a store's ledger transaction was confirmed",
		Long: `Store returns as soon as the ledger transaction is submitted. status looks
the transaction up afterwards: on chain it reports pending, confirmed or
reverted from the receipt; with the local ledger it shows the recorded entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := lookupStatus(cmd, a, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.output, st, func(w io.Writer) error {
				if err := writePlain(w, "tx:     %s\nstate:  %s\n", st.TxID, st.State); err != nil {
					return err
				}
				if st.Block > 0 {
					if err := writePlain(w, "block:  %d\ngas:    %d\n", st.Block, st.GasUsed); err != nil {
						return err
					}
				}
				if st.CID != "" {
					if err := writePlain(w, "wallet: %s\ncid:    %s\n", st.Wallet, st.CID); err != nil {
						return err
					}
				}
				if st.Content != "" {
					if err := writePlain(w, "blob:   %s (%d bytes)\n", st.Content, st.Size); err != nil {
						return err
					}
				}
				if st.Explorer != "" {
					return writePlain(w, "link:   %s\n", st.Explorer)
				}
				return nil
			})
		},
	}
}

func lookupStatus(cmd *cobra.Command, a *app, txID string) (*txStatus, error) {
	if a.cfg.Ledger.Backend == config.LedgerLocal {
		idx, err := ledger.OpenBoltIndex(a.cfg.LedgerDBPath())
		if err != nil {
			return nil, err
		}
		defer idx.Close()
		rec, err := idx.Lookup(txID)
		if err != nil {
			return nil, err
		}
		st := &txStatus{
			TxID:   rec.TxID,
			State:  "recorded",
			Wallet: rec.Wallet.Hex(),
			CID:    rec.CID,
		}
		if err := localBlobStatus(a.cfg, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	hash, err := ledger.ParseTxHash(txID)
	if err != nil {
		return nil, err
	}
	n, err := chainNetwork(a.cfg)
	if err != nil {
		return nil, err
	}
	backend, err := rpcBackend(a.cfg, n)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.commandContext(cmd)
	defer cancel()

	st := &txStatus{TxID: hash.Hex(), State: "pending"}
	if n.Explorer != "" {
		st.Explorer = fmt.Sprintf("%s/tx/%s", strings.TrimRight(n.Explorer, "/"), hash.Hex())
	}

	rcpt, err := backend.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, network.ErrTxNotFound) {
			return st, nil
		}
		return nil, err
	}
	st.Block = rcpt.BlockNumber
	st.GasUsed = rcpt.GasUsed
	if rcpt.Succeeded() {
		st.State = "confirmed"
	} else {
		st.State = "reverted"
	}
	return st, nil
}

// localBlobStatus reports whether the recorded CID is held by the local
// content store. Other storage backends are left unchecked.
func localBlobStatus(cfg config.Config, st *txStatus) error {
	if cfg.Storage.Backend != config.StorageLocal {
		return nil
	}
	fs, err := storage.NewFileStore(cfg.BlobDir())
	if err != nil {
		return err
	}
	ok, err := fs.Has(st.CID)
	if err != nil {
		return err
	}
	if !ok {
		st.Content = "missing"
		return nil
	}
	st.Content = "present"
	st.Size, err = fs.Size(st.CID)
	return err
}
