package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	dbtypes "github.com/nikicat/pass-engine/internal/dbus"
	"github.com/nikicat/pass-engine/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var (
		format  string
		remote  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List entries in the password store",
		Long: `List entries in the password store.

A pattern containing *, ?, [ or { is matched as a glob against the whole ID
(** crosses directories); any other pattern matches IDs containing it,
ignoring case.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				infos []store.CredentialInfo
				err   error
			)
			if remote {
				infos, err = listRemote(cmd.Context(), refresh)
			} else {
				infos, err = store.Build(a.cfg.StorePath, a.cfg.Extension, a.logger)
			}
			if err != nil {
				return err
			}
			if len(args) == 1 {
				infos, err = store.Filter(infos, args[0])
				if err != nil {
					return err
				}
			}

			switch format {
			case "json":
				return outputJSON(cmd, infos)
			case "table":
				outputTable(cmd, infos, remote)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&remote, "remote", false, "List the index of the running pass-engine service")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "With --remote, make the service rescan the store first")
	return cmd
}

// listRemote returns the service's index. Only IDs travel over the bus.
func listRemote(ctx context.Context, refresh bool) ([]store.CredentialInfo, error) {
	client, err := dbtypes.Dial()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return remoteEntries(ctx, client, refresh)
}

// entryLister is the part of the bus client used by list
type entryLister interface {
	Refresh(ctx context.Context) error
	List(ctx context.Context) ([]string, error)
}

func remoteEntries(ctx context.Context, c entryLister, refresh bool) ([]store.CredentialInfo, error) {
	if refresh {
		if err := c.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refreshing remote index: %w", err)
		}
	}
	ids, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]store.CredentialInfo, len(ids))
	for i, id := range ids {
		infos[i] = store.CredentialInfo{ID: id}
	}
	return infos, nil
}

type listOutputEntry struct {
	ID       string `json:"id"`
	Path     string `json:"path,omitempty"`
	Modified string `json:"modified,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

func outputJSON(cmd *cobra.Command, infos []store.CredentialInfo) error {
	output := make([]listOutputEntry, 0, len(infos))
	for _, info := range infos {
		item := listOutputEntry{
			ID:   info.ID,
			Path: info.Path,
			Size: info.Size,
		}
		if !info.ModTime.IsZero() {
			item.Modified = info.ModTime.Format(time.RFC3339)
		}
		output = append(output, item)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputTable(cmd *cobra.Command, infos []store.CredentialInfo, idsOnly bool) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	if idsOnly {
		t.AppendHeader(table.Row{"ID"})
		for _, info := range infos {
			t.AppendRow(table.Row{info.ID})
		}
		t.AppendFooter(table.Row{len(infos)})
		t.Render()
		return
	}

	t.AppendHeader(table.Row{"ID", "Last Modified", "Age", "Size"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.ID, info.LastModified(), info.ModifiedAgo(), info.HumanSize()})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(infos)})

	t.Render()
}
