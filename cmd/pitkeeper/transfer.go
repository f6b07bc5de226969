package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TheLysdexicOne/pitkeeper/internal/kv"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

func newMigrateCmd() *cobra.Command {
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move single-save progress into slot 1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()
			if a.store.MigrateLegacyData() {
				if _, err := fmt.Fprintln(out, "Migrated legacy progress to slot 1."); err != nil {
					return err
				}
			} else if _, err := fmt.Fprintln(out, "Nothing to migrate."); err != nil {
				return err
			}
			if !cleanup {
				return nil
			}
			if err := a.store.CleanupLegacyKeys(); err != nil {
				return fmt.Errorf("failed to remove legacy keys: %w", err)
			}
			_, err = fmt.Fprintln(out, "Removed legacy keys.")
			return err
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup-legacy", false, "delete the single-save keys afterwards")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Import a browser localStorage dump",
		Long: `Import a browser localStorage dump.

The file is a JSON object of string keys to string values, as printed by
JSON.stringify(localStorage). Keys pitkeeper does not use are ignored.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readDump(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.ImportDump(entries)
			if err != nil {
				return err
			}
			a.store.MigrateLegacyData()
			// Loading rewrites older slot layouts in place.
			for slot := 1; slot <= model.SlotCount; slot++ {
				a.store.Load(slot)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d keys.\n", n)
			return err
		},
	}
}

func readDump(stdin io.Reader, path string) (map[string]string, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	return parseDump(raw)
}

// parseDump decodes a localStorage dump. Non-string values are kept as
// their JSON text.
func parseDump(raw []byte) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}
	entries := make(map[string]string, len(fields))
	for key, value := range fields {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			entries[key] = s
			continue
		}
		entries[key] = string(value)
	}
	return entries, nil
}

func newExportCmd() *cobra.Command {
	var (
		slot   int
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a save slot, or the whole storage as a localStorage dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
			if slot != 0 {
				if _, err := parseSlot(fmt.Sprint(slot)); err != nil {
					return err
				}
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var value any
			if slot == 0 {
				value, err = dumpKnownKeys(a.storage)
				if err != nil {
					return err
				}
			} else {
				value = a.store.Load(slot)
			}
			return writeExport(cmd.OutOrStdout(), format, value)
		},
	}
	cmd.Flags().IntVar(&slot, "slot", 0, "slot to export (0 dumps every known key)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json or yaml)")
	return cmd
}

func dumpKnownKeys(storage kv.Storage) (map[string]string, error) {
	out := map[string]string{}
	for _, key := range kv.KnownKeys() {
		value, ok, err := storage.Get(key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if ok {
			out[key] = value
		}
	}
	return out, nil
}

func writeExport(w io.Writer, format string, value any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
