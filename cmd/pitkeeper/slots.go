package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
	"github.com/TheLysdexicOne/pitkeeper/internal/summary"
)

var deleteYes bool

var (
	slotHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true).Padding(0, 1)
	slotCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	slotActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Padding(0, 1)
)

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List save slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			a.store.MigrateLegacyData()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSlots(a.store.Slots()))
			return err
		},
	}
}

func renderSlots(infos []model.SlotInfo) string {
	rows := make([][]string, 0, len(infos))
	activeRow := -1
	for i, info := range infos {
		if info.Active {
			activeRow = i
		}
		rows = append(rows, summary.SlotFields(info))
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))).
		Headers(summary.SlotHeaders...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return slotHeaderStyle
			case row == activeRow:
				return slotActiveStyle
			default:
				return slotCellStyle
			}
		}).
		String()
}

func parseSlot(arg string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !model.ValidSlot(slot) {
		return 0, fmt.Errorf("%w: %q (want 1-%d)", progress.ErrInvalidSlot, arg, model.SlotCount)
	}
	return slot, nil
}

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <slot>",
		Short: "Make a save slot active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			tracker.SwitchSaveSlot(slot)
			if tracker.ActiveSlot() != slot || a.store.ActiveSlot() != slot {
				return fmt.Errorf("failed to switch to slot %d", slot)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Active slot: %d (%s)\n", slot, tracker.Data().DisplayName(slot))
			return err
		},
	}
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <slot>",
		Short: "Reset a save slot to empty progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			name := a.store.Load(slot).DisplayName(slot)
			if !deleteYes {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("refusing to delete slot %d without --yes", slot)
				}
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete %s? All progress in slot %d is lost. (y/N) ", name, slot))
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return err
				}
			}
			tracker.DeleteSaveSlot(slot)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", name)
			return err
		},
	}
	cmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm reads one answer line; only y and yes accept.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <slot> <name>",
		Short: "Rename a save slot",
		Long:  "Rename a save slot. An empty name restores the default \"Save N\".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			if err := tracker.RenameSlot(slot, args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Slot %d renamed to %s.\n", slot, a.store.Load(slot).DisplayName(slot))
			return err
		},
	}
}
