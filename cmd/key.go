package cmd

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kernel/geoshot/pkg/settings"
)

// KeyCmd inspects and removes the saved Gemini API key.
type KeyCmd struct {
	store settings.Store
	// confirm asks before destructive operations; defaults to pterm's interactive confirm.
	confirm func(question string) bool
}

// KeyClearInput holds input for clearing the key.
type KeyClearInput struct {
	SkipConfirm bool
}

// Status reports whether a key is saved without printing it.
func (k KeyCmd) Status() error {
	key, err := k.store.Get(settings.APIKeyName)
	if errors.Is(err, settings.ErrNotFound) {
		pterm.Warning.Println("No Gemini API key saved. Run 'geoshot setup' to add one.")
		return nil
	}
	if err != nil {
		return err
	}
	pterm.Success.Printf("Gemini API key saved (%s)\n", maskKey(key))
	return nil
}

func (k KeyCmd) Clear(in KeyClearInput) error {
	if !in.SkipConfirm {
		if !k.ask("Are you sure you want to remove the saved Gemini API key?") {
			pterm.Info.Println("Removal cancelled")
			return nil
		}
	}
	if err := k.store.Delete(settings.APIKeyName); err != nil {
		return err
	}
	pterm.Success.Println("Gemini API key removed")
	return nil
}

func (k KeyCmd) ask(question string) bool {
	if k.confirm != nil {
		return k.confirm(question)
	}
	pterm.DefaultInteractiveConfirm.DefaultText = question
	ok, _ := pterm.DefaultInteractiveConfirm.Show()
	return ok
}

// maskKey keeps the last four characters of a key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return fmt.Sprintf("****%s", key[len(key)-4:])
}

// --- Cobra wiring ---

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the saved Gemini API key",
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Gemini API key is saved",
	Args:  cobra.NoArgs,
	RunE:  runKeyStatus,
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved Gemini API key",
	Args:  cobra.NoArgs,
	RunE:  runKeyClear,
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyStatusCmd)
	keyCmd.AddCommand(keyClearCmd)

	keyClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}

func runKeyStatus(cmd *cobra.Command, args []string) error {
	store, err := newSettingsStore(getConfig(cmd))
	if err != nil {
		return err
	}
	return KeyCmd{store: store}.Status()
}

func runKeyClear(cmd *cobra.Command, args []string) error {
	store, err := newSettingsStore(getConfig(cmd))
	if err != nil {
		return err
	}
	skip, _ := cmd.Flags().GetBool("yes")
	return KeyCmd{store: store}.Clear(KeyClearInput{SkipConfirm: skip})
}
