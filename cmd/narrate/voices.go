package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vjovkovs/narrate/internal/config"
	"github.com/vjovkovs/narrate/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return reportErr(err)
		}
		defer eng.Close()

		voices, err := eng.Voices(cmd.Context())
		if err != nil {
			return reportErr(err)
		}
		def := tts.PickVoice("", voices)
		for _, v := range voices {
			if v == def && eng.Name != config.BackendEspeak {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", v)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}
