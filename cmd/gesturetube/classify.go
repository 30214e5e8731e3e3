package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ayusman/gesturetube/internal/config"
	"github.com/ayusman/gesturetube/internal/detector"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var configPath, expect string

	cmd := &cobra.Command{
		Use:   "classify <landmarks.json>",
		Short: "Classify saved hand landmarks without a camera",
		Long: "Classify reads one hand or an array of hands as JSON (\"-\" for stdin)\n" +
			"and prints the gesture each would trigger.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			hands, err := detector.ParseHands(data)
			if err != nil {
				return err
			}

			thresholds := gesture.Thresholds{
				PlayMargin:  cfg.Detection.PlayMargin,
				PauseMargin: cfg.Detection.PauseMargin,
			}
			if err := printClassification(cmd.OutOrStdout(), hands, thresholds); err != nil {
				return err
			}

			if !cmd.Flags().Changed("expect") {
				return nil
			}
			want, ok := gesture.Parse(expect)
			if !ok {
				return fmt.Errorf("unknown gesture %q: want play, pause or none", expect)
			}
			if got := thresholds.ClassifyHand(&hands[0]); got != want {
				return fmt.Errorf("classified %s, expected %s", displayName(got), displayName(want))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&expect, "expect", "", "fail unless the first hand classifies as this gesture (play, pause, none)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// printClassification prints one line per hand. Only the first hand drives playback.
func printClassification(w io.Writer, hands []detector.HandLandmarks, t gesture.Thresholds) error {
	for i, hand := range hands {
		name := displayName(t.ClassifyHand(&hand))

		note := ""
		if i > 0 {
			note = " (ignored)"
		}
		if _, err := fmt.Fprintf(w, "hand %d %s: %s%s\n", i, hand.Handedness, name, note); err != nil {
			return err
		}
	}
	return nil
}

func displayName(g gesture.Gesture) string {
	if g.IsNone() {
		return "None"
	}
	return g.Label()
}
