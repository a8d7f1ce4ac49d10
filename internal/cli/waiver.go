package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/score"
	"github.com/spf13/cobra"
)

var (
	waiverStance string
	lastWaiver   int
)

// waiverCmd represents the waiver command
var waiverCmd = &cobra.Command{
	Use:   "waiver",
	Short: "Suggest an APC waiver for the next campaign",
	Long: `Waiver suggests a waiver percentage from the journal's stance
(targeted, aggressive or minimal) and the waiver granted last time.

Example:
  cfpqc waiver --stance targeted
  cfpqc waiver --stance aggressive --last 20`,
	Args: cobra.NoArgs,
	RunE: runWaiver,
}

func init() {
	rootCmd.AddCommand(waiverCmd)

	waiverCmd.Flags().StringVar(&waiverStance, "stance", string(score.WaiverTargeted), "waiver stance: targeted, aggressive or minimal")
	waiverCmd.Flags().IntVar(&lastWaiver, "last", -1, "waiver percentage granted last time (omit if none)")
	waiverCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the recommendation as JSON")
}

func runWaiver(cmd *cobra.Command, args []string) error {
	stance, err := score.ParseWaiverStance(waiverStance)
	if err != nil {
		return err
	}

	var last *int
	if cmd.Flags().Changed("last") && lastWaiver >= 0 {
		last = &lastWaiver
	}

	rec := score.RecommendWaiver(stance, last)
	if jsonOutput {
		return pipeline.WriteJSON(os.Stdout, rec)
	}

	fmt.Printf("%s (%s: %d%%)\n", rec.Message, rec.Stance, rec.Percentage)
	return nil
}
