package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nihongo.exe.dev/config"
	"nihongo.exe.dev/dict"
	"nihongo.exe.dev/reading"
)

var readingCmd = &cobra.Command{
	Use:   "reading <word>",
	Short: "Look up a word the way the games do",
	Args:  cobra.ExactArgs(1),
	RunE:  runReading,
}

func runReading(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	word := args[0]

	d, err := openDictionary(cfg.Dictionary)
	if err != nil {
		return err
	}
	r, ok := reading.NewResolver(d, reading.NewMemoryCache()).Resolve(ctx, word)
	if ok {
		fmt.Printf("%s → %s\n", word, r)
	} else {
		fmt.Printf("%s → no reading found\n", word)
	}
	exists := reading.NewValidator(dict.Chain{dict.CommonWords(), d}).Exists(ctx, word)
	fmt.Printf("in dictionary: %v\n", exists)

	if cfg.Dictionary.Source != "jisho" {
		return nil
	}
	results, err := dict.NewJisho(cfg.Dictionary.JishoURL, cfg.Dictionary.Timeout.Std()).Search(ctx, word)
	if err != nil {
		return fmt.Errorf("jisho search: %w", err)
	}
	for i, w := range results {
		if i == 3 {
			break
		}
		fmt.Printf("\n%s", dict.FormatReadings(w))
		if jlpt := dict.FormatJLPT(w.JLPT); jlpt != "" {
			fmt.Printf("  [%s]", jlpt)
		}
		fmt.Println()
		fmt.Println(indent(dict.FormatMeanings(w, 3)))
	}
	return nil
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
