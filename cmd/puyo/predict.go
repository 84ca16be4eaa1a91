package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/registry"
)

var flagPredictDrop bool

var predictCmd = &cobra.Command{
	Use:   "predict <field>",
	Short: "Count the chain a field string would fire",
	Long: `Decode a field string, print the field and resolve its chain with the
selected ruleset.

A field string has one digit per cell, row by row from the floor, six
cells per row: 0 empty, 1-5 a color, 6 nuisance. Trailing empty cells
may be left out.

Examples:
  puyo predict 111200
  puyo predict 112233112233 --rules classic
  puyo predict 001100002200 --drop`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&flagPredictDrop, "drop", false, "Let floating puyo fall before resolving")
}

var digitGlyphs = map[byte]string{'1': "R", '2': "G", '3': "B", '4': "Y", '5': "P", '6': "o"}

func runPredict(_ *cobra.Command, args []string) error {
	code := strings.TrimSpace(args[0])
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '6' {
			return fmt.Errorf("invalid field digit %q at %d", code[i], i)
		}
	}

	rules, err := registry.Create(settings.Ruleset)
	if err != nil {
		return err
	}

	f := field.New(field.DefaultProperties(), rules.Settings().ClearThreshold)
	f.Decode(code)
	if flagPredictDrop {
		f.Drop()
	}

	printField(f)
	fmt.Printf("predicted chain: %d\n", f.PredictChain())

	// Resolve the chain pass by pass for the score.
	total := 0
	for chain := 0; ; {
		res := f.SearchChain(rules, chain)
		if !res.Found {
			break
		}
		chain = res.Chain
		total += res.Score
		fmt.Printf("  %2d chain: %2d popped, %d colors, %d x %d = %d\n",
			res.Chain, res.Popped, res.Colors, res.Points, res.Bonus, res.Score)
		f.Drop()
	}
	fmt.Printf("score: %d\n", total)
	fmt.Printf("after: %q\n", f.Encode())
	return nil
}

// printField draws the visible rows with the top row first.
func printField(f *field.Field) {
	for y := f.HiddenRow(); y >= 0; y-- {
		var sb strings.Builder
		sb.WriteString("|")
		for x := 0; x < f.Width(); x++ {
			p := f.At(x, y)
			switch {
			case p == nil:
				sb.WriteString(" .")
			case p.Kind == field.KindNuisance:
				sb.WriteString(" " + digitGlyphs['6'])
			default:
				sb.WriteString(" " + digitGlyphs[byte('1'+p.Color)])
			}
		}
		sb.WriteString(" |")
		if y == f.HiddenRow() {
			sb.WriteString(" hidden")
		}
		fmt.Println(sb.String())
	}
	fmt.Println("+" + strings.Repeat("--", f.Width()) + "-+")
}
