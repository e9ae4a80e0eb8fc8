package main

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"flarestudio/internal/domain/entity"
	"flarestudio/internal/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printJSON writes v indented.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printTable writes rows as aligned columns under header.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, header)
	for _, r := range rows {
		writeRow(tw, r)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// exactPrice renders RawPrice / 10^Decimals without float rounding.
func exactPrice(q entity.PriceQuote) string {
	raw, ok := new(big.Int).SetString(q.RawPrice, 10)
	if !ok {
		return formatFloat(q.Price)
	}
	s, err := utils.FormatBigInt(raw, q.Decimals)
	if err != nil {
		return formatFloat(q.Price)
	}
	return s
}
