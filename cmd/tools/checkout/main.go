package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// checkout prices each SKU string given on the command line and prints one
// total per line, -1 for invalid baskets.
// Exit code 0 = ok, 1 = at least one invalid basket, 2 = usage or rules error.
func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type summary struct {
	SKUs     string         `json:"skus"`
	Valid    bool           `json:"valid"`
	Error    string         `json:"error,omitempty"`
	Items    pricing.Basket `json:"items,omitempty"`
	Subtotal int64          `json:"subtotal"`
	Discount int64          `json:"discount"`
	Total    int64          `json:"total"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rulesPath := fs.String("rules", os.Getenv("PRICING_RULES_PATH"), "path to a YAML pricing rules file (built-in rules when empty)")
	asJSON := fs.Bool("json", false, "print a JSON summary per basket")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: checkout [-rules file] [-json] SKUS...")
		return 2
	}

	rules, err := catalog.LoadFile(*rulesPath)
	if err != nil {
		fmt.Fprintf(stderr, "checkout: %v\n", err)
		return 2
	}
	engine, err := pricing.NewEngine(rules.Set)
	if err != nil {
		fmt.Fprintf(stderr, "checkout: %v\n", err)
		return 2
	}

	code := 0
	enc := json.NewEncoder(stdout)
	for _, skus := range fs.Args() {
		res := engine.Price(skus)
		if !res.OK() {
			code = 1
		}
		if !*asJSON {
			total := pricing.InvalidTotal
			if res.OK() {
				total = int(res.Total)
			}
			fmt.Fprintln(stdout, total)
			continue
		}
		out := summary{SKUs: skus, Valid: res.OK()}
		if res.OK() {
			out.Items = res.Basket
			out.Subtotal = res.Subtotal
			out.Discount = res.Discount
			out.Total = res.Total
		} else {
			out.Error = res.Err.Error()
			out.Total = pricing.InvalidTotal
		}
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "checkout: %v\n", err)
			return 2
		}
	}
	return code
}
