package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"fitquote/internal"
	"fitquote/internal/calc"
	"fitquote/internal/catalog"
	"fitquote/internal/config"
	"fitquote/internal/logging"
	"fitquote/internal/pipeline"
	"fitquote/internal/rules"
	"fitquote/internal/storage"
	"fitquote/internal/validate"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Initialize(cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	catalogue, err := catalog.NewService(db)
	must(err)
	defer catalogue.Flush()

	rulesService, err := rules.NewService(db)
	must(err)

	cmd := os.Args[1]
	switch cmd {
	case "catalogue:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "catalogue xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		blob, err := os.ReadFile(*input)
		must(err)
		entries, err := pipeline.ReadCatalogueEntries(blob)
		must(err)
		must(db.UpsertCatalogueEntries(entries))
		fmt.Printf("catalogue import complete: %d entries\n", len(entries))
	case "catalogue:list":
		entries, err := db.ListCatalogueEntries()
		must(err)
		for _, entry := range entries {
			fmt.Printf("%-30s %6.2fh %6.2fm3 heavy=%v\n", entry.Code, entry.InstallTimeHours, entry.WasteVolumeM3, entry.IsHeavy)
		}
	case "catalogue:learn":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		code := fs.String("code", "", "product code")
		timeHours := fs.Float64("time", 0, "install time per unit, hours")
		waste := fs.Float64("waste", 0, "waste volume per unit, m3")
		heavy := fs.Bool("heavy", false, "two-person handling")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*code) == "" || *timeHours <= 0 {
			must(fmt.Errorf("--code and a positive --time are required"))
		}
		catalogue.Learn(internal.LearnEvent{
			Code:             *code,
			InstallTimeHours: *timeHours,
			WasteVolumeM3:    *waste,
			IsHeavy:          *heavy,
			Source:           internal.SourceUserInputted,
		})
		fmt.Printf("learned %s: %.2fh/unit\n", *code, *timeHours)
	case "catalogue:alias":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		code := fs.String("code", "", "raw code to alias")
		key := fs.String("key", "", "existing catalogue key")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*code) == "" || strings.TrimSpace(*key) == "" {
			must(fmt.Errorf("--code and --key are required"))
		}
		must(catalogue.AttachAlias(*code, *key))
		fmt.Printf("aliased %s -> %s\n", *code, *key)
	case "quote:resolve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "raw lines path (xlsx|csv|json)")
		output := fs.String("output", "", "optional output xlsx path")
		details := fs.String("details", "", "optional quote details json path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		lines := readLines(*input)
		quoteDetails := readDetails(*details)
		active := rulesService.Current()

		resolver := pipeline.NewResolver(catalogue.Snapshot(), active)
		result := resolver.Resolve(lines, nil, nil)

		for _, u := range result.Unresolved {
			fmt.Printf("unresolved: %s (qty %d) - teach it with catalogue:learn --code=%q --time=...\n", u.ProductCode, u.Quantity, u.ProductCode)
		}

		results := calc.CalculateAll(result.Resolved, quoteDetails, active)
		printValidation(validate.ValidateQuoteDetails(quoteDetails))
		printValidation(validate.ValidateProducts(result.Resolved))
		fmt.Printf("resolved=%d unresolved=%d buffered=%.1fh crew=%d days=%d total=%s\n",
			len(result.Resolved), len(result.Unresolved), results.BufferedHours,
			results.CrewSize, results.TotalDays, results.Price.GrandTotal.StringFixed(2))

		if strings.TrimSpace(*output) != "" {
			target := *output
			if !filepath.IsAbs(target) {
				target = filepath.Join(cfg.OutputDir, target)
			}
			must(pipeline.ExportQuoteToXLSX(result.Resolved, results, target))
			fmt.Printf("exported %d lines to %s\n", len(result.Resolved), target)
		}
	case "quote:calculate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "resolved products json path")
		details := fs.String("details", "", "optional quote details json path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		blob, err := os.ReadFile(*input)
		must(err)
		var products []internal.ResolvedProduct
		must(json.Unmarshal(blob, &products))

		results := calc.CalculateAll(products, readDetails(*details), rulesService.Current())
		encoded, err := json.MarshalIndent(results, "", "  ")
		must(err)
		fmt.Println(string(encoded))
	case "rules:show":
		encoded, err := json.MarshalIndent(rulesService.Current(), "", "  ")
		must(err)
		fmt.Println(string(encoded))
	case "rules:reload":
		must(rulesService.Reload())
		fmt.Println("rules reloaded")
	default:
		usage()
		os.Exit(1)
	}
}

func readLines(path string) []internal.RawLineItem {
	blob, err := os.ReadFile(path)
	must(err)
	lines, err := pipeline.ReadRawLines(path, blob)
	must(err)
	if len(lines) == 0 {
		must(fmt.Errorf("no raw lines found in %s", path))
	}
	return lines
}

func readDetails(path string) internal.QuoteDetails {
	if strings.TrimSpace(path) == "" {
		return internal.QuoteDetails{}
	}
	blob, err := os.ReadFile(path)
	must(err)
	var details internal.QuoteDetails
	must(json.Unmarshal(blob, &details))
	return details
}

func printValidation(errs []internal.ValidationError) {
	for _, e := range errs {
		fmt.Printf("validation: %s: %s\n", e.Field, e.Message)
	}
}

func usage() {
	fmt.Println("usage: fitquote <command>")
	fmt.Println("commands:")
	fmt.Println("  catalogue:import --input=catalogue.xlsx")
	fmt.Println("  catalogue:list")
	fmt.Println("  catalogue:learn --code=... --time=1.5 [--waste=0.2] [--heavy]")
	fmt.Println("  catalogue:alias --code=... --key=...")
	fmt.Println("  quote:resolve --input=lines.xlsx|csv|json [--output=quote.xlsx] [--details=details.json]")
	fmt.Println("  quote:calculate --input=products.json [--details=details.json]")
	fmt.Println("  rules:show")
	fmt.Println("  rules:reload")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
