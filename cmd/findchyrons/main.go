package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/chyron"
	"github.com/richmondsunlight/chyrons/internal/config"
	"github.com/richmondsunlight/chyrons/internal/source"
)

// findchyrons runs region detection on a single frame and writes the frame
// with every detected box outlined. Useful when tuning color_range and
// min_region_size for a new broadcast layout.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: findchyrons <image> <output>")
		os.Exit(1)
	}
	input, output := os.Args[1], os.Args[2]

	cfg, err := config.Load(os.Getenv("CHYRONS_CONFIG"))
	if err != nil {
		log.Fatalf("[!] config: %v", err)
	}

	detector, err := analyzer.NewDetector(cfg.Detector, analyzer.Options{
		Range: analyzer.HSVRange{
			Lower: analyzer.HSV(cfg.ColorRange.Lower),
			Upper: analyzer.HSV(cfg.ColorRange.Upper),
		},
		MinWidth:  cfg.MinRegionSize.Width,
		MinHeight: cfg.MinRegionSize.Height,
	})
	if err != nil {
		log.Fatalf("[!] %v", err)
	}

	img, err := source.Load(source.Frame{Path: input})
	if err != nil {
		log.Fatalf("[!] %v", err)
	}

	rects, err := detector.Detect(img)
	if err != nil {
		log.Fatalf("[!] detect: %v", err)
	}

	labels := make([]string, len(rects))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Rect", "Type", "Mean blue"})
	for i, r := range rects {
		typ := chyron.Classify(r.Y, cfg.ClassifyCutoff)
		labels[i] = string(typ)
		mean := analyzer.AverageColor(img, r)
		t.AppendRow(table.Row{i, r.String(), typ, fmt.Sprintf("%.1f", mean.B)})
	}
	t.Render()

	if err := analyzer.SaveAnnotated(output, img, rects, labels); err != nil {
		log.Fatalf("[!] save %s: %v", output, err)
	}
	fmt.Printf("[*] %d regions written to %s\n", len(rects), output)
}
