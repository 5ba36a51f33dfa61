package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
	"github.com/richmondsunlight/chyrons/internal/chyron"
	"github.com/richmondsunlight/chyrons/internal/system"
)

// Report summarizes one run.
type Report struct {
	VideoID   int64
	Extracted int // frames written by ffmpeg this run, 0 when reused
	Frames    int
	Skipped   int
	Regions   []analyzer.Rect
	Cutoff    int // classification cutoff the regions were labelled with
	Records   int
	Empty     int // records whose OCR text was empty
	Elapsed   time.Duration
	RSS       uint64
}

func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("video %d", r.VideoID))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Frames", r.Frames})
	t.AppendRow(table.Row{"Skipped files", r.Skipped})
	if r.Extracted > 0 {
		t.AppendRow(table.Row{"Extracted", r.Extracted})
	}
	for i, reg := range r.Regions {
		t.AppendRow(table.Row{fmt.Sprintf("Region %d (%s)", i, chyron.Classify(reg.Y, r.Cutoff)), reg.String()})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Records", r.Records})
	t.AppendRow(table.Row{"Empty OCR", r.Empty})
	t.AppendRow(table.Row{"Elapsed", r.Elapsed.Round(time.Millisecond)})
	if r.RSS > 0 {
		t.AppendRow(table.Row{"RSS", system.FormatBytes(r.RSS)})
	}
	t.Render()
}
