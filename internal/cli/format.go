package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/fatih/color"
)

var tierColors = map[domain.SeverityTier]*color.Color{
	domain.SeverityLow:      color.New(color.FgGreen),
	domain.SeverityModerate: color.New(color.FgYellow),
	domain.SeverityHigh:     color.New(color.FgMagenta, color.Bold),
	domain.SeverityExtreme:  color.New(color.FgRed, color.Bold),
}

// tierLabel renders a tier in its display colour.
func tierLabel(tier domain.SeverityTier) string {
	if c, ok := tierColors[tier]; ok {
		return c.Sprint(string(tier))
	}
	return string(tier)
}

// promptConfirm returns a confirmer that asks on out and reads the answer
// from in. Only "y" or "yes" confirm; anything else, including EOF, refuses.
func promptConfirm(in io.Reader, out io.Writer) basket.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false
		}
		response = strings.TrimSpace(strings.ToLower(response))
		return response == "y" || response == "yes"
	}
}

func printRecord(w io.Writer, rec domain.AnalysisRecord) {
	tier := domain.Classify(rec)
	fmt.Fprintf(w, "Record %d  %s\n", rec.ID, tierLabel(tier))
	fmt.Fprintf(w, "  Municipality:   %s\n", rec.Municipality)
	if rec.Province != "" {
		fmt.Fprintf(w, "  Province:       %s\n", rec.Province)
	}
	fmt.Fprintf(w, "  Added:          %s\n", rec.Timestamp)
	fmt.Fprintf(w, "  Rainfall:       %g mm (%s)\n", rec.SimulatedRainfallMm, domain.RatioSummary(rec))
	fmt.Fprintf(w, "  Recent rain:    %g mm\n", rec.RecentRainfallMm)
	fmt.Fprintf(w, "  Population:     %d\n", rec.PopulationAtRisk)
	fmt.Fprintf(w, "  Crops / built:  %g Ha / %g Ha\n", rec.CropAreaHa, rec.BuiltAreaHa)
	fmt.Fprintf(w, "  Flood area:     %g Ha (high %g, moderate %g, low %g)\n",
		rec.TotalFloodAreaHa, rec.HighRiskAreaHa, rec.ModerateRiskAreaHa, rec.LowRiskAreaHa)
	if rec.MapThumbnailURL != "" {
		fmt.Fprintf(w, "  Map:            %s\n", rec.MapThumbnailURL)
	}
}

func printReport(w io.Writer, fields domain.ReportFields) {
	fmt.Fprintf(w, "FLOOD RISK REPORT: %s\n", fields.Municipality)
	fmt.Fprintf(w, "Generated %s\n\n", fields.GeneratedDate)
	fmt.Fprintf(w, "Severity:    %s\n", tierLabel(fields.Severity))
	fmt.Fprintf(w, "Rainfall:    %s\n", fields.Rainfall)
	fmt.Fprintf(w, "Population:  %s\n", fields.Population)
	fmt.Fprintf(w, "Crop area:   %s\n", fields.CropArea)
	fmt.Fprintf(w, "Built area:  %s\n\n", fields.BuiltArea)
	fmt.Fprintf(w, "%s\n\n", fields.Narrative)
	fmt.Fprintf(w, "Recommendations:\n%s\n", fields.Recommendations)
	if fields.MapURL != "" {
		fmt.Fprintf(w, "\nMap: %s\n", fields.MapURL)
	}
}
