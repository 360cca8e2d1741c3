package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ptoivan/serpgap/internal/analyze"
	"github.com/ptoivan/serpgap/internal/report"
)

// writeArtifacts fans the run out into the selected formats. Every writer is
// independent: one artifact failing is logged and the rest still land. The
// summary JSON is written regardless of format so there is always a machine-
// readable record of the run.
func writeArtifacts(cfg Config, base string, data report.Data, analysis *analyze.Analysis) map[string]string {
	outputs := map[string]string{}
	wants := func(format string) bool {
		return cfg.OutFormat == format || cfg.OutFormat == "all"
	}

	if wants("csv") {
		path := base + "_tfidf.csv"
		if analysis.Matrix == nil || len(analysis.Matrix.Terms) == 0 {
			log.Warn().Msg("skipping CSV, no matrix data")
		} else if err := report.WriteTFIDFCSV(path, analysis.Matrix, analysis.URLs); err != nil {
			log.Error().Err(err).Msg("writing CSV failed")
		} else {
			outputs["tfidf_csv"] = path
		}
	}

	path := base + "_summary.json"
	if err := report.WriteSummaryJSON(path, report.NewRunSummary(data)); err != nil {
		log.Error().Err(err).Msg("writing summary JSON failed")
	} else {
		outputs["summary_json"] = path
	}

	if usableRecommendations(data.Recommendations) {
		path := base + "_recommendations.txt"
		if err := report.WriteRecommendationsTXT(path, data.Query, data.Timestamp, data.Recommendations); err != nil {
			log.Error().Err(err).Msg("writing recommendations failed")
		} else {
			outputs["recommendations_txt"] = path
		}
	}

	if wants("html") {
		path := base + "_report.html"
		if err := report.WriteHTML(path, data); err != nil {
			log.Error().Err(err).Msg("writing HTML report failed")
		} else {
			outputs["report_html"] = path
		}
	}

	if cfg.EnablePDF {
		path := base + "_report.pdf"
		if err := report.WritePDF(path, data); err != nil {
			log.Error().Err(err).Msg("writing PDF report failed")
		} else {
			outputs["report_pdf"] = path
		}
	}

	if data.WordcloudFile != "" {
		outputs["wordcloud_png"] = base + "_wordcloud.png"
	}
	return outputs
}

// usableRecommendations filters out skip notices and failure strings so only
// a real brief gets its own artifact.
func usableRecommendations(text string) bool {
	return text != "" && !strings.HasPrefix(text, "Error") && !strings.HasPrefix(text, "Skipped")
}
