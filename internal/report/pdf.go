package report

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the report as a minimal PDF. Sections are composed as
// Markdown-ish lines and laid out line by line; links inside the
// recommendations text become clickable. This is intentionally simple and
// does not perform full Markdown layout.
func WritePDF(path string, d Data) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	linkRe := regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

	scanner := bufio.NewScanner(strings.NewReader(pdfBody(d)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, s, "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			if m[0] > pos {
				pdf.Write(5, s[pos:m[0]])
			}
			text := s[m[2]:m[3]]
			url := s[m[4]:m[5]]
			if strings.HasPrefix(url, "#") {
				pdf.Write(5, text)
			} else {
				pdf.WriteLinkString(5, text, url)
			}
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, s[pos:])
		}
		pdf.Ln(6)
	}

	return pdf.OutputFileAndClose(path)
}

func pdfBody(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# SEO gap analysis: %s\n\n", d.Query)
	fmt.Fprintf(&b, "%s, language %s, %d of %d results processed, %d failed\n\n",
		d.Timestamp, d.Language, d.Processed, d.Requested, len(d.Failures))

	if d.Summary.Note != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Summary.Note)
	}

	if len(d.Summary.TopTerms) > 0 {
		b.WriteString("## Top terms\n\n")
		for _, ts := range d.Summary.TopTerms {
			fmt.Fprintf(&b, "%s (%.4f)\n", ts.Term, ts.Score)
		}
		b.WriteString("\n")
	}

	if len(d.Summary.MissingTerms) > 0 {
		b.WriteString("## Missing terms (vs. reference)\n\n")
		b.WriteString(strings.Join(d.Summary.MissingTerms, ", "))
		b.WriteString("\n\n")
	}

	if len(d.Summary.Entities) > 0 {
		b.WriteString("## Entities\n\n")
		labels := make([]string, 0, len(d.Summary.Entities))
		for label := range d.Summary.Entities {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			parts := make([]string, 0, len(d.Summary.Entities[label]))
			for _, e := range d.Summary.Entities[label] {
				parts = append(parts, fmt.Sprintf("%s (%dx)", e.Entity, e.Count))
			}
			fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}

	if len(d.Summary.Clusters) > 0 {
		b.WriteString("## Keyword clusters\n\n")
		ids := make([]int, 0, len(d.Summary.Clusters))
		for id := range d.Summary.Clusters {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "Cluster %d: %s\n", id, strings.Join(d.Summary.Clusters[id], ", "))
		}
		b.WriteString("\n")
	}

	if d.Summary.OverallSentiment != nil {
		fmt.Fprintf(&b, "## Sentiment\n\nOverall: %.2f\n\n", *d.Summary.OverallSentiment)
	}

	if len(d.RelatedQuestions) > 0 {
		b.WriteString("## People also ask\n\n")
		for _, q := range d.RelatedQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
		b.WriteString("\n")
	}

	if d.Recommendations != "" {
		b.WriteString("## Recommendations\n\n")
		b.WriteString(d.Recommendations)
		b.WriteString("\n\n")
	}

	if len(d.Failures) > 0 {
		b.WriteString("## Failed URLs\n\n")
		for _, f := range d.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.URL, f.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}
