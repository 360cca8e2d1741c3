package report

import (
	"fmt"
	"html/template"
	"os"
	"sort"
)

// WriteHTML renders the self-contained report page. Optional sections
// (entities, clusters, sentiment, recommendations, word cloud) are omitted
// when their data is absent.
func WriteHTML(path string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	defer f.Close()
	if err := htmlTmpl.Execute(f, htmlData(d)); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

type htmlView struct {
	Data
	ClusterIDs []int
	Sentiment  string
}

func htmlData(d Data) htmlView {
	v := htmlView{Data: d, Sentiment: "N/A"}
	if d.Summary.OverallSentiment != nil {
		v.Sentiment = fmt.Sprintf("%.2f", *d.Summary.OverallSentiment)
	}
	for id := range d.Summary.Clusters {
		v.ClusterIDs = append(v.ClusterIDs, id)
	}
	sort.Ints(v.ClusterIDs)
	return v
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<title>SEO gap analysis: {{.Query}}</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 60em; color: #222; }
h1 { border-bottom: 2px solid #1f77b4; padding-bottom: .3em; }
h2 { color: #1f77b4; margin-top: 1.5em; }
table { border-collapse: collapse; margin: .5em 0; }
th, td { border: 1px solid #ccc; padding: .3em .6em; text-align: left; }
th { background: #f0f4f8; }
.meta { color: #666; font-size: .9em; }
.failure { color: #b00; }
pre { background: #f7f7f7; padding: 1em; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>SEO gap analysis: {{.Query}}</h1>
<p class="meta">{{.Timestamp}} &middot; language {{.Language}} &middot; {{.Processed}} of {{.Requested}} results processed{{if .Failures}} &middot; {{len .Failures}} failed{{end}}{{if .CacheUsed}} &middot; cache on{{end}}{{if .ReferenceFile}} &middot; reference: {{.ReferenceFile}}{{end}}</p>

{{if .Summary.Note}}<p><em>{{.Summary.Note}}</em></p>{{end}}

{{if .Summary.TopTerms}}
<h2>Top terms</h2>
<table>
<tr><th>Term</th><th>Score</th></tr>
{{range .Summary.TopTerms}}<tr><td>{{.Term}}</td><td>{{printf "%.4f" .Score}}</td></tr>
{{end}}</table>
{{end}}

{{if .Summary.MissingTerms}}
<h2>Missing terms (vs. reference)</h2>
<ul>
{{range .Summary.MissingTerms}}<li>{{.}}</li>
{{end}}</ul>
{{end}}

{{if .Summary.Entities}}
<h2>Entities</h2>
{{range $label, $ents := .Summary.Entities}}
<h3>{{$label}}</h3>
<table>
<tr><th>Entity</th><th>Count</th></tr>
{{range $ents}}<tr><td>{{.Entity}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}
{{end}}

{{if .ClusterIDs}}
<h2>Keyword clusters</h2>
<ul>
{{$clusters := .Summary.Clusters}}{{range .ClusterIDs}}<li>Cluster {{.}}: {{range $i, $t := index $clusters .}}{{if $i}}, {{end}}{{$t}}{{end}}</li>
{{end}}</ul>
{{end}}

{{if .Summary.SentimentByURL}}
<h2>Sentiment</h2>
<p>Overall: {{.Sentiment}}</p>
<table>
<tr><th>URL</th><th>Score</th></tr>
{{range $url, $score := .Summary.SentimentByURL}}<tr><td>{{$url}}</td><td>{{printf "%.2f" $score}}</td></tr>
{{end}}</table>
{{end}}

{{if .RelatedQuestions}}
<h2>People also ask</h2>
<ul>
{{range .RelatedQuestions}}<li>{{.}}</li>
{{end}}</ul>
{{end}}

{{if .Summary.TopTermsByURL}}
<h2>Top terms per document</h2>
{{range $url, $terms := .Summary.TopTermsByURL}}
<h3>{{$url}}</h3>
<p>{{range $i, $ts := $terms}}{{if $i}}, {{end}}{{$ts.Term}} ({{printf "%.2f" $ts.Score}}){{end}}</p>
{{end}}
{{end}}

{{if .Recommendations}}
<h2>Recommendations</h2>
<pre>{{.Recommendations}}</pre>
{{end}}

{{if .Failures}}
<h2>Failed URLs</h2>
<ul>
{{range .Failures}}<li class="failure">{{.URL}}: {{.Reason}}</li>
{{end}}</ul>
{{end}}

{{if .WordcloudFile}}
<h2>Word cloud</h2>
<img src="{{.WordcloudFile}}" alt="word cloud" width="800" height="400">
{{end}}

</body>
</html>
`))
