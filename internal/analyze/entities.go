package analyze

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const entityCap = 15

// EntityCount pairs an entity (one representative casing) with its aggregate
// occurrence count across documents.
type EntityCount struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
}

// combinedLabels collapses geo-political entities and locations into one
// reporting category.
var combinedLabels = map[string]string{
	"PERSON": "PERSON",
	"ORG":    "ORG",
	"GPE":    "GPE/LOC",
	"LOC":    "GPE/LOC",
}

// aggregateEntities merges per-document entity lists case-insensitively,
// keeping the first-seen casing as the representative, and ranks each
// category's entities by count, capped.
func aggregateEntities(perDoc [][]Entity) map[string][]EntityCount {
	type key struct {
		lower string
		label string
	}
	counts := map[key]int{}
	casing := map[string]string{}
	for _, entities := range perDoc {
		for _, e := range entities {
			label, ok := combinedLabels[e.Label]
			if !ok {
				continue
			}
			lower := strings.ToLower(e.Text)
			counts[key{lower, label}] += e.Count
			if _, seen := casing[lower]; !seen {
				casing[lower] = e.Text
			}
		}
	}

	out := map[string][]EntityCount{}
	for k, n := range counts {
		name := casing[k.lower]
		if name == "" {
			name = k.lower
		}
		out[k.label] = append(out[k.label], EntityCount{Entity: name, Count: n})
	}
	for label, list := range out {
		sort.SliceStable(list, func(a, b int) bool {
			if list[a].Count != list[b].Count {
				return list[a].Count > list[b].Count
			}
			return list[a].Entity < list[b].Entity
		})
		if len(list) > entityCap {
			list = list[:entityCap]
		}
		out[label] = list
	}
	return out
}

// extractEntitiesPerDoc runs NER per document; a single document's failure
// degrades to an empty list for that document only.
func extractEntitiesPerDoc(p *Pipeline, texts []string, urls []string) [][]Entity {
	out := make([][]Entity, len(texts))
	for i, text := range texts {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("url", urls[i]).Any("panic", r).Msg("entity extraction panicked")
				}
			}()
			out[i] = p.Entities(text)
		}()
	}
	return out
}

func sortEntities(entities []Entity) {
	sort.SliceStable(entities, func(a, b int) bool {
		if entities[a].Count != entities[b].Count {
			return entities[a].Count > entities[b].Count
		}
		return entities[a].Text < entities[b].Text
	})
}
