package payroll

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schollz/closestmatch"

	"github.com/thinhvd77/Tax/internal/model"
)

// collisionWarnings reports keys that several distinct rows normalized to.
// Nothing is merged or split automatically; the rows are only flagged.
func collisionWarnings(payrollKeys map[model.NormalizedKey][]string, src Sources) []model.Warning {
	var out []model.Warning

	keys := make([]model.NormalizedKey, 0, len(payrollKeys))
	for k, names := range payrollKeys {
		if len(names) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		out = append(out, model.Warning{
			Kind:    model.WarnNameCollision,
			Source:  "payroll",
			Key:     k,
			Names:   payrollKeys[k],
			Message: fmt.Sprintf("%d payroll rows share the name key %q; side-source amounts are applied to each of them", len(payrollKeys[k]), k),
		})
	}

	add := func(source string, cs []model.Collision) {
		for _, c := range cs {
			out = append(out, model.Warning{
				Kind:    model.WarnNameCollision,
				Source:  source,
				Key:     c.Key,
				Names:   c.Names,
				Message: fmt.Sprintf("%d rows in %s share the name key %q; only the last one is used", len(c.Names), source, c.Key),
			})
		}
	}
	for _, b := range src.Bonuses {
		add(b.Title, b.Amounts.Collisions())
	}
	add("dependents", src.Dependents.Collisions())
	add("retro", src.Retro.Collisions())
	return out
}

// misspellingWarnings suggests the nearest payroll name for each no-contract person
// when the two names share all but one word.
func misspellingWarnings(payrollKeys map[model.NormalizedKey][]string, noContract []model.Row) []model.Warning {
	if len(payrollKeys) == 0 || len(noContract) == 0 {
		return nil
	}
	candidates := make([]string, 0, len(payrollKeys))
	for k := range payrollKeys {
		candidates = append(candidates, string(k))
	}
	cm := closestmatch.New(candidates, []int{2, 3})

	var out []model.Warning
	for _, r := range noContract {
		suggestion := cm.Closest(string(r.Key))
		if suggestion == "" || !nearName(string(r.Key), suggestion) {
			continue
		}
		out = append(out, model.Warning{
			Kind:       model.WarnPossibleMisspelling,
			Key:        r.Key,
			Names:      []string{r.Name},
			Suggestion: payrollKeys[model.NormalizedKey(suggestion)][0],
			Message:    fmt.Sprintf("%q is not on the payroll; did you mean %q?", r.Name, payrollKeys[model.NormalizedKey(suggestion)][0]),
		})
	}
	return out
}

// nearName true when a and b have the same word count and differ in at most one word
func nearName(a, b string) bool {
	wa, wb := strings.Fields(a), strings.Fields(b)
	if len(wa) != len(wb) || len(wa) < 2 {
		return false
	}
	diff := 0
	for i := range wa {
		if wa[i] != wb[i] {
			diff++
		}
	}
	return diff <= 1
}
