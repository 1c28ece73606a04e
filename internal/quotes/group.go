package quotes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Abbreviations maps library keywords to the citation abbreviations used by
// the {{q}} template.
var Abbreviations = parseAbbreviations(`
days-remembrance DR
epistle-son-wolf ESW
gems-divine-mysteries GDM
gleanings-writings-bahaullah GWB
hidden-words HW
kitab-i-aqdas KA
kitab-i-iqan KI
prayers-meditations-bahaullah PM
call-divine-beloved CDB
summons-lord-hosts SLH
tabernacle-unity TU
tablets-bahaullah TB
additional-prayers-revealed-bahaullah APB
additional-tablets-extracts-from-tablets-revealed-bahaullah ATB
selections-writings-bab SWB
memorials-faithful MF
light-of-the-world LW
paris-talks PT
promulgation-universal-peace PUP
secret-divine-civilization SDC
selections-writings-abdul-baha SWAB
some-answered-questions SAQ
tablet-auguste-forel TAF
tablets-divine-plan TDP
tablets-hague-abdul-baha TTH
travelers-narrative TN
twelve-table-talks-abdul-baha TTT
will-testament-abdul-baha WT
prayers-abdul-baha TPR
additional-tablets-extracts-talks-abdul-baha ATET
additional-prayers-revealed-abdul-baha APR
`)

func parseAbbreviations(table string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(table, "\n") {
		if keyword, abbreviation, ok := strings.Cut(strings.TrimSpace(line), " "); ok {
			out[keyword] = abbreviation
		}
	}
	return out
}

// Section is one heading with its quote templates, in file order.
type Section struct {
	Title string
	Lines []string
}

// Skip records a result file that contributed nothing.
type Skip struct {
	File   string
	Reason string
}

// Report describes a Group run.
type Report struct {
	Files  int
	Quotes int
	Skips  []Skip
}

// Template renders one quote as {{q|text|location |ABBR }}.
func Template(q Quote, abbreviation string) string {
	return fmt.Sprintf("{{q|%s|%s |%s }}", q.Quote, q.Location, abbreviation)
}

// KeywordFromFile returns the part of a result file name after the first
// underscore, without the .txt extension.
func KeywordFromFile(name string) (string, bool) {
	base, ok := strings.CutSuffix(name, ".txt")
	if !ok {
		return "", false
	}
	idx := strings.Index(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return "", false
	}
	return base[idx+1:], true
}

// Group reads every .txt result file in dir and collects quotes by title.
// Titles keep the order in which they first appear; files are read in name
// order. Files without a known keyword, with malformed JSON, or without quotes
// are reported as skips.
func Group(dir string, abbreviations map[string]string) ([]Section, Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read quote directory: %w", err)
	}
	var (
		report   Report
		sections []Section
		index    = make(map[string]int)
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		report.Files++
		keyword, ok := KeywordFromFile(name)
		if !ok {
			report.Skips = append(report.Skips, Skip{File: name, Reason: "invalid file name"})
			continue
		}
		abbreviation, ok := abbreviations[keyword]
		if !ok {
			report.Skips = append(report.Skips, Skip{File: name, Reason: "no abbreviation for " + keyword})
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, report, fmt.Errorf("read %s: %w", name, err)
		}
		var quotes []Quote
		if err := json.Unmarshal(data, &quotes); err != nil {
			report.Skips = append(report.Skips, Skip{File: name, Reason: "malformed JSON"})
			continue
		}
		if len(quotes) == 0 {
			report.Skips = append(report.Skips, Skip{File: name, Reason: "empty"})
			continue
		}
		for _, q := range quotes {
			pos, seen := index[q.Title]
			if !seen {
				pos = len(sections)
				index[q.Title] = pos
				sections = append(sections, Section{Title: q.Title})
			}
			sections[pos].Lines = append(sections[pos].Lines, Template(q, abbreviation))
			report.Quotes++
		}
	}
	return sections, report, nil
}

// Render formats sections as level-four headings followed by their templates.
func Render(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString("====")
		b.WriteString(s.Title)
		b.WriteString("====\n")
		b.WriteString(strings.Join(s.Lines, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}
