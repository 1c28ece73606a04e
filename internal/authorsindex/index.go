package authorsindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bahaibot/internal/logging"
	"bahaibot/internal/services"
)

// CategoryPrefix names the per-letter author categories.
const CategoryPrefix = "Authors-"

// Lister lists the titles in a category.
type Lister interface {
	CategoryMembers(ctx context.Context, category, namespace string) ([]string, error)
}

var (
	connectors = map[string]bool{"de": true, "dos": true, "da": true, "do": true, "von": true, "van": true, "den": true}
	suffixes   = map[string]bool{"Jr.": true, "Sr.": true, "III": true, "II": true}
)

// SortName turns "First Middle Last" into "Last, First Middle". A connector
// such as "van" starts the surname, and a suffix such as "Jr." stays with the
// word before it.
func SortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	split := len(parts) - 1
	if i := indexOf(parts, func(p string) bool { return connectors[strings.ToLower(p)] }); i >= 0 {
		split = i
	} else if i := indexOf(parts, func(p string) bool { return suffixes[p] }); i > 0 {
		split = i - 1
		last := strings.Join(parts[split:i+1], " ")
		return joinName(last, parts[:split])
	}
	return joinName(strings.Join(parts[split:], " "), parts[:split])
}

func joinName(last string, first []string) string {
	if len(first) == 0 {
		return last
	}
	return last + ", " + strings.Join(first, " ")
}

func indexOf(parts []string, match func(string) bool) int {
	for i, p := range parts {
		if match(p) {
			return i
		}
	}
	return -1
}

// Letters returns A through Z for an empty argument, or the single letter arg
// upper-cased.
func Letters(arg string) ([]string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		letters := make([]string, 0, 26)
		for r := 'A'; r <= 'Z'; r++ {
			letters = append(letters, string(r))
		}
		return letters, nil
	}
	upper := strings.ToUpper(arg)
	if len(upper) != 1 || upper[0] < 'A' || upper[0] > 'Z' {
		return nil, services.Wrap(services.ErrUsage, "authors-index", "letters", fmt.Sprintf("'%s' is not a single letter", arg), nil)
	}
	return []string{upper}, nil
}

// LoadExclusions reads one page title per non-blank line. A missing file means
// nothing is excluded.
func LoadExclusions(path string) (map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]bool{}, false, nil
		}
		return nil, false, fmt.Errorf("read exclusion list: %w", err)
	}
	out := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out[line] = true
		}
	}
	return out, true, nil
}

// Letter is the outcome for one category.
type Letter struct {
	Letter   string
	Category string
	Members  []string
	Excluded int
	Err      error
}

// Index collects author categories from a wiki.
type Index struct {
	Wiki    Lister
	Exclude map[string]bool
	Logger  *slog.Logger
}

// Collect lists each letter's category in order. A failed category is recorded
// on its Letter and the run continues; only cancellation stops it early.
func (x Index) Collect(ctx context.Context, letters []string) ([]Letter, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(x.Logger, "authors-index"))
	out := make([]Letter, 0, len(letters))
	for _, letter := range letters {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := Letter{Letter: letter, Category: "Category:" + CategoryPrefix + letter}
		titles, err := x.Wiki.CategoryMembers(ctx, res.Category, "")
		if err != nil {
			res.Err = err
			logging.WarnWithContext(logger, "category listing failed", "authors_category_failed",
				logging.String("category", res.Category),
				logging.Error(err),
				logging.String(logging.FieldImpact, "letter left out of the index"))
			out = append(out, res)
			continue
		}
		res.Members = titles
		for _, title := range titles {
			if x.Exclude[title] {
				res.Excluded++
			}
		}
		logger.Info("category processed",
			logging.String("category", res.Category),
			logging.Int("members", len(titles)),
			logging.Int("excluded", res.Excluded))
		out = append(out, res)
	}
	return out, nil
}

// Render writes the listing in category order. The formatted layout gives each
// non-empty letter a heading followed by links labelled with SortName; plain
// lists the included titles one per line.
func Render(letters []Letter, exclude map[string]bool, plain bool) string {
	var b strings.Builder
	for _, l := range letters {
		if l.Err != nil || len(l.Members) == 0 {
			continue
		}
		if !plain {
			fmt.Fprintf(&b, "==== %s ====\n", l.Letter)
		}
		for _, member := range l.Members {
			if exclude[member] {
				continue
			}
			if plain {
				b.WriteString(member + "\n")
				continue
			}
			name := member
			if _, after, ok := strings.Cut(member, ":"); ok {
				name = after
			}
			fmt.Fprintf(&b, "* [[%s|%s]]\n", member, SortName(name))
		}
		if !plain {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
