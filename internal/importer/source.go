package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bahaibot/internal/services"
)

// ReadCSV parses a UTF-8 CSV file with a header row into records. A leading
// byte-order mark is stripped.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrUsage, "source", "open", fmt.Sprintf("'%s' not found", path), nil)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses CSV from r. Rows shorter than the header leave the missing
// columns empty.
func DecodeCSV(r io.Reader) ([]Record, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "read header", "", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for index := 0; ; index++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "source", "read row", fmt.Sprintf("row %d", index+2), err)
		}
		rec := Record{Row: index + 2, Fields: make(map[string]string, len(header))}
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec.Fields[name] = row[i]
			} else {
				rec.Fields[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = []string{single}
	return nil
}

type articleJSON struct {
	Title     string     `json:"title"`
	PageRange string     `json:"page_range"`
	Author    stringList `json:"author"`
	Editor    stringList `json:"editor"`
}

// ReadArticles parses a JSON array of article objects into records with the
// fields title and page_range and the lists author and editor.
func ReadArticles(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrUsage, "source", "open", fmt.Sprintf("'%s' not found", path), nil)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeArticles(data)
}

// DecodeArticles parses the article JSON document. Row numbers are 1-based
// positions in the array.
func DecodeArticles(data []byte) ([]Record, error) {
	var items []articleJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "decode articles", "", err)
	}
	records := make([]Record, 0, len(items))
	for i, item := range items {
		records = append(records, Record{
			Row: i + 1,
			Fields: map[string]string{
				FieldArticleTitle: item.Title,
				FieldPageRange:    item.PageRange,
			},
			Lists: map[string][]string{
				FieldArticleAuthor: item.Author,
				FieldArticleEditor: item.Editor,
			},
		})
	}
	return records, nil
}
