package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"spaces", "Friends gather at the House of Worship", "Friends_gather_at_the_House_of_Worship"},
		{"drops unsafe", "Bahá’í youth: “Service” & unity!", "Bah_youth_Service__unity"},
		{"keeps punctuation", `A (quiet) moment, "near" the shrine.`, `A_(quiet)_moment,_"near"_the_shrine`},
		{"cuts at last underscore", "Participants at a conference in Nairobi discuss the role of youth in society", "Participants_at_a_conference_in_Nairobi_discuss"},
		{"hard truncate", strings.Repeat("A", 64), strings.Repeat("A", 51)},
		{"empty", "ليلة", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.in, 55)
			if got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(got) > 51 {
				t.Fatalf("result too long: %d", len(got))
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"Peter Khan":             "peter_khan",
		"Rúhíyyih Khánum":        "rúhíyyih_khánum",
		"Category:Biographies/1": "category_biographies_1",
		"file-name.v2":           "file-name.v2",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}
