package normalize

import (
	"testing"
	"time"

	"github.com/plumsage/ledgerlink/internal/model"
)

func testRecord() model.TransactionRecord {
	return model.TransactionRecord{
		CustomerName: "Dr. Sarah Johnson",
		Phone:        "(555) 123-4567",
		Email:        "Sarah@Example.com",
		Service:      "Botox",
		Amount:       "$450.00",
		Timestamp:    "2025-03-15T14:30:00Z",
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "simple lowercase",
			raw:  "Sarah Johnson",
			want: "sarah johnson",
		},
		{
			name: "last comma first reordered",
			raw:  "Johnson, Sarah",
			want: "sarah johnson",
		},
		{
			name: "honorific stripped",
			raw:  "Dr. Sarah Johnson",
			want: "sarah johnson",
		},
		{
			name: "suffix stripped",
			raw:  "Robert Smith Jr.",
			want: "robert smith",
		},
		{
			name: "credential suffix stripped",
			raw:  "Amanda Lee RN",
			want: "amanda lee",
		},
		{
			name: "apostrophe removed",
			raw:  "O'Brien, Patrick",
			want: "patrick obrien",
		},
		{
			name: "hyphen becomes space",
			raw:  "Mary-Anne Clark",
			want: "mary anne clark",
		},
		{
			name: "whitespace collapsed",
			raw:  "  Sarah   Johnson  ",
			want: "sarah johnson",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.raw); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "formatted us number", raw: "(555) 123-4567", want: "5551234567"},
		{name: "country code", raw: "+1 555 123 4567", want: "15551234567"},
		{name: "dots", raw: "555.123.4567", want: "5551234567"},
		{name: "already digits", raw: "5551234567", want: "5551234567"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phone(tt.raw); got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLastDigits(t *testing.T) {
	if got := LastDigits("15551234567", 10); got != "5551234567" {
		t.Errorf("LastDigits trailing 10 = %q", got)
	}
	if got := LastDigits("1234567", 10); got != "1234567" {
		t.Errorf("LastDigits short input = %q", got)
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "plain", raw: "450.00", want: 450, wantOK: true},
		{name: "currency symbol", raw: "$450.00", want: 450, wantOK: true},
		{name: "thousands separator", raw: "$1,250.50", want: 1250.50, wantOK: true},
		{name: "accounting negative", raw: "(45.00)", want: -45, wantOK: true},
		{name: "explicit negative", raw: "-45.00", want: -45, wantOK: true},
		{name: "whitespace", raw: " 45 ", want: 45, wantOK: true},
		{name: "garbage", raw: "free", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Amount(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Amount(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Amount(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "rfc3339",
			raw:    "2025-03-15T14:30:00Z",
			want:   time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separated",
			raw:    "2025-03-15 14:30:00",
			want:   time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			raw:    "2025-03-15",
			want:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "us slash format",
			raw:    "03/15/2025",
			want:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "unparsable",
			raw:    "next tuesday",
			wantOK: false,
		},
		{
			name:   "empty",
			raw:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Timestamp(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Timestamp(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Timestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"sarah@example.com", "example.com"},
		{"sarah@", ""},
		{"no-at-sign", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EmailDomain(tt.email); got != tt.want {
			t.Errorf("EmailDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestSortedTokens(t *testing.T) {
	in := []string{"rhea", "sarah", "anne"}
	got := SortedTokens(in)

	want := []string{"anne", "rhea", "sarah"}
	if len(got) != len(want) {
		t.Fatalf("SortedTokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedTokens() = %v, want %v", got, want)
		}
	}
	if in[0] != "rhea" {
		t.Error("input slice mutated")
	}
}

func TestRecordProjection(t *testing.T) {
	rec := testRecord()
	n := Record(rec)

	if n.Name != "sarah johnson" {
		t.Errorf("Name = %q", n.Name)
	}
	if len(n.NameTokens) != 2 {
		t.Errorf("NameTokens = %v", n.NameTokens)
	}
	if n.PhoneDigits != "5551234567" {
		t.Errorf("PhoneDigits = %q", n.PhoneDigits)
	}
	if n.EmailDomain != "example.com" {
		t.Errorf("EmailDomain = %q", n.EmailDomain)
	}
	if !n.AmountValid || n.Amount != 450 {
		t.Errorf("Amount = %v valid=%v", n.Amount, n.AmountValid)
	}
	if !n.TimestampValid {
		t.Error("TimestampValid = false")
	}
}
