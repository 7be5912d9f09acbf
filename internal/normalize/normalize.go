// Package normalize canonicalizes raw transaction record fields into
// comparable forms. Every function is pure and total: malformed input
// degrades to a zero value plus a validity flag, never an error.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plumsage/ledgerlink/internal/model"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	amountJunkRe = regexp.MustCompile(`[$,\s]`)
)

// Honorifics and suffixes stripped from customer names. Medical-spa POS
// exports frequently carry practitioner credentials on client names.
var nameNoise = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true, "prof": true,
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"md": true, "dds": true, "rn": true, "np": true, "pa": true,
}

// timestampFormats is the ordered list of accepted layouts; first parse
// success wins.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"Jan 2, 2006",
}

// Record computes the full normalized projection of a transaction record.
// Callers should compute this once per record per job and reuse it.
func Record(rec model.TransactionRecord) model.NormalizedFields {
	name := Name(rec.CustomerName)
	amount, amountOK := Amount(rec.Amount)
	ts, tsOK := Timestamp(rec.Timestamp)
	email := strings.ToLower(strings.TrimSpace(rec.Email))

	return model.NormalizedFields{
		Name:           name,
		NameTokens:     strings.Fields(name),
		PhoneDigits:    Phone(rec.Phone),
		Email:          email,
		EmailDomain:    EmailDomain(email),
		Service:        strings.ToLower(strings.TrimSpace(rec.Service)),
		Amount:         amount,
		AmountValid:    amountOK,
		Timestamp:      ts,
		TimestampValid: tsOK,
	}
}

// Name canonicalizes a customer name: lowercase, collapsed whitespace,
// honorifics and suffixes stripped, and "Last, First" reordered to
// "First Last" so comma-style POS names compare against rewards names.
func Name(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if idx := strings.Index(s, ","); idx >= 0 {
		last := strings.TrimSpace(s[:idx])
		first := strings.TrimSpace(s[idx+1:])
		s = first + " " + last
	}

	s = strings.NewReplacer(".", " ", "'", "", "-", " ").Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if nameNoise[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	return strings.Join(kept, " ")
}

// Phone reduces a phone number to its digits. Callers compare full
// strings first and fall back to the trailing 10 digits.
func Phone(raw string) string {
	return nonDigitRe.ReplaceAllString(raw, "")
}

// LastDigits returns the trailing n digits of a normalized phone number,
// or the whole string when it is shorter than n.
func LastDigits(digits string, n int) string {
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// Amount parses a monetary value, tolerating currency symbols and
// thousands separators. Unparsable values yield (0, false); the caller
// records that as a reliability penalty rather than failing the pair.
func Amount(raw string) (float64, bool) {
	cleaned := amountJunkRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return 0, false
	}

	// Accounting-style negatives: (45.00)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Timestamp parses against the ordered accepted formats. Failure yields
// the zero time and false, which forces the timing component to 0.
func Timestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// EmailDomain extracts the lowercase domain of an email address, or ""
// when the address has no domain.
func EmailDomain(email string) string {
	at := strings.Index(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// SortedTokens returns the tokens of a normalized name in sorted order.
// Used by token-sort similarity.
func SortedTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	sort.Strings(out)
	return out
}
