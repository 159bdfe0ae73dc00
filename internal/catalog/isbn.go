package catalog

import "strings"

// CleanISBN strips separators and validates the check digit. It returns the
// ISBN-13 form, converting ISBN-10 input, or "" when the value is invalid.
func CleanISBN(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	v := b.String()
	switch len(v) {
	case 13:
		if validISBN13(v) {
			return v
		}
	case 10:
		if validISBN10(v) {
			return ISBN10To13(v)
		}
	}
	return ""
}

// ISBN10To13 converts a valid ISBN-10 to ISBN-13. Invalid input yields "".
func ISBN10To13(isbn10 string) string {
	if len(isbn10) != 10 || !validISBN10(isbn10) {
		return ""
	}
	base := "978" + isbn10[:9]
	return base + string(rune('0'+isbn13Check(base)))
}

func validISBN10(v string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := v[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(v string) bool {
	for i := 0; i < 13; i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return isbn13Check(v[:12]) == int(v[12]-'0')
}

func isbn13Check(first12 string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
