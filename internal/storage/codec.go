package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/dlog/internal/model"
)

// ErrMalformedLine is returned by Parse for a line that is not a record.
var ErrMalformedLine = errors.New("malformed entry line")

// Serialize renders e as one line of the entries file, without a line
// terminator:
//
//	from,to,"activity","project","tag1,tag2","comment"
//
// An entry that is not valid at now serializes to the empty string and must
// not be written.
func Serialize(e model.Entry, now time.Time) string {
	if !e.Valid(now) {
		return ""
	}
	return encode(e)
}

// encode renders e without validating it.
func encode(e model.Entry) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(e.From, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(e.To, 10))
	b.WriteString(`,"`)
	b.WriteString(e.Activity)
	b.WriteString(`","`)
	b.WriteString(e.Project)
	b.WriteString(`","`)
	b.WriteString(strings.Join(model.DedupTags(e.Tags), ","))
	b.WriteString(`","`)
	b.WriteString(e.Comment)
	b.WriteByte('"')
	return b.String()
}

// Parse is the inverse of Serialize. The empty line parses to the null
// entry. Lines written before comments existed end after the tags field and
// parse with an empty comment.
func Parse(line string) (model.Entry, error) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return model.Entry{}, nil
	}

	var e model.Entry
	rest := line

	from, rest, err := parseNumber(rest)
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: from: %v", ErrMalformedLine, err)
	}
	to, rest, err := parseNumber(rest)
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: to: %v", ErrMalformedLine, err)
	}
	e.From, e.To = from, to

	fields := make([]string, 0, 4)
	for {
		var f string
		f, rest, err = quoted(rest)
		if err != nil {
			return model.Entry{}, fmt.Errorf("%w: field %d: %v", ErrMalformedLine, len(fields)+3, err)
		}
		fields = append(fields, f)
		if rest == "" {
			break
		}
		if len(fields) == 4 {
			return model.Entry{}, fmt.Errorf("%w: unexpected data after the comment", ErrMalformedLine)
		}
		if rest[0] != ',' {
			return model.Entry{}, fmt.Errorf("%w: expected ',' after field %d", ErrMalformedLine, len(fields)+2)
		}
		rest = rest[1:]
	}
	if len(fields) < 3 {
		return model.Entry{}, fmt.Errorf("%w: expected at least 5 fields, got %d", ErrMalformedLine, len(fields)+2)
	}

	e.Activity = fields[0]
	e.Project = fields[1]
	if fields[2] != "" {
		e.Tags = model.DedupTags(strings.Split(fields[2], ","))
	}
	if len(fields) == 4 {
		e.Comment = fields[3]
	}
	return e, nil
}

// parseNumber reads a decimal field terminated by a comma.
func parseNumber(s string) (int64, string, error) {
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return 0, "", errors.New("missing ','")
	}
	digits := s[:i]
	if digits == "" {
		return 0, "", errors.New("empty number")
	}
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return 0, "", fmt.Errorf("invalid digit %q", digits[j])
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, "", err
	}
	return n, s[i+1:], nil
}

// quoted reads a "..." field. Fields cannot contain quotes, so the field
// ends at the next quote.
func quoted(s string) (string, string, error) {
	if s == "" || s[0] != '"' {
		return "", "", errors.New(`missing opening '"'`)
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", "", errors.New(`missing closing '"'`)
	}
	return s[1 : end+1], s[end+2:], nil
}
