package bvid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var bvPattern = regexp.MustCompile(`(?i)BV[0-9A-Za-z]{10}`)

// Pair holds both encodings of one video.
type Pair struct {
	BVID string `json:"bvid"`
	AID  int64  `json:"aid"`
}

func (p Pair) AV() string {
	return FormatAV(p.AID)
}

// normalize 将前缀恢复为大写 BV 后重新校验
func normalize(match string) (string, bool) {
	candidate := Prefix + match[len(Prefix):]
	if !IsValid(candidate) {
		return "", false
	}
	return candidate, true
}

// Extract returns the first BV identifier found in text. A substring that has
// the right shape but contains symbols outside the alphabet counts as no match.
func Extract(text string) (string, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return "", false
	}
	match := bvPattern.FindString(raw)
	if match == "" {
		return "", false
	}
	return normalize(match)
}

// ExtractAll returns every valid identifier in text, in order, without duplicates.
func ExtractAll(text string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, match := range bvPattern.FindAllString(text, -1) {
		id, ok := normalize(match)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ParseAV accepts "av170001", "AV170001" or "170001".
func ParseAV(s string) (int64, error) {
	raw := strings.TrimSpace(s)
	if len(raw) >= len(AVPrefix) && strings.EqualFold(raw[:len(AVPrefix)], AVPrefix) {
		raw = raw[len(AVPrefix):]
	}
	// ParseInt 允许前导 +，这里只接受纯数字
	if strings.HasPrefix(raw, "+") {
		return 0, errors.Wrapf(ErrInvalidNumericID, "parse %q", s)
	}
	aid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidNumericID, "parse %q", s)
	}
	if aid < 0 {
		return 0, errors.Wrapf(ErrInvalidNumericID, "parse %q: negative", s)
	}
	return aid, nil
}

func looksLikeAV(s string) bool {
	if len(s) >= len(AVPrefix) && strings.EqualFold(s[:len(AVPrefix)], AVPrefix) {
		s = s[len(AVPrefix):]
	}
	if s == "" {
		return false
	}
	return s[0] == '-' || s[0] == '+' || (s[0] >= '0' && s[0] <= '9')
}

// Resolve accepts a BV identifier (or text containing one) or an AV number
// and returns both encodings.
func Resolve(input string) (Pair, error) {
	s := strings.TrimSpace(input)
	if id, ok := Extract(s); ok {
		aid, err := Decode(id)
		if err != nil {
			return Pair{}, err
		}
		return Pair{BVID: id, AID: aid}, nil
	}
	if looksLikeAV(s) {
		aid, err := ParseAV(s)
		if err != nil {
			return Pair{}, err
		}
		id, err := Encode(aid)
		if err != nil {
			return Pair{}, err
		}
		return Pair{BVID: id, AID: aid}, nil
	}
	return Pair{}, errors.Wrapf(ErrNotFound, "resolve %q", input)
}
