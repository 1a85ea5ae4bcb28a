package services

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/lojf/ministry/internal/apperr"
	"github.com/lojf/ministry/internal/models"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// Only allow digits, spaces, +, -, (, )
	reAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)]+$`)
	// E.164: + followed by 8..15 digits (no leading 0 after +)
	reE164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// DefaultCountryCode is used for numbers written in local (0-prefixed) form.
const DefaultCountryCode = "62"

// NormPhone normalizes p to E.164. Local numbers take country code cc.
// It returns "" when p cannot be a phone number.
// Rules: strip spaces/dashes/parens; 00.. -> +..; cc.. -> +cc..; 0.. -> +cc..
func NormPhone(p, cc string) string {
	s := strings.TrimSpace(p)
	if s == "" || reLetters.MatchString(s) || !reAllowed.MatchString(s) {
		return ""
	}

	repl := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\n", "", "\r", "")
	s = repl.Replace(s)

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case cc != "" && strings.HasPrefix(s, cc):
		s = "+" + s
	case cc != "" && strings.HasPrefix(s, "0"):
		s = "+" + cc + s[1:]
	default:
		s = "+" + s
	}
	if !reE164.MatchString(s) {
		return ""
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// altPhones lists the spellings a number may have been stored under.
func altPhones(p, cc string) []string {
	out := []string{}
	n := NormPhone(p, cc)
	raw := strings.TrimSpace(p)

	if n != "" {
		out = append(out, n)
	}
	if raw != n && raw != "" {
		out = append(out, raw)
	}
	if cc != "" && strings.HasPrefix(n, "+"+cc) && len(n) > len(cc)+1 {
		out = append(out, "0"+n[len(cc)+1:]) // 0811...
		out = append(out, n[1:])             // 62811...
	}
	return out
}

// FindParticipantByPhone tries the normalized variants of phone and then a
// digits-only compare in SQL.
func (c *Catalog) FindParticipantByPhone(ctx context.Context, orgID, phone string) (models.Participant, error) {
	var p models.Participant
	tx := c.db.WithContext(ctx)

	for _, cand := range altPhones(phone, c.CountryCode) {
		err := tx.Where("organization_id = ? AND phone = ?", orgID, cand).Take(&p).Error
		if err == nil {
			return p, nil
		}
		if apperr.CodeOf(apperr.Read("participant", err)) != apperr.CodeNotFound {
			return models.Participant{}, apperr.Read("participant", err)
		}
	}

	if in := digitsOnly(phone); in != "" {
		q := `REPLACE(REPLACE(REPLACE(REPLACE(REPLACE(phone,'+',''),' ',''),'-',''),'(',''),')','')`
		err := tx.Where("organization_id = ? AND "+q+" = ?", orgID, in).Take(&p).Error
		return p, apperr.Read("participant", err)
	}
	return models.Participant{}, apperr.New(apperr.CodeNotFound, "participant not found")
}
