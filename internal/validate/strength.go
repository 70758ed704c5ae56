package validate

import (
	"fmt"
	"unicode/utf8"
)

type Level string

const (
	LevelWeak   Level = "weak"
	LevelFair   Level = "fair"
	LevelGood   Level = "good"
	LevelStrong Level = "strong"
)

// Requirements lists which strength criteria a password meets.
type Requirements struct {
	Length  bool `json:"length"`
	Upper   bool `json:"upper"`
	Lower   bool `json:"lower"`
	Number  bool `json:"number"`
	Special bool `json:"special"`
}

// Missing describes the unmet requirements in a fixed order.
func (r Requirements) Missing() []string {
	var out []string
	if !r.Length {
		out = append(out, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if !r.Upper {
		out = append(out, "an uppercase letter")
	}
	if !r.Lower {
		out = append(out, "a lowercase letter")
	}
	if !r.Number {
		out = append(out, "a number")
	}
	if !r.Special {
		out = append(out, "a special character")
	}
	return out
}

type Strength struct {
	Score        int          `json:"score"`
	Level        Level        `json:"level"`
	Requirements Requirements `json:"requirements"`
}

// PasswordStrength scores a password one point per satisfied requirement.
func PasswordStrength(password string) Strength {
	req := Requirements{
		Length:  utf8.RuneCountInString(password) >= MinPasswordLength,
		Upper:   upperRe.MatchString(password),
		Lower:   lowerRe.MatchString(password),
		Number:  digitRe.MatchString(password),
		Special: specialRe.MatchString(password),
	}

	score := 0
	for _, ok := range []bool{req.Length, req.Upper, req.Lower, req.Number, req.Special} {
		if ok {
			score++
		}
	}

	level := LevelWeak
	switch {
	case score >= 4:
		level = LevelStrong
	case score == 3:
		level = LevelGood
	case score == 2:
		level = LevelFair
	}

	return Strength{Score: score, Level: level, Requirements: req}
}
