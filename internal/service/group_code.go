package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// majorCode abbreviates a major name to two uppercase letters: the initials of the first two
// words, else the first two letters, else XX.
func majorCode(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	if len(words) >= 2 {
		first := []rune(words[0])
		second := []rune(words[1])
		return strings.ToUpper(string(first[0]) + string(second[0]))
	}

	if len(words) == 1 {
		letters := []rune(words[0])
		if len(letters) >= 2 {
			return strings.ToUpper(string(letters[:2]))
		}
	}

	return "XX"
}

func yearSuffix(now time.Time) string {
	return fmt.Sprintf("%02d", now.Year()%100)
}

// manualGroupPrefix builds the G{YY}{MAJ} prefix used by student-created groups.
func manualGroupPrefix(now time.Time, majorName string) string {
	return "G" + yearSuffix(now) + majorCode(majorName)
}

// autoGroupPrefix builds the G-{YY}-{MAJ}- prefix used by randomized groups.
func autoGroupPrefix(now time.Time, majorName string) string {
	return "G-" + yearSuffix(now) + "-" + majorCode(majorName) + "-"
}

// nextGroupSequence returns one past the highest numeric suffix among codes sharing prefix.
func nextGroupSequence(codes []string, prefix string) int {
	highest := 0
	for _, code := range codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
		if err != nil {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return highest + 1
}

func formatGroupCode(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}
