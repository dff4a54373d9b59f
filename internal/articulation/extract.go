package articulation

import "strings"

const (
	// fromMarker introduces the institution/year line of an agreement
	// document ("From: Santa Monica College 2021-2022 ...").
	fromMarker = "From:"

	// arrowMarker is the byte sequence lossy PDF decoding leaves in place
	// of the arrow glyph separating a course row from its articulation.
	// It must stay the decoded artifact, not the true arrow character.
	arrowMarker = "â†"

	// windowSize is how many characters after the arrow are classified.
	windowSize = 30
)

// negativePhrases inside the classification window mean the course row
// explicitly denies articulation.
var negativePhrases = []string{
	"No Course Articulated",
	"No Comparable Course",
	"Course(s) Denied",
}

// Result is the structured verdict extracted from one document.
type Result struct {
	InstitutionName string
	IsArticulated   bool
	ArticulatedText string
}

// Extract scans an agreement document's text for an articulation of
// courseCode. It is pure and deterministic: a missing course or a denial
// phrase yields IsArticulated=false, never an error.
func Extract(documentText, courseCode string) Result {
	text := stripControls(documentText)
	course := stripControls(courseCode)

	result := Result{InstitutionName: institutionName(text)}

	// FIND: first occurrence of the course code.
	pos := strings.Index(text, course)
	if course == "" || pos < 0 {
		return result
	}

	// FIND-ARROW: first arrow after the matched course code.
	after := text[pos+len(course):]
	arrow := strings.Index(after, arrowMarker)
	if arrow < 0 {
		return result
	}

	// WINDOW: fixed-size slice starting at the arrow, shorter at text end.
	window := []rune(after[arrow:])
	if len(window) > windowSize {
		window = window[:windowSize]
	}

	// CLASSIFY: any denial phrase in the window means no articulation.
	win := string(window)
	for _, phrase := range negativePhrases {
		if strings.Contains(win, phrase) {
			return result
		}
	}

	result.IsArticulated = true
	result.ArticulatedText = strings.TrimSpace(win)
	return result
}

// institutionName pulls the sending institution's name off the "From:"
// line. The name runs from just past the marker up to the academic-year
// range, which always starts with a '2'.
func institutionName(text string) string {
	idx := strings.Index(text, fromMarker)
	if idx < 0 || idx+6 > len(text) {
		return ""
	}

	rest := text[idx+6:]
	year := strings.IndexByte(rest, '2')
	if year < 0 {
		return ""
	}

	// Drop the separator character sitting between name and year.
	end := year
	if end > 0 {
		end--
	}
	return strings.TrimSpace(rest[:end])
}

// stripControls removes the control characters lossy PDF-to-text
// conversion leaves behind (U+0000–U+001F, U+007F–U+009F); they would
// otherwise break exact substring matching.
func stripControls(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}
