package discovery

import (
	"regexp"
	"strconv"
	"strings"
)

// windowRe captures "h:mmAM-h:mmPM" style ranges inside a question.
var windowRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)\s*-\s*(\d{1,2}):(\d{2})\s*(am|pm)`)

// WindowMinutes devuelve la duración en minutos del primer rango horario del
// texto. Un rango que cruza la medianoche suma 24h. ok es false si no hay rango.
func WindowMinutes(question string) (minutes int, ok bool) {
	m := windowRe.FindStringSubmatch(question)
	if m == nil {
		return 0, false
	}
	start, ok1 := clockMinutes(m[1], m[2], m[3])
	end, ok2 := clockMinutes(m[4], m[5], m[6])
	if !ok1 || !ok2 {
		return 0, false
	}
	diff := end - start
	if diff < 0 {
		diff += 24 * 60
	}
	return diff, true
}

// IsWindow reports whether question describes a window of exactly target minutes.
func IsWindow(question string, target int) bool {
	minutes, ok := WindowMinutes(question)
	return ok && minutes == target
}

// clockMinutes converts a 12h clock reading to minutes after midnight.
func clockMinutes(hh, mm, ampm string) (int, bool) {
	h, err := strconv.Atoi(hh)
	if err != nil || h < 1 || h > 12 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, false
	}
	pm := strings.EqualFold(ampm, "pm")
	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return h*60 + m, true
}
