package template

import (
	"strconv"
	"strings"
)

// CompareVersions orders two dotted version strings numerically per segment,
// falling back to string comparison for non-numeric segments. Missing
// segments compare as zero, so "1.2" == "1.2.0".
func CompareVersions(a, b string) int {
	as := splitVersion(a)
	bs := splitVersion(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := segmentAt(as, i), segmentAt(bs, i)
		an, aNum := parseSegment(av)
		bn, bNum := parseSegment(bv)
		switch {
		case aNum && bNum:
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
		default:
			if cmp := strings.Compare(av, bv); cmp != 0 {
				return cmp
			}
		}
	}
	return 0
}

func splitVersion(v string) []string {
	v = strings.TrimSpace(strings.TrimPrefix(v, "v"))
	if v == "" {
		return nil
	}
	return strings.Split(v, ".")
}

func segmentAt(segments []string, i int) string {
	if i >= len(segments) {
		return "0"
	}
	return segments[i]
}

func parseSegment(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
