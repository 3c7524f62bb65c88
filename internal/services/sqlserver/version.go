package sqlserver

import (
	"strconv"
	"strings"
)

// generationLabels maps SQL Server major versions to their release year.
var generationLabels = map[int]string{
	8:  "2000",
	9:  "2005",
	10: "2008",
	11: "2012",
	12: "2014",
	13: "2016",
	14: "2017",
	15: "2019",
	16: "2022",
	17: "2025",
}

// GenerationLabel returns the release year for a major version.
// Unknown majors report false; that is not an error.
func GenerationLabel(major int) (string, bool) {
	label, ok := generationLabels[major]
	return label, ok
}

// MajorVersion extracts the leading integer of a version string such as "15.0.2000.5".
func MajorVersion(productVersion string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(productVersion), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return major, true
}

// YearForVersion returns the release year for a full version string, or "" if unknown.
func YearForVersion(productVersion string) string {
	major, ok := MajorVersion(productVersion)
	if !ok {
		return ""
	}
	label, _ := GenerationLabel(major)
	return label
}
