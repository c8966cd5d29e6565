package commands

import (
	"strings"
	"testing"

	"regassist-backend/lib/scrapers/portal"

	"github.com/stretchr/testify/require"
)

func TestWriteCourseTable(t *testing.T) {
	var out strings.Builder
	writeCourseTable(&out, portal.Course{
		Code:  "COMP 2401",
		Title: "Introduction to Systems Programming",
		Lectures: []portal.Block{{
			Type:              portal.BlockLecture,
			CartId:            "A1",
			SectionNumber:     "A",
			OpenSeats:         "12",
			MaximumEnrollment: "180",
			WaitlistSeats:     "3",
			WaitlistCapacity:  "20",
			Teacher:           "Ada Lovelace",
		}},
		Tutorials: []portal.Block{{Type: portal.BlockTutorial, CartId: "B2"}},
	})

	rendered := out.String()
	require.Contains(t, strings.ToLower(rendered), "comp 2401: introduction to systems programming")
	require.Contains(t, rendered, "Ada Lovelace")
	require.Contains(t, rendered, "3/20")

	lec := strings.Index(rendered, "A1")
	tut := strings.Index(rendered, "B2")
	require.Greater(t, lec, 0)
	require.Greater(t, tut, lec)
}
