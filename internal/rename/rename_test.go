package rename

import (
	"strings"
	"testing"

	"github.com/prettymuchbryce/batchmove/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestRenamer_TryRename(t *testing.T) {
	tests := []struct {
		name     string
		renamer  Renamer
		fileName string
		expected Match
	}{
		{
			name:     "canonical prefix, same extension",
			renamer:  Renamer{Prefix: "AnalysesJour"},
			fileName: "Analyse_26032025.xlsx",
			expected: Match{NewFileName: "AnalysesJour_20250326.xlsx", Year: "2025", Month: "03", Day: "26"},
		},
		{
			name:     "target extension replaces source extension",
			renamer:  Renamer{Prefix: "AnalysesJour", Extension: ".csv"},
			fileName: "Analyse_01122024.xlsx",
			expected: Match{NewFileName: "AnalysesJour_20241201.csv", Year: "2024", Month: "12", Day: "01"},
		},
		{
			name:     "empty prefix keeps source prefix",
			renamer:  Renamer{},
			fileName: "Report_31012023.pdf",
			expected: Match{NewFileName: "Report_20230131.pdf", Year: "2023", Month: "01", Day: "31"},
		},
		{
			name:     "prefix containing underscores",
			renamer:  Renamer{Prefix: "Out"},
			fileName: "Daily_Analyse_05062025.xlsx",
			expected: Match{NewFileName: "Out_20250605.xlsx", Year: "2025", Month: "06", Day: "05"},
		},
		{
			name:     "token is taken positionally without calendar checks",
			renamer:  Renamer{Prefix: "X"},
			fileName: "A_99887766.txt",
			expected: Match{NewFileName: "X_77668899.txt", Year: "7766", Month: "88", Day: "99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.renamer.TryRename(tt.fileName)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRenamer_TryRename_NoMatch(t *testing.T) {
	names := []string{
		"Analyse_2603202.xlsx",
		"Analyse_260320255.xlsx",
		"Analyse26032025.xlsx",
		"Analyse_26032025",
		"Analyse_2603-2025.xlsx",
		"_26032025.xlsx",
		"Analyse_26032025.tar.gz",
		"",
	}

	r := Renamer{Prefix: "AnalysesJour"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := r.TryRename(name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoMatch))
			assert.True(t, strings.Contains(err.Error(), ExpectedPattern), "diagnostic should name the expected pattern: %v", err)
			assert.Contains(t, err.Error(), `"`+name+`"`)
		})
	}
}

func TestRenamer_DestinationFolder(t *testing.T) {
	root := testutil.Path("/", "out")
	m := Match{Year: "2025", Month: "03", Day: "26"}

	assert.Equal(t, testutil.Path("/", "out", "2025"), Renamer{YearFolder: true}.DestinationFolder(root, m))
	assert.Equal(t, root, Renamer{YearFolder: false}.DestinationFolder(root, m))
}
