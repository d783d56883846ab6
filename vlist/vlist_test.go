package vlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sscp/go-sscp/sscp"
	"github.com/stretchr/testify/require"
)

const testVList = `Version;2
Project;Name;Type;UID;Offset;Length;ParentTypeFamily;HistoryID
Boiler;$Temperature;$REAL;1001;;;
Boiler;$Pump$Running;$BOOL;1002;;;none;H17
Boiler;$Setpoints;$INT;1003;4;2;ARRAY
Boiler;$Label;$STRING;1004;;;

Boiler;truncated;INT
`

func TestParse(t *testing.T) {
	require := require.New(t)

	entries, err := Parse(strings.NewReader(testVList))
	require.NoError(err)
	require.Len(entries, 4)

	require.Equal(Entry{
		Name:             "Temperature",
		Project:          "Boiler",
		TypeName:         "REAL",
		Variable:         sscp.Variable{UID: 1001, Offset: 0, Length: 1, Type: sscp.TypeReal},
		ParentTypeFamily: "",
	}, entries[0])

	require.Equal("PumpRunning", entries[1].Name)
	require.Equal(sscp.TypeBool, entries[1].Variable.Type)
	require.Equal("none", entries[1].ParentTypeFamily)
	require.Equal("H17", entries[1].HistoryID)

	require.Equal(sscp.Variable{UID: 1003, Offset: 4, Length: 2, Type: sscp.TypeInt}, entries[2].Variable)
	require.True(entries[2].Variable.HasQualifier())
	require.Equal("ARRAY", entries[2].ParentTypeFamily)
	require.Empty(entries[2].HistoryID)

	require.Equal("STRING", entries[3].TypeName)
	require.False(entries[3].Supported())
	require.True(entries[0].Supported())
}

func TestParse_MissingParentTypeFamily(t *testing.T) {
	require := require.New(t)

	entries, err := Parse(strings.NewReader("h1\nh2\nP;$A;$DINT;7;;\n"))
	require.NoError(err)
	require.Len(entries, 1)
	require.Equal(DefaultParentTypeFamily, entries[0].ParentTypeFamily)
	require.Equal(uint32(1), entries[0].Variable.Length)
}

func TestParse_HeaderOnly(t *testing.T) {
	entries, err := Parse(strings.NewReader("P;$A;$DINT;7;;\nP;$B;$DINT;8;;\n"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestParse_InvalidLine(t *testing.T) {
	tests := []struct {
		description string
		line        string
		expected    string
	}{
		{"Invalid UID", "P;$A;$INT;abc;;", "line 3: uid"},
		{"Negative Offset", "P;$A;$INT;1;-1;", "line 3: offset"},
		{"Invalid Length", "P;$A;$INT;1;0;x", "line 3: length"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			_, err := Parse(strings.NewReader("h1\nh2\n" + tt.line + "\n"))
			require.ErrorIs(err, ErrInvalidLine)
			require.Contains(err.Error(), tt.expected)
		})
	}
}

func TestParseFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "boiler.vlist")
	require.NoError(os.WriteFile(path, []byte(strings.ReplaceAll(testVList, "\n", "\r\n")), 0o600))

	entries, err := ParseFile(path)
	require.NoError(err)
	require.Len(entries, 4)
	require.Equal("H17", entries[1].HistoryID)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.vlist"))
	require.ErrorIs(err, os.ErrNotExist)
}
