package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapMarshalRoundTrip(t *testing.T) {
	m := New("foo.csm", "foo.wat")
	m.Add(1, 0, 2, 2, "foo")
	m.Add(3, 4, 5, 2, "")

	data, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, m.Source, parsed.Source)
	require.Equal(t, m.Output, parsed.Output)
	require.Len(t, parsed.Mappings, 2)
	require.Equal(t, m.Mappings[0], parsed.Mappings[0])
}

func TestValidatePassesForWellFormedMap(t *testing.T) {
	m := New("foo.csm", "foo.wat")
	m.Add(1, 0, 1, 2, "foo")
	m.Add(2, 2, 3, 0, "")
	m.Add(2, 10, 3, 8, "")

	result := Validate(m)
	require.True(t, result.Valid, "%+v", result.Errors)
	require.Equal(t, 3, result.TotalMappings)
	require.Equal(t, 3, result.PassedTests)
}

func TestValidateRejectsBadVersion(t *testing.T) {
	m := New("foo.csm", "foo.wat")
	m.Version = 2
	result := Validate(m)
	require.False(t, result.Valid)
}

func TestValidateRejectsOutOfRangePositions(t *testing.T) {
	m := New("foo.csm", "foo.wat")
	m.Add(0, 0, 1, 0, "")
	result := Validate(m)
	require.False(t, result.Valid)
}
