package teldata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaAcceptsSerialized(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	for _, event := range []Event{sampleEvent(), {}} {
		data, err := Serialize(&event)
		require.NoError(t, err)
		assert.NoError(t, schema.Check(data))
	}
}

func TestSchemaAcceptsMissingMatches(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	data := `{"EV":{"RN":1,"EN":2,"DN":3,"CK":4,"MRs":[],"MHs":[],"TJs":[{"TJ":{"TN":1,"THs":[` +
		`{"TH":{"DN":1,"FH":{"DN":1,"PLs":[0,0],"DLs":[0,0,1],"PGs":[0,0,0],"DGs":[0,0,1]}}}]}}]}}`
	assert.NoError(t, schema.Check([]byte(data)))
}

func TestSchemaRejects(t *testing.T) {
	schema, err := NewSchema()
	require.NoError(t, err)

	sample := sampleEvent()
	valid, err := Serialize(&sample)
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"unwrapped document", `{"RN":1,"EN":2,"DN":3,"CK":4,"MRs":[],"MHs":[],"TJs":[]}`},
		{"detector out of range", strings.Replace(string(valid), `"DN":3`, `"DN":65536`, 1)},
		{"short raw hit", strings.Replace(string(valid), `[10,20,1,5]`, `[10,20,1]`, 1)},
		{"index below -1", strings.Replace(string(valid), `"OM":{"MHi":-1}`, `"OM":{"MHi":-2}`, 1)},
		{"missing trajectories", strings.Replace(string(valid), `,"TJs":`, `,"XX":`, 1)},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Check([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}
