package codec_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/internal/codec"
	"rtshell/internal/profile"
	"rtshell/internal/testutil"
)

func TestParseDocuments(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "yaml", file: "testdata/sys.yaml"},
		{name: "json", file: "testdata/sys.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := os.Open(tt.file)
			require.NoError(t, err)
			defer f.Close()

			imp, err := codec.ImporterFor("", tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.name, imp.Format())

			got, err := imp.Parse(f)
			require.NoError(t, err)
			if diff := cmp.Diff(testutil.SystemProfile(), got); diff != "" {
				t.Errorf("profile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportReadsBack(t *testing.T) {
	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			want := testutil.SystemProfile()
			want.Components[1].Ports = append(want.Components[1].Ports, profile.Port{Name: "svc", Service: true})

			exp, err := codec.ExporterFor(format)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, exp.Export(want, &buf))

			imp, err := codec.ImporterFor(format, "")
			require.NoError(t, err)
			got, err := imp.Parse(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("profile mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown field",
			doc:     "rtsProfile:\n  id: x\n  colour: red\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "bad target state",
			doc:     "rtsProfile:\n  components:\n    - instanceName: A0\n      pathUri: h/A0.rtc\n      targetState:\n        state: Sleeping\n",
			wantErr: `unknown target state "Sleeping"`,
		},
		{
			name:    "connector without id",
			doc:     "rtsProfile:\n  dataPortConnectors:\n    - sourcePort: {pathUri: h/A0.rtc, portName: A0.out}\n      targetPort: {pathUri: h/B0.rtc, portName: B0.in}\n",
			wantErr: "connector 0: missing id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.NewYAMLCodec().Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDOTExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codec.NewDOTExporter().Export(testutil.SystemProfile(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `digraph "RTSystem :Geoffrey Biggs.test.0" {`))
	assert.Contains(t, out, `"/localhost/local.host_cxt/Std0.rtc" [label="Std0"];`)
	assert.Contains(t, out, `"/localhost/local.host_cxt/Output0.rtc" -> "/localhost/local.host_cxt/Std0.rtc" [label="connection_id0", taillabel="out", headlabel="in"];`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestFormatLookup(t *testing.T) {
	_, err := codec.ImporterFor("xml", "")
	assert.Error(t, err)

	imp, err := codec.ImporterFor("", "system.rtsys")
	require.NoError(t, err)
	assert.Equal(t, "yaml", imp.Format())

	exp, err := codec.ExporterFor("dot")
	require.NoError(t, err)
	assert.Equal(t, "dot", exp.Format())
}
