package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/domain"
	"switchgraph/internal/reconcile"
)

func TestParseVLANID(t *testing.T) {
	id, err := parseVLANID("10")
	require.NoError(t, err)
	assert.Equal(t, 10, id)

	id, err = parseVLANID("Vlan200")
	require.NoError(t, err)
	assert.Equal(t, 200, id)

	_, err = parseVLANID("Ethernet0")
	assert.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"vlans", "port-group"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Kind{domain.KindVLAN, domain.KindPortGroup}, kinds)

	kinds, err = parseKinds(nil)
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = parseKinds([]string{"routes"})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	out := summarize([]reconcile.Result{
		{DeviceIP: "10.0.0.1", Kind: domain.KindVLAN, Created: 2, MembersLinked: 3, MembersSkipped: 1},
	})
	assert.Equal(t, []resultSummary{
		{Device: "10.0.0.1", Kind: domain.KindVLAN, Created: 2, MembersLinked: 3, MembersSkipped: 1},
	}, out)
}

func TestPrintResult(t *testing.T) {
	prev := opts.output
	t.Cleanup(func() { opts.output = prev })

	v := map[string]int{"vlans": 2}
	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"vlans\": 2\n}\n"},
		{"yaml", "vlans: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			opts.output = tt.format
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&buf)
			require.NoError(t, printResult(cmd, v))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	opts.output = "xml"
	assert.Error(t, printResult(&cobra.Command{}, v))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"discover"},
		{"get"},
		{"vlan", "create"},
		{"vlan", "delete"},
		{"vlan", "add-member"},
		{"vlan", "remove-member"},
		{"portgroup", "speed"},
		{"stp", "set"},
		{"stp", "delete"},
		{"devices", "list"},
		{"devices", "sync"},
		{"devices", "import"},
		{"export"},
		{"scan"},
		{"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
