package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
projects:
  - id: mn-gobi
    name: Gobi Rangeland Recovery
    grantee: Steppe Herders Cooperative
    country: Mongolia
    commodity: cashmere
    hectares: 120000
    lat: 44.5
    lng: 103.8
    year_joined: 2021
    status: active
  - id: in-gujarat
    name: Regenerative Cotton Gujarat
    country: India
    commodity: cotton
    hectares: 8500
    lat: 22.3
    lng: 70.8
`

func TestLoad(t *testing.T) {
	p, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	require.Equal(t, 2, p.Len())
	assert.Equal(t, "mn-gobi", p.Projects()[0].ID)

	proj, ok := p.Find("in-gujarat")
	require.True(t, ok)
	assert.Equal(t, domain.CommodityCotton, proj.Commodity)
	assert.Equal(t, 8500.0, proj.Hectares)

	_, ok = p.Find("missing")
	assert.False(t, ok)
}

func TestLoad_Empty(t *testing.T) {
	p, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", "projects:\n  - name: x\n", "id is required"},
		{"bad latitude", "projects:\n  - id: a\n    lat: 91\n", "latitude"},
		{"bad longitude", "projects:\n  - id: a\n    lng: -181\n", "longitude"},
		{"negative area", "projects:\n  - id: a\n    hectares: -1\n", "hectares"},
		{"duplicate", "projects:\n  - id: a\n  - id: a\n", "duplicate id"},
		{"unknown field", "projects:\n  - id: a\n    acreage: 3\n", "decode projects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestProjects_ReturnsCopy(t *testing.T) {
	p, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	projects := p.Projects()
	projects[0].ID = "mutated"
	assert.Equal(t, "mn-gobi", p.Projects()[0].ID)
}

func TestSeedDataFileIsValid(t *testing.T) {
	p, err := LoadFile(filepath.Join("..", "..", "..", "data", "projects.yaml"))
	require.NoError(t, err)
	assert.Positive(t, p.Len())
}
