package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"separate value", []string{"-a", "http://x", "-z", "1"}, []string{"-a"}, []string{"-a", "http://x"}},
		{"equals form", []string{"-a=http://x", "-z=1"}, []string{"-a"}, []string{"-a=http://x"}},
		{"bool flag followed by flag", []string{"-v", "-a", "u"}, []string{"-v", "-a"}, []string{"-v", "-a", "u"}},
		{"nothing allowed", []string{"-a", "u"}, nil, []string{}},
		{"trailing flag without value", []string{"-a"}, []string{"-a"}, []string{"-a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "c.json", ConfigFileFlag([]string{"-a", "x", "-c", "c.json"}))
	assert.Equal(t, "c.yaml", ConfigFileFlag([]string{"-config=c.yaml"}))
	assert.Equal(t, "", ConfigFileFlag([]string{"-a", "x"}))
}
