package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockforge/internal/core/domain"
)

func TestCredentials_Lookup(t *testing.T) {
	creds := domain.Credentials{
		"conda.mychannel.cloud":          "username:password",
		"conda.mychannel.cloud/channel1": "username1:password1",
	}

	tests := []struct {
		hostPath string
		want     string
		ok       bool
	}{
		{"conda.mychannel.cloud/channel1/linux-64/pkg.conda", "username1:password1", true},
		{"conda.mychannel.cloud/channel2/linux-64/pkg.conda", "username:password", true},
		{"conda.mychannel.cloud/channel10/pkg.conda", "username:password", true},
		{"conda.mychannel.cloud", "username:password", true},
		{"other.cloud/channel1", "", false},
		{"conda.mychannel.cloudy/x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.hostPath, func(t *testing.T) {
			got, ok := creds.Lookup(tt.hostPath)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentials_Merge(t *testing.T) {
	a := domain.Credentials{"a.example": "x:y"}
	b := domain.Credentials{"a.example": "u:p", "b.example": "m:n"}
	got := a.Merge(b)
	assert.Equal(t, []string{"a.example", "b.example"}, got.Keys())
	assert.Equal(t, "u:p", got["a.example"])
	assert.Equal(t, "x:y", a["a.example"])
}
