package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Port int `json:"port" validate:"min=1,max=65535"`
}

type sample struct {
	Name     string   `json:"name" validate:"required"`
	Kind     string   `json:"kind" validate:"oneof=a b"`
	Server   inner    `json:"server"`
	Tags     []string `json:"tags" validate:"dive,min=1"`
	Untagged float64  `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr []string
	}{
		{
			name:  "valid",
			input: sample{Name: "x", Kind: "a", Server: inner{Port: 80}},
		},
		{
			name:    "required and oneof",
			input:   sample{Kind: "c", Server: inner{Port: 80}},
			wantErr: []string{"name is required", "kind must be one of: a b"},
		},
		{
			name:    "nested field uses its path",
			input:   sample{Name: "x", Kind: "b", Server: inner{Port: 0}},
			wantErr: []string{"server.port must be at least 1"},
		},
		{
			name:    "slice element",
			input:   sample{Name: "x", Kind: "b", Server: inner{Port: 1}, Tags: []string{"ok", ""}},
			wantErr: []string{"tags[1] must be at least 1"},
		},
		{
			name:    "field without json tag",
			input:   sample{Name: "x", Kind: "b", Server: inner{Port: 1}, Untagged: -1},
			wantErr: []string{"Untagged must be >= 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
