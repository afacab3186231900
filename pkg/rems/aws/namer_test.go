package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResourceName(t *testing.T) {
	cases := []struct {
		name      string
		stackName string
		suffix    string
		maxLength int
		want      string
	}{
		{
			name:      "fits untouched",
			stackName: "rems",
			suffix:    "alb",
			maxLength: 32,
			want:      "rems-alb",
		},
		{
			name:      "trims stack name before suffix",
			stackName: "rems-production-sydney",
			suffix:    "target-group",
			maxLength: 32,
			want:      "rems-production-syd-target-group",
		},
		{
			name:      "keeps suffix when stack name is exhausted",
			stackName: "rems",
			suffix:    "a-very-long-resource-suffix-indeed",
			maxLength: 32,
			want:      "r-a-very-long-resource-suffix-in",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &RemsStack{name: tc.stackName}
			got := r.newResourceName(tc.suffix, tc.maxLength)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), tc.maxLength)
		})
	}
}
