package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			name:    "success",
			outcome: Success{Name: "serde", Version: "1.0.219"},
			want:    `{"status":"success","name":"serde","version":"1.0.219"}`,
		},
		{
			name:    "updated",
			outcome: Updated{Name: "serde", Version: "1.0.219"},
			want:    `{"status":"updated","name":"serde","version":"1.0.219"}`,
		},
		{
			name: "workspace detected",
			outcome: WorkspaceDetected{
				Name:    "tokio",
				Version: "1.38.0",
				Source:  "registry",
				Members: []string{"tokio", "tokio-util"},
			},
			want: `{
				"status": "workspace_detected",
				"name": "tokio",
				"version": "1.38.0",
				"source": "registry",
				"members": ["tokio", "tokio-util"],
				"updated": false
			}`,
		},
		{
			name: "members cached",
			outcome: MembersCached{
				Name:    "tokio",
				Version: "1.38.0",
				Members: []string{"tokio", "tokio-util"},
				Updated: true,
			},
			want: `{
				"status": "members_cached",
				"name": "tokio",
				"version": "1.38.0",
				"members": ["tokio", "tokio-util"],
				"updated": true
			}`,
		},
		{
			name: "partial failure",
			outcome: PartialFailure{
				Name:    "tokio",
				Version: "1.38.0",
				Cached:  []string{"tokio"},
				Errors:  []string{"tokio-macros: generation failed"},
			},
			want: `{
				"status": "partial_failure",
				"name": "tokio",
				"version": "1.38.0",
				"cached": ["tokio"],
				"errors": ["tokio-macros: generation failed"],
				"updated": false
			}`,
		},
		{
			name:    "failure",
			outcome: Failure{Message: "crate not found in registry"},
			want:    `{"status":"error","message":"crate not found in registry"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, Render(tt.outcome))
		})
	}
}
