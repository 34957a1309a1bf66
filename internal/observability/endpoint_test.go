package observability

import "testing"

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "/"},
		{"empty", "", "/"},
		{"static path unchanged", "/api/issues", "/api/issues"},
		{"numeric id", "/api/issues/12345", "/api/issues/:id"},
		{"uuid segment", "/api/users/550e8400-e29b-41d4-a716-446655440000", "/api/users/:uuid"},
		{"uppercase uuid", "/api/users/550E8400-E29B-41D4-A716-446655440000", "/api/users/:uuid"},
		{"owner repo suffix", "/api/repos/golang/go", "/api/repos/:owner/:repo"},
		{"projects suffix", "/projects/octo/site", "/projects/:owner/:repo"},
		{"repos mid path stays literal", "/api/repos/golang/go/issues", "/api/repos/golang/go/issues"},
		{"mixed segments", "/api/users/42/repos/octo/hello", "/api/users/:id/repos/:owner/:repo"},
		{"query string stripped", "/api/issues?page=2", "/api/issues"},
		{"duplicate slashes collapsed", "//api//issues", "/api/issues"},
		{"trailing slash", "/api/issues/", "/api/issues"},
		{"numeric owner still owner repo", "/api/repos/123/go", "/api/repos/:owner/:repo"},
		{"not a uuid", "/api/users/550e8400-e29b", "/api/users/550e8400-e29b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEndpoint(tt.path); got != tt.want {
				t.Errorf("NormalizeEndpoint(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
