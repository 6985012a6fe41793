package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		path string
		want Category
	}{
		{"src/main.rs", Source},
		{"cmd/app/main.go", Source},
		{"web/App.TSX", Source},
		{"build.rs", Source},
		{"docs/conf.py", Source},

		{"pkg/git/diff_test.go", Test},
		{"src/button.test.tsx", Test},
		{"src/button.spec.ts", Test},
		{"tests/fixtures/data.json", Test},
		{"spec/models/user.rb", Test},
		{"test/README.md", Test},

		{"README.md", Docs},
		{"docs/guide.md", Docs},
		{"CHANGELOG", Docs},
		{"Readme.txt", Docs},
		{"docs/diagram.png", Docs},
		{"notes.rst", Docs},

		{".github/workflows/ci.yml", CI},
		{".gitlab-ci.yml", CI},
		{".travis.yml", CI},

		{"Dockerfile", Build},
		{"Makefile", Build},
		{"CMakeLists.txt", Build},
		{"build.gradle", Build},

		{"package.json", Config},
		{"Cargo.toml", Config},
		{"config/app.yaml", Config},
		{".github/dependabot.yml", Config},

		{"LICENSE", Other},
		{"assets/logo.png", Other},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.path))
		})
	}
}
