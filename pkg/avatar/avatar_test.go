package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	// md5("test@example.com")
	const hash = "55502f40dc8b7c769880b10874abc9d0"

	tests := []struct {
		name   string
		email  string
		prefix string
		want   string
	}{
		{"default", "test@example.com", "", DefaultPrefix + hash},
		{"normalized", "  Test@Example.com ", "", DefaultPrefix + hash},
		{"prefix without slash", "test@example.com", "https://g.test/avatar", "https://g.test/avatar/" + hash},
		{"template", "test@example.com", "https://g.test/{hash}?d=mp", "https://g.test/" + hash + "?d=mp"},
		{"query prefix", "test@example.com", "https://g.test/?md5=", "https://g.test/?md5=" + hash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.email, tt.prefix))
		})
	}
}
