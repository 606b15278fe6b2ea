package controller

import (
	"mime"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentQuotesFileName(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []string{
		"cwd-backup-2024-03-15-1710491400000.json",
		`cwd-backup-a b"c.json`,
		"cwd-backup-备份.json",
	}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			attachment(c, "dir/"+name)

			disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, name, params["filename"])
		})
	}
}
