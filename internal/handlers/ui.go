// ui.go serves the built-in upload page (SVT-15).
//
// The page is a single self-contained HTML file: upload a sheet, type the
// measured sizes into the table, annotate, download. Surveyors on site use
// this straight from a tablet browser — no separate frontend deploy needed.
package handlers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var uploadPage []byte

// ServeUploadForm returns the built-in upload page.
// GET /
func (h *Handler) ServeUploadForm(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", uploadPage)
}
