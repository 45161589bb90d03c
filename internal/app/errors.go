package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/pkg"
)

// renderError answers browsers with the error page for code and every other
// client with the JSON envelope carrying message.
func renderError(c *gin.Context, code int, message string) {
	if !prefersHTML(c) {
		c.JSON(code, pkg.Response{Code: code, Message: message})
		return
	}

	defer func() {
		if recover() != nil {
			text := http.StatusText(code)
			if text == "" {
				text = "Error"
			}
			c.Data(code, "text/plain; charset=utf-8", fmt.Appendf(nil, "%d %s", code, text))
		}
	}()
	pkg.RenderErrorPage(c, code)
}

// prefersHTML negotiates between the error page and JSON. The first Accept
// entry that matches either wins; an empty header or */* means a browser.
func prefersHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEHTML
}
