package pkg

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meethalfway/meethalfway/internal/middleware"
	"github.com/meethalfway/meethalfway/internal/route"
)

// RenderPage renders the template of the page being served by the current
// route. The page's Title, the CSRF token and the signed-in flag are added to
// data unless the handler already set them.
func RenderPage(c *gin.Context, status int, data gin.H) {
	page, ok := route.CurrentPage(c)
	if !ok {
		RenderErrorPage(c, http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = gin.H{}
	}
	setDefault(data, "Page", page.Name)
	setDefault(data, "Title", page.Title)
	setDefault(data, "CSRFToken", middleware.GetCSRFToken(c))
	_, signedIn := middleware.GetUserID(c)
	setDefault(data, "SignedIn", signedIn)

	c.HTML(status, page.Template, data)
}

// RenderErrorPage renders errors/<status>.html. Statuses without a dedicated
// template use errors/500.html. The request id is passed along so the page
// can show it as a reference.
func RenderErrorPage(c *gin.Context, status int) {
	name := "errors/500.html"
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		name = fmt.Sprintf("errors/%d.html", status)
	}
	c.HTML(status, name, gin.H{
		"Title":     http.StatusText(status),
		"RequestID": middleware.GetRequestID(c),
	})
}

func setDefault(data gin.H, key string, v any) {
	if _, ok := data[key]; !ok {
		data[key] = v
	}
}
