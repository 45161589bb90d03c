package route

import "github.com/gin-gonic/gin"

const pageContextKey = "route_page"

// Handlers serves one page of the table. Get is required. Post is optional
// and handles the page's own form submission on the same path.
type Handlers struct {
	Get  gin.HandlersChain
	Post gin.HandlersChain
}

// WithPage returns a middleware that records p as the page being served.
func WithPage(p Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(pageContextKey, p)
		c.Next()
	}
}

// CurrentPage returns the page recorded by WithPage.
func CurrentPage(c *gin.Context) (Page, bool) {
	v, ok := c.Get(pageContextKey)
	if !ok {
		return Page{}, false
	}
	p, ok := v.(Page)
	return p, ok
}
