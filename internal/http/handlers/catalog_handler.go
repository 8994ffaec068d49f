// Catalog HTTP handlers: categories, stats, search and the landing bundle.
// All are anonymous reads with weak ETag support.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// ListCategories godoc
// @ID          listCategories
// @Summary     List project categories
// @Description Served from a short-lived cache; concurrent misses share one upstream call.
// @Tags        Catalog
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}  domain.Category
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects/categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respond(c, err, "Failed to fetch categories")
		return
	}
	okETag(c, cats)
}

// GetStats godoc
// @ID          getStats
// @Summary     Site-wide aggregates
// @Tags        Catalog
// @Produce     json
// @Success     200  {object} domain.Stats
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	st, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		respond(c, err, "Failed to fetch stats")
		return
	}
	okETag(c, st)
}

// SearchProjects godoc
// @ID          searchProjects
// @Summary     Search projects
// @Description Flat, unpaginated. A blank query returns {"projects":[]} without an upstream call.
// @Tags        Catalog
// @Produce     json
// @Param       q  query  string  false "Search text"  example(monad)
// @Success     200  {object} domain.SearchResult
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects/search [get]
func (h *Handlers) SearchProjects(c *gin.Context) {
	res, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respond(c, err, "Failed to search projects")
		return
	}
	okETag(c, res)
}

// Home godoc
// @ID          home
// @Summary     Landing-page bundle
// @Description First feed page, categories and stats fetched in parallel. Feed query parameters are forwarded.
// @Tags        Catalog
// @Produce     json
// @Success     200  {object} domain.Home
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /home [get]
func (h *Handlers) Home(c *gin.Context) {
	home, err := h.catalog.Home(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respond(c, err, "Failed to load home page")
		return
	}
	okETag(c, home)
}
