// Project HTTP handlers.
//
// This file exposes REST endpoints for project resources:
//   - GET    /projects            (list, query forwarded verbatim, ETag support)
//   - GET    /projects/{id}       (fetch one, ETag support)
//   - POST   /projects            (create, admin)
//   - PUT    /projects[/{id}]     (edit, admin; id from path or body)
//   - DELETE /projects[/{id}]     (delete, admin; id from path or body)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-curation-gateway/internal/http/middleware"
)

//
// DTOs
//

// MessageResponse is a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message" example:"Project deleted successfully"`
}

// bindBody decodes a JSON object body. An empty body yields an empty map
// when optional is set.
func bindBody(c *gin.Context, optional bool) (map[string]any, bool) {
	body := map[string]any{}
	if optional && c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return map[string]any{}, true
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return nil, false
	}
	return body, true
}

//
// Handlers
//

// ListProjects godoc
// @ID          listProjects
// @Summary     List projects (paginated)
// @Description Forwards page, limit, category, status and onlyNew to the backend. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Projects
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"               minimum(1) default(20)
// @Param       category       query   string  false "Category id"
// @Param       status         query   string  false "Project status"               example(SCAM)
// @Param       onlyNew        query   bool    false "Only projects created in the last 3 days"
//
// @Success     200  {object} domain.FeedPage
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	page, err := h.projects.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respond(c, err, "Failed to fetch projects")
		return
	}
	okETag(c, page)
}

// GetProject godoc
// @ID          getProject
// @Summary     Get a project
// @Tags        Projects
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Project ID"
//
// @Success     200  {object} domain.Project
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} object "Upstream error body"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err, "Failed to fetch project")
		return
	}
	okETag(c, p)
}

// CreateProject godoc
// @ID          createProject
// @Summary     Submit a project
// @Description Validates the submission form and forwards it. A singular "category" is lifted into "categories". Honors Idempotency-Key.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Replay-safe key"
// @Param       body             body    object  true  "Project fields"
//
// @Success     201  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	body, good := bindBody(c, false)
	if !good {
		return
	}
	p, err := h.projects.Create(c.Request.Context(), tok, body)
	if err != nil {
		respond(c, err, "Failed to create project")
		return
	}
	ok(c, http.StatusCreated, p)
}

// UpdateProject godoc
// @ID          updateProject
// @Summary     Edit a project
// @Description Accepts either {project, projectId} or a flat project body. The path id wins over the body.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  false "Project ID"
// @Param       body  body  object  true  "Project fields"
//
// @Success     200  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Invalid input or missing projectId"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects/{id} [put]
func (h *Handlers) UpdateProject(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	body, good := bindBody(c, false)
	if !good {
		return
	}
	p, err := h.projects.Update(c.Request.Context(), tok, c.Param("id"), body)
	if err != nil {
		respond(c, err, "Failed to update project")
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProject godoc
// @ID          deleteProject
// @Summary     Delete a project
// @Description The project id comes from the path or from a {projectId} body.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  false "Project ID"
//
// @Success     200  {object} handlers.MessageResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing projectId"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects/{id} [delete]
func (h *Handlers) DeleteProject(c *gin.Context) {
	tok := middleware.SessionToken(c)
	if !requireToken(c, tok) {
		return
	}
	body, good := bindBody(c, true)
	if !good {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), tok, c.Param("id"), body); err != nil {
		respond(c, err, "Failed to delete project")
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Project deleted successfully"})
}
