package handler

import (
	"net/http"
	"strconv"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/document/service"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/httperr"
	"github.com/docuforge/docuforge/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	TemplateID string                 `json:"template_id" binding:"required"`
	Title      string                 `json:"title"`
	Data       map[string]interface{} `json:"data"`
}

// patchRequest mirrors the updatable columns. Content is accepted and ignored;
// it only changes through a re-render.
type patchRequest struct {
	Title   *string                `json:"title"`
	Data    map[string]interface{} `json:"data"`
	Status  *string                `json:"status"`
	FileURL *string                `json:"file_url"`
	Content *string                `json:"content"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// owner returns the authenticated user id, aborting with 401 when absent.
func owner(c *gin.Context) (string, bool) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return sub, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}

// RegisterDocumentRoutes mounts the document endpoints. r must run
// AuthMiddleware first; every call is scoped to the token subject.
func RegisterDocumentRoutes(r gin.IRouter, svc *service.Service) {
	g := r.Group("/api/documents")

	g.GET("", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset")
		if !ok {
			return
		}
		t := doctemplate.Type(c.Query("type"))
		if t != "" && !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown template type"})
			return
		}
		list, err := svc.List(c.Request.Context(), uid, service.ListQuery{
			Status: document.Status(c.Query("status")),
			Type:   t,
			Search: c.Query("search"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.POST("", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.Create(c.Request.Context(), uid, service.CreateInput{
			TemplateID: req.TemplateID,
			Title:      req.Title,
			Data:       form.StringifyAll(req.Data),
		})
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})

	g.GET("/search", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		list, err := svc.Search(c.Request.Context(), uid, c.Query("q"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/stats", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		st, err := svc.Stats(c.Request.Context(), uid)
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	})

	g.GET("/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		d, err := svc.Get(c.Request.Context(), uid, c.Param("id"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	g.PATCH("/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		var req patchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in := service.UpdateInput{Title: req.Title, FileURL: req.FileURL}
		if req.Data != nil {
			in.Data = form.StringifyAll(req.Data)
		}
		if req.Status != nil {
			st := document.Status(*req.Status)
			in.Status = &st
		}
		d, err := svc.Update(c.Request.Context(), uid, c.Param("id"), in)
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
			httperr.Abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.PUT("/:id/status", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.UpdateStatus(c.Request.Context(), uid, c.Param("id"), document.Status(req.Status))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	g.GET("/:id/print", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		page, err := svc.PrintPage(c.Request.Context(), uid, c.Param("id"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})

	g.POST("/:id/export", func(c *gin.Context) {
		uid, ok := owner(c)
		if !ok {
			return
		}
		d, err := svc.Export(c.Request.Context(), uid, c.Param("id"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})
}
