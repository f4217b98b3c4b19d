package handler

import (
	"net/http"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/doctemplate/service"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/httperr"
	"github.com/gin-gonic/gin"
)

type valuesRequest struct {
	Data map[string]interface{} `json:"data"`
}

func bindValues(c *gin.Context) (map[string]string, bool) {
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return form.StringifyAll(req.Data), true
}

// RegisterTemplateRoutes mounts the read-only catalog endpoints under /api/templates.
func RegisterTemplateRoutes(r gin.IRouter, reg *service.Registry) {
	g := r.Group("/api/templates")

	g.GET("", func(c *gin.Context) {
		list, err := reg.ListActive(c.Request.Context())
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/:id", func(c *gin.Context) {
		s, err := reg.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	g.GET("/type/:type", func(c *gin.Context) {
		t := doctemplate.Type(c.Param("type"))
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown template type"})
			return
		}
		s, err := reg.GetByType(c.Request.Context(), t)
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	g.POST("/:id/validate", func(c *gin.Context) {
		raw, ok := bindValues(c)
		if !ok {
			return
		}
		s, err := reg.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		_, res := reg.Validate(s, raw)
		c.JSON(http.StatusOK, gin.H{"valid": res.Valid, "errors": res.Errors})
	})

	g.POST("/:id/preview", func(c *gin.Context) {
		raw, ok := bindValues(c)
		if !ok {
			return
		}
		html, err := reg.Preview(c.Request.Context(), c.Param("id"), raw)
		if err != nil {
			httperr.Abort(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})
}
