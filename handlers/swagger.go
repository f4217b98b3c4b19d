package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r gin.IRouter) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docuforge API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docuforge", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Values": { "type": "object", "additionalProperties": { "type": "string" } },
      "ValuesRequest": { "type": "object", "properties": { "data": { "$ref": "#/components/schemas/Values" } } },
      "Error": { "type": "object", "properties": { "error": { "type": "string" }, "fields": { "$ref": "#/components/schemas/Values" } } },
      "Document": {
        "type": "object",
        "properties": {
          "id": { "type": "string" }, "user_id": { "type": "string" }, "template_id": { "type": "string", "nullable": true },
          "title": { "type": "string" }, "content": { "type": "string" }, "data": { "$ref": "#/components/schemas/Values" },
          "status": { "type": "string", "enum": ["draft", "published", "archived"] },
          "file_url": { "type": "string", "nullable": true },
          "created_at": { "type": "string", "format": "date-time" }, "updated_at": { "type": "string", "format": "date-time" }
        }
      }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/auth/signup": {
      "post": {
        "summary": "Create an account", "security": [],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "email": { "type": "string" }, "password": { "type": "string", "minLength": 6 }, "full_name": { "type": "string" }, "company_name": { "type": "string" } } } } } },
        "responses": { "201": { "description": "user created" }, "400": { "description": "invalid email or weak password" }, "409": { "description": "email already registered" } }
      }
    },
    "/auth/signin": {
      "post": {
        "summary": "Sign in with email and password", "security": [],
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "email": { "type": "string" }, "password": { "type": "string" } } } } } },
        "responses": { "200": { "description": "accessToken, refreshToken, user, expiresIn" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate the refresh token", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" } } } } } }, "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh token" } } }
    },
    "/auth/signout": {
      "post": { "summary": "End the session and revoke the access token", "security": [], "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refresh_token": { "type": "string" } } } } } }, "responses": { "200": { "description": "signed out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user", "responses": { "200": { "description": "user" }, "404": { "description": "no local account" } } },
      "patch": { "summary": "Update full_name and company_name", "responses": { "200": { "description": "user" } } },
      "delete": { "summary": "Delete the account and its documents", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/templates": { "get": { "summary": "Active templates ordered by name", "responses": { "200": { "description": "templates" } } } },
    "/api/templates/{id}": { "get": { "summary": "Active template by id", "responses": { "200": { "description": "template" }, "404": { "description": "not found" } } } },
    "/api/templates/type/{type}": { "get": { "summary": "Active template of a type", "responses": { "200": { "description": "template" }, "400": { "description": "unknown type" }, "404": { "description": "not found" } } } },
    "/api/templates/{id}/validate": { "post": { "summary": "Validate values against a template", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ValuesRequest" } } } }, "responses": { "200": { "description": "valid and errors" } } } },
    "/api/templates/{id}/preview": { "post": { "summary": "Render a preview without saving", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ValuesRequest" } } } }, "responses": { "200": { "description": "HTML" }, "422": { "description": "validation failed" } } } },
    "/api/documents": {
      "get": {
        "summary": "List documents, newest first",
        "parameters": [
          { "name": "status", "in": "query", "schema": { "type": "string" } }, { "name": "type", "in": "query", "schema": { "type": "string" } },
          { "name": "search", "in": "query", "schema": { "type": "string" } }, { "name": "limit", "in": "query", "schema": { "type": "integer" } },
          { "name": "offset", "in": "query", "schema": { "type": "integer" } }
        ],
        "responses": { "200": { "description": "documents" } }
      },
      "post": { "summary": "Create a document from a template", "responses": { "201": { "description": "document" }, "422": { "description": "validation failed" } } }
    },
    "/api/documents/search": { "get": { "summary": "Search title and content", "parameters": [ { "name": "q", "in": "query", "schema": { "type": "string" } } ], "responses": { "200": { "description": "documents" } } } },
    "/api/documents/stats": { "get": { "summary": "Counts by status and template type", "responses": { "200": { "description": "stats" } } } },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update title, data, status or file_url", "responses": { "200": { "description": "document" } } },
      "delete": { "summary": "Delete a document", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/documents/{id}/status": { "put": { "summary": "Set the status", "responses": { "200": { "description": "document" }, "400": { "description": "invalid status" } } } },
    "/api/documents/{id}/print": { "get": { "summary": "Print-ready HTML page", "responses": { "200": { "description": "HTML" } } } },
    "/api/documents/{id}/export": { "post": { "summary": "Upload the print page and record its URL", "responses": { "200": { "description": "document" }, "503": { "description": "export not configured" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
