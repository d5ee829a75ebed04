// Package swagger holds the OpenAPI document for the DevHub Data API,
// written to match the swag annotations in internal/api, and registers it
// with swag for http-swagger.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/blogs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Blogs"],
                "summary": "List blogs",
                "parameters": [
                    {"type": "string", "description": "Pass \"comments\" to inline each blog's comments", "name": "_embed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Blog"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Blogs"],
                "summary": "Create a blog",
                "parameters": [
                    {"description": "Blog to create", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.BlogRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/store.Blog"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/blogs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Blogs"],
                "summary": "Get a blog",
                "parameters": [
                    {"type": "integer", "description": "Blog ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Pass \"comments\" to inline the blog's comments", "name": "_embed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Blog"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerToken": []}],
                "description": "Replaces title, excerpt, content, authorName and date. authorId is never changed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Blogs"],
                "summary": "Update a blog",
                "parameters": [
                    {"type": "integer", "description": "Blog ID", "name": "id", "in": "path", "required": true},
                    {"description": "Replacement fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.BlogRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Blog"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerToken": []}],
                "produces": ["application/json"],
                "tags": ["Blogs"],
                "summary": "Delete a blog",
                "parameters": [
                    {"type": "integer", "description": "Blog ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/comments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Comments"],
                "summary": "List comments",
                "parameters": [
                    {"type": "integer", "description": "Only comments on this blog", "name": "blogId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Comment"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Comments"],
                "summary": "Add a comment",
                "parameters": [
                    {"description": "Comment to add", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/store.Comment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/developers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Developers"],
                "summary": "List developers",
                "parameters": [
                    {"type": "string", "description": "Case-sensitive substring of name", "name": "name_like", "in": "query"},
                    {"type": "string", "description": "Case-sensitive substring of any skill", "name": "skills_like", "in": "query"},
                    {"type": "integer", "description": "1-based page", "name": "_page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 10, max 200)", "name": "_limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Developer"}},
                        "headers": {"X-Total-Count": {"type": "integer", "description": "Matches before paging"}}
                    },
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/developers/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Developers"],
                "summary": "Get a developer",
                "parameters": [
                    {"type": "integer", "description": "Developer ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Developer"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "description": "Returns every user. Optional username filter matches exactly.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "description": "Exact username", "name": "username", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.User"}}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.BlogRequest": {
            "type": "object",
            "required": ["content", "title"],
            "properties": {
                "authorId": {"type": "integer"},
                "authorName": {"type": "string"},
                "content": {"type": "string"},
                "date": {"type": "string"},
                "excerpt": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "api.CommentRequest": {
            "type": "object",
            "required": ["author", "blogId", "content"],
            "properties": {
                "author": {"type": "string"},
                "blogId": {"type": "integer"},
                "content": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "store.Blog": {
            "type": "object",
            "properties": {
                "authorId": {"type": "integer"},
                "authorName": {"type": "string"},
                "comments": {"type": "array", "items": {"$ref": "#/definitions/store.Comment"}},
                "content": {"type": "string"},
                "date": {"type": "string"},
                "excerpt": {"type": "string"},
                "id": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "store.BlogRef": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "store.Comment": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "blogId": {"type": "integer"},
                "content": {"type": "string"},
                "date": {"type": "string"},
                "id": {"type": "integer"}
            }
        },
        "store.Developer": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "bio": {"type": "string"},
                "blogs": {"type": "array", "items": {"$ref": "#/definitions/store.BlogRef"}},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "skills": {"type": "array", "items": {"type": "string"}},
                "social": {"$ref": "#/definitions/store.Social"}
            }
        },
        "store.Social": {
            "type": "object",
            "properties": {
                "github": {"type": "string"},
                "linkedin": {"type": "string"}
            }
        },
        "store.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "password": {"type": "string"},
                "token": {"type": "string"},
                "username": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerToken": {
            "description": "Type \"Bearer\" followed by a space and the token returned for your user.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DevHub Data API",
	Description:      "Developer directory, blogs and comments. Paths and payloads follow json-server conventions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
