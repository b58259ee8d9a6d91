// Package docs registers the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.BasePath}}"}],
    "components": {
        "securitySchemes": {
            "BearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
        },
        "schemas": {
            "Error": {
                "type": "object",
                "properties": {
                    "code": {"type": "string", "example": "ERR_NOT_FOUND"},
                    "message": {"type": "string"},
                    "request_id": {"type": "string"}
                }
            },
            "Envelope": {
                "type": "object",
                "properties": {
                    "success": {"type": "boolean"},
                    "data": {},
                    "error": {"$ref": "#/components/schemas/Error"},
                    "meta": {
                        "type": "object",
                        "properties": {
                            "total": {"type": "integer"},
                            "page": {"type": "integer"},
                            "page_size": {"type": "integer"},
                            "total_pages": {"type": "integer"}
                        }
                    }
                }
            },
            "Submission": {
                "type": "object",
                "required": ["fields"],
                "properties": {
                    "fields": {"type": "object", "additionalProperties": true}
                }
            }
        },
        "parameters": {
            "Resource": {"name": "resource", "in": "path", "required": true, "schema": {"type": "string", "example": "leases"}},
            "ID": {"name": "id", "in": "path", "required": true, "schema": {"type": "string", "format": "uuid"}},
            "Locale": {"name": "locale", "in": "query", "schema": {"type": "string", "enum": ["en", "ar"]}}
        },
        "responses": {
            "Ok": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Envelope"}}}},
            "Problem": {"description": "Error", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Envelope"}}}}
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health check", "security": [], "responses": {"200": {"description": "Healthy"}, "503": {"description": "Database unreachable"}}}
        },
        "/api/v1/system/ping": {
            "get": {"tags": ["system"], "summary": "Ping the API", "security": [], "responses": {"200": {"$ref": "#/components/responses/Ok"}}}
        },
        "/admin/resources": {
            "get": {"tags": ["panel"], "summary": "List registered resources", "parameters": [{"$ref": "#/components/parameters/Locale"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}}}
        },
        "/admin/translations/{locale}": {
            "get": {
                "tags": ["translations"],
                "summary": "Translate a key or dump the catalog",
                "parameters": [
                    {"name": "locale", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "key", "in": "query", "schema": {"type": "string", "example": "actions.delete.label"}}
                ],
                "responses": {"200": {"$ref": "#/components/responses/Ok"}}
            }
        },
        "/admin/{resource}": {
            "get": {
                "tags": ["panel"],
                "summary": "List page",
                "parameters": [
                    {"$ref": "#/components/parameters/Resource"},
                    {"$ref": "#/components/parameters/Locale"},
                    {"name": "page", "in": "query", "schema": {"type": "integer", "minimum": 1}},
                    {"name": "page_size", "in": "query", "schema": {"type": "integer", "minimum": 1}},
                    {"name": "search", "in": "query", "schema": {"type": "string"}},
                    {"name": "order_by", "in": "query", "schema": {"type": "string"}},
                    {"name": "order_dir", "in": "query", "schema": {"type": "string", "enum": ["asc", "desc"]}},
                    {"name": "trashed", "in": "query", "schema": {"type": "string", "enum": ["with", "only"]}}
                ],
                "responses": {"200": {"$ref": "#/components/responses/Ok"}, "404": {"$ref": "#/components/responses/Problem"}}
            },
            "post": {
                "tags": ["panel"],
                "summary": "Submit the create form",
                "parameters": [
                    {"$ref": "#/components/parameters/Resource"},
                    {"name": "Idempotency-Key", "in": "header", "schema": {"type": "string"}}
                ],
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Submission"}}}},
                "responses": {"200": {"$ref": "#/components/responses/Ok"}, "201": {"$ref": "#/components/responses/Ok"}, "400": {"$ref": "#/components/responses/Problem"}, "409": {"$ref": "#/components/responses/Problem"}}
            }
        },
        "/admin/{resource}/create": {
            "get": {"tags": ["panel"], "summary": "Describe the create page", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/Locale"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}}}
        },
        "/admin/{resource}/{id}": {
            "get": {"tags": ["panel"], "summary": "View page", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}, "404": {"$ref": "#/components/responses/Problem"}}},
            "put": {
                "tags": ["panel"],
                "summary": "Submit the edit form",
                "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}],
                "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Submission"}}}},
                "responses": {"200": {"$ref": "#/components/responses/Ok"}, "404": {"$ref": "#/components/responses/Problem"}}
            },
            "delete": {"tags": ["panel"], "summary": "Delete action", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}, "403": {"$ref": "#/components/responses/Problem"}}}
        },
        "/admin/{resource}/{id}/edit": {
            "get": {"tags": ["panel"], "summary": "Edit page", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}}}
        },
        "/admin/{resource}/{id}/force": {
            "delete": {"tags": ["panel"], "summary": "Force delete action", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}, "403": {"$ref": "#/components/responses/Problem"}}}
        },
        "/admin/{resource}/{id}/restore": {
            "post": {"tags": ["panel"], "summary": "Restore action", "parameters": [{"$ref": "#/components/parameters/Resource"}, {"$ref": "#/components/parameters/ID"}], "responses": {"200": {"$ref": "#/components/responses/Ok"}, "403": {"$ref": "#/components/responses/Problem"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Procurement Backoffice API",
	Description:      "Admin panel for procurement resources: leases, RFQs, tender bonds, supplier risk assessments and purchase orders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
