// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go
package docs

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
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Merchant login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/payments": {
            "post": {"tags": ["payments"], "summary": "Initiate a payment", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}, "429": {"description": "Too Many Requests"}}}
        },
        "/api/v1/withdrawals": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["withdrawals"], "summary": "Request a withdrawal", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/api/v1/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "List transactions", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/transactions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Get a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/transactions/{id}/check-status": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Poll provider status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}
        },
        "/api/v1/webhooks/{provider}/{country}": {
            "post": {"tags": ["webhooks"], "summary": "Provider notification", "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}, {"type": "string", "name": "country", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/routing/methods": {
            "get": {"tags": ["routing"], "summary": "Payment methods for a country", "parameters": [{"type": "string", "name": "country", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/admin/provider-configs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List provider configs", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create a provider config", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/admin/provider-configs/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Get a provider config", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Update a provider config", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Deactivate a provider config", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/admin/audit-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List audit logs", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Enter your Bearer token in the format: Bearer {token}",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Paylink API",
	Description:      "Multi-provider payment orchestration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
