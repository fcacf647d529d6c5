package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {"get": {"summary": "Liveness check", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness of the managed llama-server", "responses": {"200": {"description": "ready"}, "503": {"description": "loading"}}}},
        "/status": {"get": {"summary": "Managed server status", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}}},
        "/models": {"get": {"summary": "List models", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}}},
        "/events": {"get": {"summary": "Recent lifecycle events", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/prompt": {
            "post": {
                "summary": "Send a prompt to the managed llama-server",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.PromptRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PromptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Unknown grammar or schema", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "llama-server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Not ready", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/server": {"delete": {"summary": "Terminate the managed llama-server", "responses": {"202": {"description": "Accepted"}}}},
        "/metrics": {"get": {"summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "types.PromptRequest": {
            "type": "object",
            "required": ["prompt"],
            "properties": {
                "prompt": {"type": "string"},
                "system": {"type": "array", "items": {"type": "string"}},
                "image": {"type": "string"},
                "protocol": {"type": "string", "enum": ["openai", "native"]},
                "grammar": {"type": "string"},
                "schema": {"type": "string"}
            }
        },
        "types.PromptResponse": {"type": "object", "properties": {"content": {"type": "string"}, "protocol": {"type": "string"}}},
        "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}},
        "types.Model": {"type": "object", "properties": {"id": {"type": "string"}, "path": {"type": "string"}, "alias": {"type": "boolean"}, "multimodal": {"type": "boolean"}}},
        "types.ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}}},
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "port": {"type": "integer"},
                "pid": {"type": "integer"},
                "ready": {"type": "boolean"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Title:            "ggufctl control API",
	Description:      "Launch and prompt a local llama.cpp llama-server.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the API docs under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
