// Package docs registers the OpenAPI description served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/analyze-response": {
            "post": {
                "tags": ["analysis"],
                "summary": "Moderate and evaluate one answer",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/model.AnalyzeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Analysis"}},
                    "400": {"description": "Missing required fields"},
                    "500": {"description": "Internal error"}
                }
            }
        },
        "/generate-summary": {
            "post": {
                "tags": ["analysis"],
                "summary": "Summarize a session (idempotent)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.GenerateSummaryRequest"}}],
                "responses": {
                    "200": {"description": "Created or already existing summary"},
                    "400": {"description": "Missing sessionId"},
                    "500": {"description": "No responses found or persistence failure"}
                }
            }
        },
        "/v1/auth/register": {
            "post": {"tags": ["auth"], "summary": "Create a manager account", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.LoginResponse"}}}}
        },
        "/v1/auth/login": {
            "post": {"tags": ["auth"], "summary": "Log in as a manager", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}}}}
        },
        "/v1/surveys": {
            "post": {"tags": ["surveys"], "summary": "Create a survey", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["surveys"], "summary": "List surveys", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/s/{shortCode}/sessions": {
            "post": {
                "tags": ["chat"],
                "summary": "Start a survey session",
                "parameters": [{"in": "path", "name": "shortCode", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Unknown survey"}, "410": {"description": "Survey closed"}}
            }
        },
        "/v1/sessions/{sessionId}/answers": {
            "post": {
                "tags": ["chat"],
                "summary": "Submit an answer or a clarification reply",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "sessionId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Turn result"}, "400": {"description": "Empty answer"}, "404": {"description": "Unknown session"}, "409": {"description": "Session closed or concurrently modified"}}
            }
        }
    },
    "definitions": {
        "model.AnalyzeRequest": {
            "type": "object",
            "required": ["question", "answer"],
            "properties": {
                "question": {"type": "string"},
                "answer": {"type": "string"},
                "attemptNumber": {"type": "integer"},
                "surveyGoal": {"type": "string"},
                "goalDescription": {"type": "string"}
            }
        },
        "model.Analysis": {
            "type": "object",
            "properties": {
                "needsClarification": {"type": "boolean"},
                "clarificationPrompt": {"type": "string", "x-nullable": true},
                "reason": {"type": "string"},
                "flagged": {"type": "boolean"},
                "flagReason": {"type": "string"}
            }
        },
        "handler.GenerateSummaryRequest": {
            "type": "object",
            "required": ["sessionId"],
            "properties": {"sessionId": {"type": "string"}}
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "accountId": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fydbak API",
	Description:      "Adaptive conversational surveys: moderation, clarification and session summaries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
