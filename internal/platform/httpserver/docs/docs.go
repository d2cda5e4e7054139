// Package docs holds the OpenAPI document served under /swagger/.
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
        "/v1/listings/{listing_id}/candidates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "List candidates of a listing",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/listings/{listing_id}/slots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Show reward slot occupancy",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/listings/{listing_id}/winners": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Assign a candidate to a reward position",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Slot occupied or quota exceeded"}}
            }
        },
        "/v1/listings/{listing_id}/winners/{candidate_id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Release a candidate's reward position",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true},
                    {"type": "string", "name": "candidate_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/listings/{listing_id}/candidates/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Reject or mark spam many candidates in chunks",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {"200": {"description": "OK"}, "207": {"description": "Batch halted"}, "409": {"description": "Operation in progress"}}
            }
        },
        "/v1/listings/{listing_id}/publish/precheck": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Check whether results can be announced",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/listings/{listing_id}/publish": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reward-allocation"],
                "summary": "Announce the winners of a listing",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true},
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already announced"}, "422": {"description": "Not complete"}}
            }
        },
        "/v1/listings/{listing_id}/winners.xlsx": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["reward-allocation"],
                "summary": "Download the winners sheet",
                "parameters": [
                    {"type": "string", "name": "listing_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sponsordesk Reward Allocation API",
	Description:      "Winner assignment, review transitions and result announcement for sponsor listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
