package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Schedule API",
        "description": "Recurring class series generation and conflict classification",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ClassSeries", "description": "Recurring series materialization"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/class-series/{id}/extend": {
            "post": {
                "tags": ["ClassSeries"],
                "summary": "Materialize the next window of a class series",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ExtendSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Window processed, nothing created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Sessions created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Series not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Series not active, special, exhausted or locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid series configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-series/{id}/preview": {
            "post": {
                "tags": ["ClassSeries"],
                "summary": "Preview the next window without persisting",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ExtendSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Would-be report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-series/sweep": {
            "post": {
                "tags": ["ClassSeries"],
                "summary": "Queue extension of every active class series",
                "produces": ["application/json"],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue not running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "DateOverride": {
            "type": "object",
            "required": ["date", "action"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "action": {"type": "string", "enum": ["SKIP", "USE_ALTERNATIVE", "FORCE_CREATE"]},
                "alternativeStart": {"type": "string", "example": "14:00"},
                "alternativeEnd": {"type": "string", "example": "15:00"}
            }
        },
        "ExtendSeriesRequest": {
            "type": "object",
            "properties": {
                "horizonMonths": {"type": "integer", "minimum": 1, "maximum": 12},
                "overrides": {"type": "array", "items": {"$ref": "#/definitions/DateOverride"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
