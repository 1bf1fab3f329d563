package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Calendar Availability API",
        "description": "Device-code sign-in against Microsoft identity and read-only calendar availability queries",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Device authorization flow and token state"},
        {"name": "Calendar", "description": "Calendar availability"},
        {"name": "Health", "description": "Liveness and readiness"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/ReadyResponse"}}
                }
            }
        },
        "/auth/initialize": {
            "get": {
                "tags": ["Auth"],
                "summary": "Start device authorization",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/InitializeAuthResponse"}},
                    "500": {"description": "Identity provider unavailable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "post": {
                "tags": ["Auth"],
                "summary": "Start device authorization",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/InitializeAuthResponse"}},
                    "500": {"description": "Identity provider unavailable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/complete": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a device code for an access token",
                "description": "The device code may be sent as a JSON body or as the device_code (or code) query parameter. The token itself is never returned.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/CompleteAuthRequest"}},
                    {"name": "device_code", "in": "query", "type": "string"},
                    {"name": "code", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CompleteAuthResponse"}},
                    "400": {"description": "Exchange rejected or device code missing", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "500": {"description": "Token acquired but not persisted, or provider unavailable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/status": {
            "get": {
                "tags": ["Auth"],
                "summary": "Report authentication state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthStatusResponse"}}
                }
            }
        },
        "/calendar/available-slots": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List calendar events for a day",
                "description": "Returns the calendar provider's response unmodified. Upstream failures keep the upstream status.",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Calendar provider response", "schema": {"type": "object"}},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "No valid token", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"}
            }
        },
        "ReadyResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ready"},
                "authenticated": {"type": "boolean"}
            }
        },
        "InitializeAuthResponse": {
            "type": "object",
            "properties": {
                "verification_uri": {"type": "string"},
                "user_code": {"type": "string"},
                "device_code": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "CompleteAuthRequest": {
            "type": "object",
            "properties": {
                "device_code": {"type": "string"}
            }
        },
        "CompleteAuthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"}
            }
        },
        "AuthStatusResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "state": {"type": "string", "enum": ["unauthenticated", "authenticated", "expired"]},
                "expires_at": {"type": "string", "format": "date-time"}
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
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
