// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register (password)",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenResponse"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login (password)",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh Access Token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Logout (clear refresh)",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Who am I",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MeResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/fields/{kind}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["fields"],
                "summary": "Field registry",
                "parameters": [{"$ref": "#/parameters/kind"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/collection.SlotSetting"}}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/v1/fields/{kind}/{type}/{index}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["fields"],
                "summary": "Update field setting",
                "parameters": [
                    {"$ref": "#/parameters/kind"},
                    {"$ref": "#/parameters/type"},
                    {"$ref": "#/parameters/index"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/customfield.SettingPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/customfield.FieldSetting"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/v1/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Search collection",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/{kind}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "List entities",
                "parameters": [
                    {"$ref": "#/parameters/kind"},
                    {"name": "favorite", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Create entity",
                "parameters": [{"$ref": "#/parameters/kind"}, {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/{kind}/bulk": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Bulk edit",
                "parameters": [{"$ref": "#/parameters/kind"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/collection.BulkRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/collection.BulkResult"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/v1/{kind}/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Get entity",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Update entity",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["entities"],
                "summary": "Delete entity",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/{kind}/{id}/fields": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["fields"],
                "summary": "Resolve custom fields",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"name": "mode", "in": "query", "type": "string", "enum": ["edit", "read"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/{kind}/{id}/fields/{type}/{index}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["fields"],
                "summary": "Delete legacy field value",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/type"}, {"$ref": "#/parameters/index"}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/v1/{kind}/{id}/fields/{type}/{index}/activate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["fields"],
                "summary": "Activate custom field",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/type"}, {"$ref": "#/parameters/index"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/collection.ActivateResult"}}}
            }
        },
        "/api/v1/{kind}/{id}/extra": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Add extra field",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entities.ExtraFieldRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/v1/{kind}/{id}/extra/{key}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Remove extra field",
                "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}, {"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "parameters": {
        "kind": {"name": "kind", "in": "path", "required": true, "type": "string", "description": "cards | decks | packs"},
        "id": {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
        "type": {"name": "type", "in": "path", "required": true, "type": "string", "enum": ["bool", "num", "str"]},
        "index": {"name": "index", "in": "path", "required": true, "type": "integer", "minimum": 1, "maximum": 10}
    },
    "definitions": {
        "auth.LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string"},
                "device_id": {"type": "string"}
            }
        },
        "auth.RegisterRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string"},
                "display_name": {"type": "string"},
                "device_id": {"type": "string"}
            }
        },
        "auth.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string", "example": "Bearer"},
                "expires_in": {"type": "integer", "example": 900},
                "device_id": {"type": "string"}
            }
        },
        "auth.MeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "identifier": {"type": "string"},
                "display_name": {"type": "string"},
                "device_id": {"type": "string"}
            }
        },
        "customfield.FieldSetting": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string"},
                "isEnabled": {"type": "boolean"},
                "description": {"type": "string"}
            }
        },
        "customfield.SettingPatch": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string"},
                "isEnabled": {"type": "boolean"},
                "description": {"type": "string"}
            }
        },
        "collection.SlotSetting": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "example": "custom_1_num"},
                "settingKey": {"type": "string", "example": "num_1"},
                "setting": {"$ref": "#/definitions/customfield.FieldSetting"}
            }
        },
        "collection.ActivateResult": {
            "type": "object",
            "properties": {
                "activated": {"type": "boolean"},
                "slot": {"type": "object"},
                "resolution": {"type": "object"}
            }
        },
        "collection.BulkRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string", "format": "uuid"}},
                "edits": {"type": "array", "items": {"type": "object", "properties": {"field": {"type": "string"}, "value": {}}}},
                "remove": {"type": "array", "items": {"type": "string"}},
                "favorite": {"type": "boolean"}
            }
        },
        "collection.BulkResult": {
            "type": "object",
            "properties": {
                "applied": {"type": "integer"},
                "fields": {"type": "array", "items": {"type": "object", "properties": {"key": {"type": "string"}, "label": {"type": "string"}, "value": {}}}}
            }
        },
        "entities.ExtraFieldRequest": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "value": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "CardVault API",
	Description:      "Card collection API with per-user custom fields",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
