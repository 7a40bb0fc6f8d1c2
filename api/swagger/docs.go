package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Open Depot Archive API",
        "description": "Dataset browsing, bulk selection and content delivery",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Datasets", "description": "Dataset metadata"},
        {"name": "Explorer", "description": "Browsing sessions, selection and downloads"}
    ],
    "paths": {
        "/datasets/{id}": {
            "get": {
                "tags": ["Datasets"],
                "summary": "Fetch dataset metadata",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/datasets/{id}/explorer": {
            "post": {
                "tags": ["Explorer"],
                "summary": "Open a browsing session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/explorer/{sid}": {
            "delete": {
                "tags": ["Explorer"],
                "summary": "Discard a browsing session",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/explorer/{sid}/folders/{fid}": {
            "get": {
                "tags": ["Explorer"],
                "summary": "List a folder's discoverable children",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true},
                    {"name": "fid", "in": "path", "type": "string", "required": true},
                    {"name": "creator", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "visibleTo", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "accessibleTo", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Filter requires archivist role"},
                    "410": {"description": "Session expired"}
                }
            }
        },
        "/explorer/{sid}/selection": {
            "get": {
                "tags": ["Explorer"],
                "summary": "Read the current selection",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Explorer"],
                "summary": "Toggle, select-all or clear the selection",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/explorer/{sid}/download": {
            "post": {
                "tags": ["Explorer"],
                "summary": "Download the selected items",
                "description": "Streams a zip immediately on the fast path, otherwise returns a confirmation payload.",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Zip stream"},
                    "202": {"description": "Confirmation payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/explorer/{sid}/download/confirm": {
            "post": {
                "tags": ["Explorer"],
                "summary": "Download after confirming the dialog",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Zip stream"}
                }
            }
        },
        "/explorer/{sid}/rights": {
            "put": {
                "tags": ["Explorer"],
                "summary": "Change visibility or accessibility on selected items",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RightsUpdateRequest"}}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "403": {"description": "Archivist role required"},
                    "409": {"description": "Dataset published"}
                }
            }
        },
        "/explorer/{sid}/items": {
            "delete": {
                "tags": ["Explorer"],
                "summary": "Delete the selected items",
                "parameters": [
                    {"name": "sid", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "409": {"description": "Dataset published"}
                }
            }
        }
    },
    "definitions": {
        "SelectionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["toggle", "all", "none"]},
                "itemId": {"type": "string"}
            }
        },
        "RightsUpdateRequest": {
            "type": "object",
            "properties": {
                "visibleTo": {"type": "string", "enum": ["ANYONE", "KNOWN_USER", "NONE"]},
                "accessibleTo": {"type": "string", "enum": ["ANYONE", "KNOWN_USER", "NONE"]}
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
                "pagination": {"type": "object"},
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
