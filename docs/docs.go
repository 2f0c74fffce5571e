// Package docs registers the Swagger document for the photo moderation API
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Ping the database and the cache",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/api/v1/admin/approve-photo/{id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Approve a pending photo",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Photo not found"}}
            }
        },
        "/api/v1/admin/reject-photo/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Reject and remove a photo",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "This photo cannot be rejected"}, "502": {"description": "Photo storage is unavailable"}}
            }
        },
        "/api/v1/admin/photos-to-moderate": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List photos waiting for approval",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/photo-stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Approved photo counts per user",
                "responses": {"200": {"description": "OK"}, "404": {"description": "No photo stats found"}}
            }
        },
        "/api/v1/admin/photo-stats/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Admin"],
                "summary": "Download photo stats as a spreadsheet",
                "responses": {"200": {"description": "OK"}, "404": {"description": "No photo stats found"}}
            }
        },
        "/api/v1/admin/users-without-main-photo": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Users that have approved photos but no main photo",
                "responses": {"200": {"description": "OK"}, "404": {"description": "No users without main photo found"}}
            }
        },
        "/api/v1/admin/photo-history/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Audit trail of a photo, newest first",
                "parameters": [
                    {"type": "integer", "description": "Photo ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number, starting at 1", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid photo id"}}
            }
        },
        "/api/v1/admin/user-activity/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Audit entries produced by a user, newest first",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "userId", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number, starting at 1", "name": "page", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid user id"}}
            }
        },
        "/api/v1/admin/edit-roles/{username}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Replace the roles of a user",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true},
                    {"type": "string", "description": "Comma separated role names", "name": "roles", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}, "404": {"description": "User not found"}}
            }
        },
        "/api/v1/admin/users-with-roles": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List users with their roles",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/tags": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List all tags",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/create-tag": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Create a tag",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Tag already exists"}}
            }
        },
        "/api/v1/admin/delete-tag/{name}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Delete a tag and its assignments",
                "parameters": [{"type": "string", "description": "Tag name", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Tag not found"}}
            }
        },
        "/api/v1/users/assign-tags/{photoId}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "Assign tags to a photo",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "photoId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Photo not found"}}
            }
        },
        "/api/v1/users/remove-tag/{photoId}/{tagName}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "Remove a tag from a photo",
                "parameters": [
                    {"type": "integer", "description": "Photo ID", "name": "photoId", "in": "path", "required": true},
                    {"type": "string", "description": "Tag name", "name": "tagName", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/users/set-main-photo/{photoId}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Photos"],
                "summary": "Make one of your approved photos the main photo",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "photoId", "in": "path", "required": true}],
                "responses": {"204": {"description": "Main photo changed"}, "400": {"description": "Cannot set this photo as main"}}
            }
        },
        "/api/v1/users/delete-photo/{photoId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "Delete one of your photos",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "photoId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Photo belongs to another user"}}
            }
        },
        "/api/v1/users/add-photo": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "Upload a photo",
                "parameters": [{"type": "file", "description": "Image", "name": "file", "in": "formData", "required": true}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Missing or unsupported file"}}
            }
        },
        "/api/v1/users/photos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "List your approved photos with tags",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/users/photo-tags/{photoId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Photos"],
                "summary": "List the tags on a photo",
                "parameters": [{"type": "integer", "description": "Photo ID", "name": "photoId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Photo not found"}}
            }
        },
        "/api/v1/likes/{userId}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Social"],
                "summary": "Like a user, or remove an existing like",
                "parameters": [{"type": "integer", "description": "Target user ID", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "You cannot like yourself"}}
            }
        },
        "/api/v1/likes/ids": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Social"],
                "summary": "IDs of the users you liked",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Social"],
                "summary": "Send a direct message",
                "responses": {"201": {"description": "Created"}, "404": {"description": "Recipient not found"}}
            }
        },
        "/api/v1/messages/thread/{username}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Social"],
                "summary": "Conversation with another user, oldest first",
                "parameters": [{"type": "string", "description": "Other username", "name": "username", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/messages/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Social"],
                "summary": "Delete a message on your side of the conversation",
                "parameters": [{"type": "integer", "description": "Message ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not a party to the message"}}
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
	Title:            "Photo Moderation API",
	Description:      "Photo approval, tagging, roles and member social features.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
