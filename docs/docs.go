// Package docs 提供 swagger 文档，与 handle 包中的注解保持一致，可用 swag init 重新生成.
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
        "/api/v1/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "画廊列表",
                "parameters": [
                    {"type": "string", "description": "名称、描述或代码的子串", "name": "search", "in": "query"},
                    {"type": "string", "description": "风格", "name": "style", "in": "query"},
                    {"type": "string", "description": "角色", "name": "role", "in": "query"},
                    {"type": "string", "description": "逗号分隔，命中任意一个", "name": "tags", "in": "query"},
                    {"type": "string", "description": "recent | popular | name", "name": "sortBy", "in": "query"},
                    {"type": "integer", "description": "页码，从 1 开始", "name": "page", "in": "query"},
                    {"type": "integer", "description": "每页条数", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PageEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "创建条目",
                "parameters": [
                    {"type": "string", "description": "头像代码", "name": "code", "in": "formData", "required": true},
                    {"type": "string", "description": "名称", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "描述", "name": "description", "in": "formData"},
                    {"type": "string", "description": "逗号分隔的标签", "name": "tags", "in": "formData"},
                    {"type": "string", "description": "风格", "name": "style", "in": "formData"},
                    {"type": "string", "description": "角色", "name": "role", "in": "formData"},
                    {"type": "string", "description": "所有者，未识别调用者时使用", "name": "ownerId", "in": "formData"},
                    {"type": "file", "description": "图片（JPEG、PNG、GIF 或 WebP）", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/items/code/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "按代码获取条目",
                "parameters": [{"type": "string", "description": "头像代码", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "获取条目",
                "parameters": [{"type": "string", "description": "条目 id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "修改条目",
                "parameters": [
                    {"type": "string", "description": "条目 id", "name": "id", "in": "path", "required": true},
                    {"description": "要修改的字段", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "删除条目",
                "parameters": [{"type": "string", "description": "条目 id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/items/{id}/vote": {
            "post": {
                "produces": ["application/json"],
                "tags": ["投票"],
                "summary": "投票 / 取消投票",
                "parameters": [{"type": "string", "description": "条目 id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/items/{id}/voters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["投票"],
                "summary": "投票用户列表",
                "parameters": [{"type": "string", "description": "条目 id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/users/{id}/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["条目"],
                "summary": "用户的条目",
                "parameters": [{"type": "string", "description": "用户 id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["统计"],
                "summary": "画廊统计",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/health/{component}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康"],
                "summary": "组件健康检查",
                "parameters": [{"enum": ["db", "s3", "kv", "mq"], "type": "string", "name": "component", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handle.ComponentHealth"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handle.ComponentHealth"}}
                }
            }
        },
        "/api/v1/admin/maintenance/sweep": {
            "post": {
                "produces": ["application/json"],
                "tags": ["维护"],
                "summary": "清理孤儿图片",
                "parameters": [{"type": "boolean", "description": "只报告不删除", "name": "dryRun", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        },
        "/api/v1/admin/maintenance/reconcile": {
            "post": {
                "produces": ["application/json"],
                "tags": ["维护"],
                "summary": "校对票数",
                "parameters": [{"type": "boolean", "description": "只报告不修复", "name": "dryRun", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "handle.ComponentHealth": {
            "type": "object",
            "properties": {
                "component": {"type": "string"},
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "model.Item": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "imageFormat": {"type": "string"},
                "imageHeight": {"type": "integer"},
                "imageStorageId": {"type": "string"},
                "imageUrl": {"type": "string"},
                "imageWidth": {"type": "integer"},
                "name": {"type": "string"},
                "ownerId": {"type": "string"},
                "role": {"type": "string"},
                "style": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "updatedAt": {"type": "string"},
                "voteCount": {"type": "integer"}
            }
        },
        "types.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "types.PageEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Item"}},
                "pagination": {"$ref": "#/definitions/types.Pagination"},
                "success": {"type": "boolean"}
            }
        },
        "types.Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "types.UpdateItemRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "name": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "avatarhub API",
	Description:      "社区头像画廊：上传、浏览、搜索与投票.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
