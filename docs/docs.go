// Package docs provides the swagger specification served at /swagger.
// Code generated by swag init; edits belong in the handler annotations.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Información de la API",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Pipeline no inicializado"}
                }
            }
        },
        "/questionnaire": {
            "get": {
                "produces": ["application/json"],
                "summary": "Esquema del cuestionario para el frontend",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/model-info": {
            "get": {
                "produces": ["application/json"],
                "summary": "Identidad y parámetros del modelo cargado",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Pipeline no inicializado"}
                }
            }
        },
        "/predict": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Predicción de vulnerabilidad económica",
                "parameters": [
                    {
                        "description": "Respuestas del cuestionario",
                        "name": "answers",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Respuestas fuera de los límites del cuestionario"},
                    "422": {"description": "Valor no interpretable en un campo"},
                    "503": {"description": "Pipeline no inicializado"}
                }
            }
        },
        "/predict/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Predicción por lotes, independiente por elemento",
                "parameters": [
                    {
                        "description": "Lista de respuestas",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Lote vacío o demasiado grande"},
                    "503": {"description": "Pipeline no inicializado"}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "summary": "Contadores del servicio",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/predictions/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Agregados del registro de auditoría",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "API de Vulnerabilidad Económica",
	Description:      "Predicción de vulnerabilidad económica basada en características socioeconómicas",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
