// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}}
        },
        "/api/telemetry": {
            "get": {"tags": ["telemetry"], "summary": "List telemetry", "description": "Up to the last 1000 samples, oldest first.", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.TelemetrySample"}}}}},
            "post": {"tags": ["telemetry"], "summary": "Ingest telemetry", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.TelemetrySample"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/settings": {
            "get": {"tags": ["settings"], "summary": "Read settings (device)", "description": "Reverts overrides after a lost heartbeat and delivers a pending calibration request exactly once.",
                "parameters": [{"in": "query", "name": "schema", "type": "string", "enum": ["legacy", "canonical"]}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["settings"], "summary": "Update settings", "description": "All supplied fields commit together or not at all.", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SettingsRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/settings/current": {
            "get": {"tags": ["settings"], "summary": "Read settings (controller)", "responses": {"200": {"description": "OK"}}}
        },
        "/api/mode": {
            "post": {"tags": ["settings"], "summary": "Set override modes", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ModeRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/motor_targets": {
            "post": {"tags": ["settings"], "summary": "Set motor targets", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MotorTargetsRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/calibration": {
            "post": {"tags": ["settings"], "summary": "Trigger calibration", "consumes": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/heartbeat": {
            "post": {"tags": ["settings"], "summary": "Controller heartbeat", "responses": {"200": {"description": "OK"}}}
        },
        "/api/events": {
            "get": {"tags": ["events"], "summary": "Recent control events",
                "parameters": [
                    {"in": "query", "name": "since", "type": "string", "description": "Only events after this time (unix seconds or RFC3339)"},
                    {"in": "query", "name": "type", "type": "string", "enum": ["SETTINGS_UPDATE", "MODE_CHANGE", "MOTOR_TARGETS", "CALIBRATION_TRIGGER", "CALIBRATION_DELIVERED", "AUTO_REVERT"]},
                    {"in": "query", "name": "limit", "type": "integer", "description": "Maximum events (default 50, max 200)"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    },
    "definitions": {
        "handlers.SettingsRequest": {"type": "object", "properties": {
            "latitude": {"type": "number", "example": 48.137},
            "longitude": {"type": "number", "example": 11.575},
            "wlan_outlet_ip": {"type": "string", "example": "outlet.local"},
            "outlet_ip": {"type": "string", "example": "192.168.1.40"},
            "outlet_runtime": {"type": "integer", "example": 30},
            "utc_offset": {"type": "string", "example": "+02:00"},
            "factory_reset": {"type": "boolean", "example": false}}},
        "handlers.ModeRequest": {"type": "object", "properties": {
            "manual_mode": {"type": "boolean", "example": true},
            "snow_mode": {"type": "boolean", "example": false}}},
        "handlers.MotorTargetsRequest": {"type": "object", "properties": {
            "motor1_target": {"type": "integer", "example": 120},
            "motor2_target": {"type": "integer", "example": 45}}},
        "models.TelemetrySample": {"type": "object", "properties": {
            "wind": {}, "sunrise": {}, "sunset": {}, "sunhours": {}, "motor1": {}, "motor2": {},
            "manuell": {}, "voltage": {}, "current": {}, "coordscheck": {}, "zeit": {},
            "received_at": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Solar Follower API",
	Description:      "Coordination backend between the solar tracker device and its web control panel.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
