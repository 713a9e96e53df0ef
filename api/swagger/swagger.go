package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UniTime Scheduling API",
        "description": "Timetable assignment and conflict resolution for university groups.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Schedule", "description": "Slot assignment, room changes and conflict checks"},
        {"name": "Groups", "description": "Per-group timetable views"},
        {"name": "Semesters", "description": "Calendar periods and the active flag"},
        {"name": "Catalog", "description": "Subjects, time grid and classrooms"},
        {"name": "Exceptions", "description": "One-off cancellations and reschedules"}
    ],
    "paths": {
        "/schedule/create_slot": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Place a session into the timetable",
                "description": "Lectures shared by several groups are created as one stream. With is_military_day the whole day is filled with the special activity.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/FlatResponse"}},
                    "400": {"description": "Conflict or validation failure", "schema": {"$ref": "#/definitions/FlatResponse"}}
                }
            }
        },
        "/schedule/update_room": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Assign a classroom to a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FlatResponse"}},
                    "400": {"description": "Room conflict or capacity warning", "schema": {"$ref": "#/definitions/FlatResponse"}},
                    "404": {"description": "Room not found", "schema": {"$ref": "#/definitions/FlatResponse"}}
                }
            }
        },
        "/schedule/delete_slot": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Remove a slot or its whole stream",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SlotReference"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FlatResponse"}}
                }
            }
        },
        "/schedule/check_conflicts": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Dry-run an assignment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FlatResponse"}}
                }
            }
        },
        "/schedule/occupancy": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Room occupancy for one day",
                "description": "Without institute_id the caller's own institute is shown; superadmins see every building.",
                "parameters": [
                    {"name": "day", "in": "query", "type": "integer", "required": true},
                    {"name": "semester_id", "in": "query", "type": "string"},
                    {"name": "institute_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/slots/{id}/exceptions": {
            "get": {
                "tags": ["Exceptions"],
                "summary": "List exceptions of a slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exceptions"],
                "summary": "Cancel or reschedule one occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExceptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already recorded for the date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/exceptions/{id}": {
            "delete": {
                "tags": ["Exceptions"],
                "summary": "Remove an exception",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/groups/{id}/slots": {
            "get": {
                "tags": ["Groups"],
                "summary": "Group timetable",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "semester_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/groups/{id}/weekly-needs": {
            "get": {
                "tags": ["Groups"],
                "summary": "Remaining weekly sessions per subject",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "semester_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "List semesters",
                "parameters": [
                    {"name": "faculty_id", "in": "query", "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "course_level", "in": "query", "type": "integer"},
                    {"name": "is_active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Semesters"],
                "summary": "Create semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSemesterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get semester",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Semesters"],
                "summary": "Delete semester and its slots",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/activate": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Activate semester, deactivating its siblings",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Subject with derived totals",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-slots": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Time grid",
                "parameters": [
                    {"name": "institute_id", "in": "query", "type": "string"},
                    {"name": "shift", "in": "query", "type": "string", "enum": ["morning", "day", "evening"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Add a time slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTimeSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List classrooms",
                "parameters": [
                    {"name": "institute_id", "in": "query", "type": "string"},
                    {"name": "building_id", "in": "query", "type": "string"},
                    {"name": "number", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Add a classroom",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassroomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "JSON metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateSlotRequest": {
            "type": "object",
            "required": ["group", "day_of_week"],
            "properties": {
                "group": {"type": "string"},
                "subject": {"type": "string"},
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 5},
                "time_slot": {"type": "string"},
                "lesson_type": {"type": "string", "enum": ["LECTURE", "PRACTICE", "SRSP"]},
                "week_parity": {"type": "string", "enum": ["every", "red", "blue"]},
                "semester_id": {"type": "string"},
                "force": {"type": "boolean"},
                "is_military_day": {"type": "boolean"}
            }
        },
        "UpdateRoomRequest": {
            "type": "object",
            "required": ["slot_id", "room"],
            "properties": {
                "slot_id": {"type": "string"},
                "room": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "SlotReference": {
            "type": "object",
            "required": ["slot_id"],
            "properties": {
                "slot_id": {"type": "string"}
            }
        },
        "CreateExceptionRequest": {
            "type": "object",
            "required": ["exception_date", "exception_type"],
            "properties": {
                "exception_date": {"type": "string", "format": "date"},
                "exception_type": {"type": "string", "enum": ["cancel", "reschedule"]},
                "reason": {"type": "string"},
                "new_date": {"type": "string", "format": "date"},
                "new_start_time": {"type": "string"},
                "new_end_time": {"type": "string"},
                "new_classroom_id": {"type": "string"}
            }
        },
        "CreateSemesterRequest": {
            "type": "object",
            "required": ["faculty_id", "academic_year", "number", "course_level", "shift", "start_date", "end_date"],
            "properties": {
                "faculty_id": {"type": "string"},
                "academic_year": {"type": "string"},
                "number": {"type": "integer", "enum": [1, 2]},
                "course_level": {"type": "integer", "minimum": 1, "maximum": 5},
                "shift": {"type": "string", "enum": ["morning", "day", "evening"]},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "CreateTimeSlotRequest": {
            "type": "object",
            "required": ["shift", "number", "start_time", "end_time"],
            "properties": {
                "institute_id": {"type": "string"},
                "shift": {"type": "string", "enum": ["morning", "day", "evening"]},
                "number": {"type": "integer"},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "09:20"}
            }
        },
        "CreateClassroomRequest": {
            "type": "object",
            "required": ["building_id", "number", "capacity"],
            "properties": {
                "building_id": {"type": "string"},
                "number": {"type": "string"},
                "floor": {"type": "integer"},
                "capacity": {"type": "integer"},
                "room_type": {"type": "string"}
            }
        },
        "FlatResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "is_conflict": {"type": "boolean"},
                "is_capacity_warning": {"type": "boolean"},
                "count": {"type": "integer"},
                "is_stream": {"type": "boolean"},
                "stream_id": {"type": "string"},
                "room": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
