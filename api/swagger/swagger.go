package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PassPilot API",
        "description": "Multi-tenant hall pass service for schools",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "sessionCookie": {
            "type": "apiKey",
            "in": "header",
            "name": "Cookie",
            "description": "pp_sess cookie"
        },
        "kioskCookie": {
            "type": "apiKey",
            "in": "header",
            "name": "Cookie",
            "description": "pp_kiosk cookie"
        }
    },
    "tags": [
        {
            "name": "Health"
        },
        {
            "name": "Auth"
        },
        {
            "name": "Profile"
        },
        {
            "name": "Roster"
        },
        {
            "name": "My Class"
        },
        {
            "name": "Passes"
        },
        {
            "name": "Reports"
        },
        {
            "name": "Admin"
        },
        {
            "name": "Superadmin"
        },
        {
            "name": "Kiosk"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Readiness probe checking database and redis",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Sign in with email and password",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Clear the session cookie",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/auth/activate": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Redeem an invite and set a password",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Current user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/bootstrap": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Create the first superadmin and school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/me": {
            "get": {
                "tags": [
                    "Profile"
                ],
                "summary": "Own profile",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Profile"
                ],
                "summary": "Update own profile",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/me/password": {
            "post": {
                "tags": [
                    "Profile"
                ],
                "summary": "Change own password",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/grades": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "List grades",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Create grade",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/grades/{id}": {
            "patch": {
                "tags": [
                    "Roster"
                ],
                "summary": "Update grade",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Roster"
                ],
                "summary": "Deactivate grade",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/students": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "List students",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Create student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/students/bulk": {
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Create many students",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/students/{id}": {
            "patch": {
                "tags": [
                    "Roster"
                ],
                "summary": "Update student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Roster"
                ],
                "summary": "Deactivate student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/roster": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "Grades with the caller's selection",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/roster/selection": {
            "put": {
                "tags": [
                    "Roster"
                ],
                "summary": "Replace grade selection",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/roster/toggle": {
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Toggle one grade in the selection",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/myclass": {
            "get": {
                "tags": [
                    "My Class"
                ],
                "summary": "Live board for selected grades",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/myclass/switch": {
            "post": {
                "tags": [
                    "My Class"
                ],
                "summary": "Switch the current grade",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/passes": {
            "post": {
                "tags": [
                    "Passes"
                ],
                "summary": "Issue a pass",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "get": {
                "tags": [
                    "Passes"
                ],
                "summary": "List passes",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/passes/{id}": {
            "get": {
                "tags": [
                    "Passes"
                ],
                "summary": "Get a pass",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/passes/{id}/return": {
            "patch": {
                "tags": [
                    "Passes"
                ],
                "summary": "Return a pass",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/reports/summary": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Pass summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/reports/export.csv": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "CSV export",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/reports/export.pdf": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "PDF export",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Create user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users/invite": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Invite user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users/{id}/active": {
            "patch": {
                "tags": [
                    "Admin"
                ],
                "summary": "Activate or deactivate user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users/{id}/promote": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Promote to admin",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users/{id}/demote": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Demote to teacher",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/users/{id}/reset-password": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Reset password",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/invites": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Pending invites",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/school": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Own school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Admin"
                ],
                "summary": "Rename own school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/overview": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "School overview",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/audits": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "School audit log",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/kiosks": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List kiosk devices",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Register kiosk device",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/admin/kiosks/{id}": {
            "patch": {
                "tags": [
                    "Admin"
                ],
                "summary": "Update kiosk device",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/schools": {
            "get": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "List schools",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Create school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/schools/{id}": {
            "patch": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Update school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Delete school",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/users": {
            "get": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "List users across schools",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Create or invite user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/users/{id}/promote": {
            "post": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Promote user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/users/{id}/demote": {
            "post": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Demote user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/users/{id}/active": {
            "patch": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Activate or deactivate user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/audits": {
            "get": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "Audit log",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/api/sa/system": {
            "get": {
                "tags": [
                    "Superadmin"
                ],
                "summary": "System metrics snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "sessionCookie": []
                    }
                ]
            }
        },
        "/kiosk/login": {
            "post": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Sign in a room device",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/kiosk/logout": {
            "post": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Clear the kiosk cookie",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/kiosk/me": {
            "get": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Kiosk identity",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "kioskCookie": []
                    }
                ]
            }
        },
        "/kiosk/students": {
            "get": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Active students",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "kioskCookie": []
                    }
                ]
            }
        },
        "/kiosk/passes/active": {
            "get": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Active passes",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "kioskCookie": []
                    }
                ]
            }
        },
        "/kiosk/passes": {
            "post": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Issue a pass from the kiosk",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "kioskCookie": []
                    }
                ]
            }
        },
        "/kiosk/passes/{id}/return": {
            "patch": {
                "tags": [
                    "Kiosk"
                ],
                "summary": "Return a pass from the kiosk",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "kioskCookie": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "FieldError": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "pageSize": {
                    "type": "integer"
                },
                "totalCount": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "ok": {
                    "type": "boolean"
                },
                "data": {
                    "type": "object"
                },
                "error": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                },
                "fields": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/FieldError"
                    }
                },
                "details": {
                    "type": "object"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
