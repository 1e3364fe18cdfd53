package httpapi

//go:generate swag init -g internal/httpapi/server.go -o docs/swagger

// @title Design Review API
// @version 0.1
// @description Spec-driven visual design review engine: drive a URL, run checks, get graded issues.
// @BasePath /
