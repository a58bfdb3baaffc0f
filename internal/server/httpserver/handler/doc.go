// Package handler provides HTTP request handlers for Larder.
//
// This package implements the HTTP API endpoints for snapshot export,
// validation, import, and local backup management. All JSON responses
// use a standard envelope with a request ID and timestamp.
package handler
