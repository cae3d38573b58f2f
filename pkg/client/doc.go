// Package client implements the HTTP client for the SHAARPEC Analytics API:
// authenticated GET/POST against a base URL plus the Run helper that submits
// a long-running job and polls its status endpoint to completion.
package client
