// Package environment carries the deployment environment (APP_ENV) through
// request contexts so handlers and log records can tell development from
// production.
package environment
