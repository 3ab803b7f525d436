// Package api serves the indexed deposit entities over HTTP.
// @title DepositIndexor API
// @version 1.0
// @description REST API for querying convertible deposit entities and snapshots indexed by DepositIndexor
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/DepositIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
