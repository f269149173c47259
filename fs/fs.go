// Package appfs exposes the app's embedded static files:
// DB migrations, web & email templates and assets.
package appfs

import "embed"

//go:embed assets migrations templates
var FS embed.FS
