package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// LoginPath is the admin login page. Guarded routes redirect here.
	LoginPath = RootPath + "login"

	// ErrNilDepsFatalLogMsg is used if app or one of the dependencies is nil.
	ErrNilDepsFatalLogMsg = "app, cfg, store, auth or sessions is nil"

	// LocalAdmin is the fiber.Locals key telling views whether an admin is logged in.
	LocalAdmin = "admin"

	// LocalTitle is the fiber.Locals key of the site title.
	LocalTitle = "title"

	// FileField is the multipart field carrying uploads.
	FileField = "file"
)
