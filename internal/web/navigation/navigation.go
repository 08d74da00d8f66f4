// Package navigation provides the navigation state and breadcrumbs of a page.
package navigation

// Sections of the portal. The public pages need no login.
const (
	SectionPublic = "public"
	SectionAdmin  = "admin"
)

// HomeTitle and HomeURL make up the first breadcrumb of every page.
const (
	HomeTitle = "Home"
	HomeURL   = "/"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// Page returns the context of a page directly below home, with the
// breadcrumbs Home > title. The home page itself only gets one crumb.
func Page(title, section, page, url string) *Context {
	c := NewContext(title, section, page)

	if url == HomeURL {
		return c.AddBreadcrumb(HomeTitle, HomeURL, true)
	}

	return c.AddBreadcrumb(HomeTitle, HomeURL, false).AddBreadcrumb(title, url, true)
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
