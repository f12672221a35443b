// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteTaxonomy is the tree editor.
	RouteTaxonomy = "/taxonomy"
	// RouteTaxonomyAdd opens the add form below a node.
	RouteTaxonomyAdd = "/taxonomy/add/{id}"
	// RouteTaxonomyCancel closes the add form below a node.
	RouteTaxonomyCancel = "/taxonomy/cancel/{id}"

	// RouteAdmin is the admin prefix.
	RouteAdmin = "/admin"
	// RouteVideos is the videos admin route.
	RouteVideos = "/videos"
	// RouteHomepage is the homepage admin route.
	RouteHomepage = "/homepage"
	// RouteEvents is the event log route.
	RouteEvents = "/events"
)

// Redirect targets.
const (
	redirectLogin    = RouteLogin
	redirectTaxonomy = RouteTaxonomy
	redirectVideos   = RouteAdmin + RouteVideos
	redirectHomepage = RouteAdmin + RouteHomepage
	redirectEvents   = RouteAdmin + RouteEvents
)
