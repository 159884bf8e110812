// Package gitlab implements forge.Store against the GitLab REST API v4 for a
// single merge request, using the official client-go library.
//
// Collections (diffs, discussions, notes) are read 100 per page. Positioned
// comments are created as new discussions with a text position on the new
// side of the diff. Error responses surface as *forge.APIError.
package gitlab
