// Package googledrive syncs policy and meeting documents from Google
// Drive folders via the Drive v3 API.
package googledrive
