// Package config holds the compiled-in run settings and loads CUE profiles
// that override them.
//
// A profile is a CUE file checked against the closed #Profile schema:
//
//	waitroom: {
//		chairs:    4
//		customers: 12
//		service:   "500ms"
//	}
//	gate: readers: 8
//
// Unknown fields, wrong types and violated bounds are load errors. Fields
// a profile leaves out keep their default.
package config
