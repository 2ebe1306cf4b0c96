// Package validation reports bad request input as one INVALID_INPUT error
// that names every failing field.
//
// Structs are checked through their validate tags:
//
//	err := validation.Validate(opts)
//
// Checks that depend on configuration are chained by hand:
//
//	err := validation.New().
//	    Required("filename", name).
//	    OneOf("extension", ext, allowed).
//	    Validate()
package validation
