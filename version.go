package orocos

import _ "embed"

// Version of the module, as recorded in the VERSION file.
//
//go:embed VERSION
var Version string
