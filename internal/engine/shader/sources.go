package shader

import _ "embed"

// SphereVertex transforms sphere vertices and forwards both lens UVs.
//
//go:embed sphere.vert
var SphereVertex string

// SphereFragment composites the front lens over the rear lens.
//
//go:embed sphere.frag
var SphereFragment string
