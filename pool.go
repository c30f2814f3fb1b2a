package brace

import (
	"strings"
	"sync"
)

// ----------------------------- Render pools -----------------------------------

var renderCtxPool = sync.Pool{
	New: func() any {
		return &renderCtx{
			scopes: make([]scopeEntry, 0, 8),
		}
	},
}

var stringBuilderPool = sync.Pool{
	New: func() any { return &strings.Builder{} },
}
