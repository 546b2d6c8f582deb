package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_GetHandlersCombinesWildcardAndTyped(t *testing.T) {
	registry := NewHandlerRegistry()

	typed := &testHandler{}
	wildcard := &testHandler{}
	registry.Register(typed, "pattern.created")
	registry.Register(wildcard)

	handlers := registry.GetHandlers("pattern.created")
	assert.Len(t, handlers, 2)

	handlers = registry.GetHandlers("pattern.deleted")
	assert.Len(t, handlers, 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := &testHandler{}
	registry.Register(handler, "suggestion.created", "suggestion.expired")
	registry.Unregister(handler)

	assert.Empty(t, registry.GetHandlers("suggestion.created"))
	assert.Empty(t, registry.GetHandlers("suggestion.expired"))
}

func TestHandlerRegistry_GetAllHandlersDeduplicates(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := &testHandler{}
	registry.Register(handler, "pattern.promoted", "pattern.demoted")

	assert.Len(t, registry.GetAllHandlers(), 1)
}
