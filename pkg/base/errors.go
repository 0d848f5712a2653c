package base

import (
	"errors"

	"basekit/pkg/attr"
	"basekit/pkg/lifecycle"
	"basekit/pkg/plugin"
)

var (
	ErrUndefinedAttribute = attr.ErrUndefinedAttribute
	ErrPluginNotFound     = plugin.ErrPluginNotFound
	ErrDoubleDestroy      = lifecycle.ErrDoubleDestroy
	ErrInvalidTransition  = lifecycle.ErrInvalidTransition

	// ErrDestroyed is returned by Set and Plug once teardown has started
	// (Plug) or finished (Set).
	ErrDestroyed = errors.New("instance destroyed")

	// ErrInvalidMember is returned when a lifecycle method or attribute hook
	// member has the wrong signature.
	ErrInvalidMember = errors.New("invalid member")

	// ErrInvalidExtension is returned when the extension list passed to
	// Extend holds something that is not an Extension.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrReservedAttribute is returned when a class declares, or a caller
	// sets, the reserved plugins key.
	ErrReservedAttribute = errors.New("reserved attribute")

	// ErrInvalidOptions is returned when construction options are malformed.
	ErrInvalidOptions = errors.New("invalid options")
)
