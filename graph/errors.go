package graph

import "errors"

var (
	// ErrInvalidEntity is returned when an entity lacks a workspace, name or type.
	ErrInvalidEntity = errors.New("graph: entity requires workspace, name and type")

	// ErrInvalidRelation is returned when a relation lacks a workspace, endpoint or type.
	ErrInvalidRelation = errors.New("graph: relation requires workspace, endpoints and type")

	// ErrInvalidWorkspace is returned when a workspace name is empty.
	ErrInvalidWorkspace = errors.New("graph: workspace name required")

	// ErrInvalidID is returned when an identifier is not a UUID.
	ErrInvalidID = errors.New("graph: invalid identifier")
)
