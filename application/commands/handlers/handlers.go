// Package handlers executes commands against the editor session.
package handlers

import (
	"context"
	"fmt"

	"mindcanvas/application/commands/bus"
	"mindcanvas/application/services"
	"mindcanvas/domain/core/valueobjects"
	pkgerrors "mindcanvas/pkg/errors"
)

// onSession adapts fn to a bus handler that runs inside Session.Do
func onSession[C bus.Command](session *services.Session, fn func(w *services.Workspace, cmd C) (interface{}, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		c, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("unexpected command type %T", cmd)
		}
		var result interface{}
		err := session.Do(ctx, func(w *services.Workspace) error {
			var err error
			result, err = fn(w, c)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// typed adapts fn to a bus handler that runs on the caller's goroutine
func typed[C bus.Command](fn func(ctx context.Context, cmd C) (interface{}, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		c, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("unexpected command type %T", cmd)
		}
		return fn(ctx, c)
	})
}

func parseID(field, raw string) (valueobjects.NodeID, error) {
	id, err := valueobjects.NewNodeIDFromString(raw)
	if err != nil {
		return valueobjects.NodeID{}, pkgerrors.NewValidationError(field + " is required")
	}
	return id, nil
}
