// Package commands defines the state-changing requests accepted by the
// editor. Handlers live in commands/handlers.
package commands

import (
	"mindcanvas/infrastructure/persistence/document"
	"mindcanvas/pkg/utils"
)

// CreateNodeCommand adds a "New Task" node at the canvas position,
// optionally as a child of ParentID
type CreateNodeCommand struct {
	ParentID *string `json:"parentId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Validate validates the command
func (c CreateNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateNodeCommand changes node content. Nil fields are left alone.
type UpdateNodeCommand struct {
	NodeID      string                     `json:"nodeId" validate:"required"`
	Title       *string                    `json:"title"`
	Description *string                    `json:"description"`
	Completed   *bool                      `json:"completed"`
	Formatting  *document.FormattingRecord `json:"formatting"`
	Chat        *[]document.ChatRecord     `json:"chat"`
}

// Validate validates the command
func (c UpdateNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// MoveNodeCommand places a node at a canvas position
type MoveNodeCommand struct {
	NodeID string  `json:"nodeId" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Validate validates the command
func (c MoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// ResizeNodeCommand sets a node size; values below the minimum are clamped
type ResizeNodeCommand struct {
	NodeID string  `json:"nodeId" validate:"required"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Validate validates the command
func (c ResizeNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteNodeCommand removes a node and all of its descendants
type DeleteNodeCommand struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// Validate validates the command
func (c DeleteNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// ToggleCompletedCommand flips the completed flag
type ToggleCompletedCommand struct {
	NodeID string `json:"nodeId" validate:"required"`
}

// Validate validates the command
func (c ToggleCompletedCommand) Validate() error { return utils.ValidateStruct(c) }

// ToggleFormatCommand flips one boolean text style
type ToggleFormatCommand struct {
	NodeID string `json:"nodeId" validate:"required"`
	Flag   string `json:"flag" validate:"required,oneof=bold italic underline strikethrough"`
}

// Validate validates the command
func (c ToggleFormatCommand) Validate() error { return utils.ValidateStruct(c) }

// AddConnectionCommand adds a cross-link From -> To
type AddConnectionCommand struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Validate validates the command
func (c AddConnectionCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveConnectionCommand drops every From -> To cross-link
type RemoveConnectionCommand struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Validate validates the command
func (c RemoveConnectionCommand) Validate() error { return utils.ValidateStruct(c) }

// AddMediaCommand attaches an image, document or link. A missing media id
// is generated.
type AddMediaCommand struct {
	NodeID string               `json:"nodeId" validate:"required"`
	Media  document.MediaRecord `json:"media"`
}

// Validate validates the command
func (c AddMediaCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	return utils.ValidateStruct(mediaInput{Type: c.Media.Type, URL: c.Media.URL})
}

type mediaInput struct {
	Type string `json:"type" validate:"required,oneof=image document link"`
	URL  string `json:"url" validate:"required"`
}

// RemoveMediaCommand detaches a media item by id
type RemoveMediaCommand struct {
	NodeID  string `json:"nodeId" validate:"required"`
	MediaID string `json:"mediaId" validate:"required"`
}

// Validate validates the command
func (c RemoveMediaCommand) Validate() error { return utils.ValidateStruct(c) }
