// Package handlers translates HTTP requests into commands and queries
package handlers

import (
	"context"
	"net/http"

	"mindcanvas/application/commands/bus"
	querybus "mindcanvas/application/queries/bus"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// maxDocumentBytes bounds imported documents, which may carry inline media
const maxDocumentBytes = 32 << 20

// base carries what every handler needs
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func newBase(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) base {
	return base{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}
}

func (b base) send(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return b.commandBus.Send(ctx, cmd)
}

func (b base) ask(ctx context.Context, q querybus.Query) (interface{}, error) {
	return b.queryBus.Ask(ctx, q)
}

// run sends cmd and writes the result with status, or the error
func (b base) run(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := b.send(r.Context(), cmd)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	if result == nil {
		common.RespondNoContent(w)
		return
	}
	common.RespondJSON(w, status, result)
}

// query asks q and writes the result, or the error
func (b base) query(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := b.ask(r.Context(), q)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		b.errors.Handle(w, r, err)
		return false
	}
	return true
}
