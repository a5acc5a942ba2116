// Package engine is the single entry point for envelope-shaped requests
// against the execution service: it looks up the handler registered for
// (type, subType), runs it, and shapes whatever happens into a normalized
// response envelope. An internal fault never crosses this boundary raw.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"cbs/src/types"
)

type Handler func(ctx context.Context, data json.RawMessage) (any, error)

type Router struct {
	handlers map[string]map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]map[string]Handler)}
}

func (r *Router) Handle(reqType, subType string, h Handler) {
	sub, ok := r.handlers[reqType]
	if !ok {
		sub = make(map[string]Handler)
		r.handlers[reqType] = sub
	}
	sub[subType] = h
}

// Dispatch resolves and runs the handler for the envelope. Missing
// handlers are terminal ("Invalid request subType"); handler errors and
// panics come back as {error, request}; success comes back as {success}.
// A correlation token on the request is echoed on the response unchanged.
func (r *Router) Dispatch(ctx context.Context, req types.RequestEnvelope) (out types.ResponseEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Recovered from %s/%s handler: %v\n", req.Type, req.SubType, rec)
			out = types.ResponseEnvelope{
				Error:   fmt.Sprintf("internal fault: %v", rec),
				Request: &req,
				ReqID:   req.ReqID,
			}
		}
	}()

	var h Handler
	if sub, ok := r.handlers[req.Type]; ok {
		h = sub[req.SubType]
	}
	if h == nil {
		return types.ResponseEnvelope{
			Error:   "Invalid request subType",
			Request: &req,
			ReqID:   req.ReqID,
		}
	}

	value, err := h(ctx, req.Data)
	if err != nil {
		return types.ResponseEnvelope{
			Error:   err.Error(),
			Request: &req,
			ReqID:   req.ReqID,
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return types.ResponseEnvelope{
			Error:   fmt.Sprintf("internal fault: %s", err.Error()),
			Request: &req,
			ReqID:   req.ReqID,
		}
	}
	return types.ResponseEnvelope{Success: raw, ReqID: req.ReqID}
}
