// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/archivum/internal/core/entity"
	requestutil "github.com/taibuivan/archivum/internal/platform/request"
	"github.com/taibuivan/archivum/internal/platform/respond"
	"github.com/taibuivan/archivum/internal/platform/validate"
)

// # Handler Implementation

// Handler implements the HTTP layer for access rule administration.
type Handler struct {
	service *Service
}

// NewHandler constructs a new access [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with rule endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listRules)
	router.Post("/", handler.grant)
	router.Delete("/{id}", handler.revoke)

	return router
}

// ruleInput is the wire shape of a grant request.
type ruleInput struct {
	Class    entity.Class `json:"class"`
	EntityID uuid.UUID    `json:"entity_id"`
	UserID   *uuid.UUID   `json:"user_id"`
	GroupID  *uuid.UUID   `json:"group_id"`
	Read     bool         `json:"read"`
	Write    bool         `json:"write"`
}

/*
GET /api/v1/rules.

Request:
  - class: media | series
  - entity_id: uuid

Response:
  - 200: []Rule
  - 403: Caller is neither owner nor editor
  - 404: Entity not found
*/
func (handler *Handler) listRules(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()

	validator := &validate.Validator{}
	validator.OneOf(FieldClass, queryParams.Get(FieldClass), string(entity.ClassMedia), string(entity.ClassSeries))
	validator.UUID(FieldEntityID, queryParams.Get(FieldEntityID))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	target := Target{
		Class:    entity.Class(queryParams.Get(FieldClass)),
		EntityID: uuid.MustParse(queryParams.Get(FieldEntityID)),
	}

	rules, err := handler.service.ListRules(request.Context(), requestutil.Caller(request), target)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rules)
}

/*
POST /api/v1/rules.

Request (Body):
  - ruleInput JSON object

Response:
  - 201: Rule
  - 400: Malformed rule (both or neither grantee, no permission)
  - 403: Caller is neither owner nor editor
  - 409: Grantee already has a rule on this entity
*/
func (handler *Handler) grant(writer http.ResponseWriter, request *http.Request) {
	var input ruleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rule := &Rule{
		Target:  Target{Class: input.Class, EntityID: input.EntityID},
		UserID:  input.UserID,
		GroupID: input.GroupID,
		Read:    input.Read,
		Write:   input.Write,
	}

	if err := handler.service.Grant(request.Context(), requestutil.Caller(request), rule); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, rule)
}

/*
DELETE /api/v1/rules/{id}.

Response:
  - 204: Revoked
  - 404: Rule not found
  - 410: Rule already revoked
*/
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	ruleID, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Revoke(request.Context(), requestutil.Caller(request), ruleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
