// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/archivum/internal/platform/middleware"
	requestutil "github.com/taibuivan/archivum/internal/platform/request"
	"github.com/taibuivan/archivum/internal/platform/respond"
	"github.com/taibuivan/archivum/internal/platform/sec"
)

// # Handler Implementation

// Handler implements the HTTP layer for the identity directory.
type Handler struct {
	service *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with user and group endpoints.
//
// Group authorization happens in the [Service]; account creation is also
// gated at the router so anonymous callers get 401 before the body is read.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", handler.whoAmI)
	router.With(middleware.RequireTier(sec.TierAdministrator)).Post("/users", handler.createUser)

	router.Route("/groups", func(groups chi.Router) {
		groups.Get("/", handler.listGroups)
		groups.Post("/", handler.createGroup)
		groups.Delete("/{id}", handler.deleteGroup)
		groups.Put("/{id}/members/{userID}", handler.addMember)
		groups.Delete("/{id}/members/{userID}", handler.removeMember)
	})

	return router
}

/*
GET /api/v1/identity/me.

Description: Returns the resolved caller, including implicit groups and the
effective tier.

Response:
  - 200: identity.Identity
*/
func (handler *Handler) whoAmI(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, requestutil.Caller(request))
}

/*
POST /api/v1/identity/users.

Request (Body):
  - CreateUserInput JSON object

Response:
  - 201: identity.User
  - 400: Validation failure
  - 403: Caller is not an administrator
  - 409: Name already taken
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input CreateUserInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.CreateUser(request.Context(), requestutil.Caller(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/identity/groups.

Response:
  - 200: []identity.Group
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	groups, err := handler.service.ListGroups(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, groups)
}

/*
POST /api/v1/identity/groups.

Response:
  - 201: identity.Group
  - 403: Caller is not an administrator
  - 409: Reserved or duplicate name
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	var input CreateGroupInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	group, err := handler.service.CreateGroup(request.Context(), requestutil.Caller(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, group)
}

/*
DELETE /api/v1/identity/groups/{id}.

Response:
  - 204: Deleted
  - 409: Reserved group
  - 410: Nothing matched
*/
func (handler *Handler) deleteGroup(writer http.ResponseWriter, request *http.Request) {
	groupID, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteGroup(request.Context(), requestutil.Caller(request), groupID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// PUT /api/v1/identity/groups/{id}/members/{userID}.
func (handler *Handler) addMember(writer http.ResponseWriter, request *http.Request) {
	membership, err := membershipFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.AddMember(request.Context(), requestutil.Caller(request), membership); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/identity/groups/{id}/members/{userID}.
func (handler *Handler) removeMember(writer http.ResponseWriter, request *http.Request) {
	membership, err := membershipFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RemoveMember(request.Context(), requestutil.Caller(request), membership); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func membershipFrom(request *http.Request) (Membership, error) {
	groupID, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		return Membership{}, err
	}

	userID, err := requestutil.UUIDParam(request, "userID")
	if err != nil {
		return Membership{}, err
	}

	return Membership{GroupID: groupID, UserID: userID}, nil
}
