// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/platform/apperr"
	requestutil "github.com/taibuivan/archivum/internal/platform/request"
	"github.com/taibuivan/archivum/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for one record class.
type Handler struct {
	service      *Service
	class        entity.Class
	defaultLimit int
	maxLimit     int
}

// NewHandler constructs a [Handler] serving records of class.
func NewHandler(service *Service, class entity.Class, defaultLimit, maxLimit int) *Handler {
	return &Handler{service: service, class: class, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Routes returns a [chi.Router] configured with the version chain endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.create)

	router.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.getLatest)
		r.Post("/", handler.create)
		r.Delete("/", handler.delete)

		r.Get("/versions", handler.listVersions)
		r.Get("/{version}", handler.getVersion)
		r.Delete("/{version}", handler.delete)
	})

	return router
}

/*
GET /api/v1/{class}.

Request (Query):
  - q: Search expression ("op:field:value", "," = AND, ";" = OR)
  - language: Language tag filter
  - asc | desc: Sortable field name (mutually exclusive)
  - latest, published: View flags
  - offset, limit: Paging

Response:
  - 200: []Record with pagination meta
  - 400: Malformed search, order or paging input
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	read, err := handler.readRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.Read(request.Context(), read)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, page.Items, page.Meta)
}

/*
GET /api/v1/{class}/{id}/versions.

Response:
  - 200: []Record (every readable version of id, same query options as the listing)
*/
func (handler *Handler) listVersions(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	read, err := handler.readRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	read.ID = &id

	page, err := handler.service.Read(request.Context(), read)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, page.Items, page.Meta)
}

/*
GET /api/v1/{class}/{id}.

Response:
  - 200: Record (latest version)
  - 403: Caller can write but not read
  - 404: Not found or not readable
*/
func (handler *Handler) getLatest(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Get(request.Context(), requestutil.Caller(request), handler.class, id, nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/{class}/{id}/{version}.

Response:
  - 200: Record
  - 403: Caller can write but not read
  - 404: Not found or not readable
*/
func (handler *Handler) getVersion(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := requestutil.IntParam(request, "version")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Get(request.Context(), requestutil.Caller(request), handler.class, id, &version)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
POST /api/v1/{class} and POST /api/v1/{class}/{id}.

Request (Body):
  - Record JSON object; "parent_version" optionally names the version the
    edit was derived from. Server-owned fields are ignored.

Response:
  - 201: Header of the stored version
  - 400: Validation failed
  - 401: Anonymous caller
  - 403: Not owner and no write access, or owner change without editor tier
  - 503: Version allocation kept colliding
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	record, err := entity.New(handler.class)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if err := requestutil.DecodeJSON(request, record); err != nil {
		respond.Error(writer, request, err)
		return
	}

	head := record.Head()
	if requestutil.Param(request, "id") != "" {
		id, err := requestutil.UUIDParam(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		head.ID = id
	}

	parentVersion := head.ParentVersion
	head.ParentVersion = nil

	stored, err := handler.service.Write(request.Context(), WriteRequest{
		Caller:        requestutil.Caller(request),
		Record:        record,
		ParentVersion: parentVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, stored)
}

/*
DELETE /api/v1/{class}/{id} and DELETE /api/v1/{class}/{id}/{version}.

Response:
  - 204: Deleted
  - 403: Caller is not an administrator
  - 410: Nothing matched
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var version *int
	if requestutil.Param(request, "version") != "" {
		number, err := requestutil.IntParam(request, "version")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		version = &number
	}

	if _, err := handler.service.Delete(request.Context(), requestutil.Caller(request), handler.class, id, version); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// readRequest parses the listing query parameters.
func (handler *Handler) readRequest(request *http.Request) (ReadRequest, error) {
	page, err := requestutil.Page(request, handler.defaultLimit, handler.maxLimit)
	if err != nil {
		return ReadRequest{}, err
	}

	queryParams := request.URL.Query()

	onlyLatest, err := boolParam(queryParams, ParamLatest)
	if err != nil {
		return ReadRequest{}, err
	}
	onlyPublished, err := boolParam(queryParams, ParamPublished)
	if err != nil {
		return ReadRequest{}, err
	}

	return ReadRequest{
		Caller:        requestutil.Caller(request),
		Class:         handler.class,
		Language:      queryParams.Get(ParamLanguage),
		Search:        queryParams.Get(ParamSearch),
		OrderAsc:      queryParams.Get(ParamAsc),
		OrderDesc:     queryParams.Get(ParamDesc),
		OnlyLatest:    onlyLatest,
		OnlyPublished: onlyPublished,
		Page:          page,
	}, nil
}

// boolParam accepts a bare flag ("?latest") as true.
func boolParam(values url.Values, name string) (bool, error) {
	if !values.Has(name) {
		return false, nil
	}
	raw := values.Get(name)
	if raw == "" {
		return true, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.ValidationError("Invalid flag",
			apperr.FieldError{Field: name, Message: "Must be true or false"})
	}
	return value, nil
}
