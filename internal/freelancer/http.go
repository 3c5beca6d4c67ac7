// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package freelancer

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/freelancehub/internal/platform/apperr"
	requestutil "github.com/taibuivan/freelancehub/internal/platform/request"
	"github.com/taibuivan/freelancehub/internal/platform/respond"
	"github.com/taibuivan/freelancehub/internal/platform/validate"
	"github.com/taibuivan/freelancehub/pkg/pagination"
	"github.com/taibuivan/freelancehub/pkg/pointer"
)

const (
	maxUsernameLength = 100
	maxEmailLength    = 254
	maxChildLength    = 100
)

// # HTTP Handler

// Handler exposes the freelancer use cases over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the freelancer endpoints on router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listFreelancers)
	router.Post("/", handler.createFreelancer)

	router.Route("/{id}", func(item chi.Router) {
		item.Get("/", handler.getFreelancer)
		item.Put("/", handler.reconcileFreelancer)
		item.Delete("/", handler.deleteFreelancer)

		item.Patch("/archive", handler.archiveFreelancer(true))
		item.Patch("/unarchive", handler.archiveFreelancer(false))

		item.Put("/{kind}/{childID}", handler.updateChild)
		item.Delete("/{kind}/{childID}", handler.deleteChild)
	})
}

// # Request Payloads

type createRequest struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	IsArchived bool     `json:"is_archived"`
	Hobbies    []string `json:"hobbies"`
	Skillsets  []string `json:"skillsets"`
}

func (input createRequest) validate() error {
	validator := &validate.Validator{}
	validator.Required("username", input.Username).MaxLen("username", input.Username, maxUsernameLength)
	if strings.TrimSpace(input.Email) != "" {
		validator.Email("email", input.Email).MaxLen("email", input.Email, maxEmailLength)
	}
	if strings.TrimSpace(input.Phone) != "" {
		validator.Phone("phone", input.Phone)
	}
	for _, kind := range Kinds {
		names := input.Hobbies
		if kind == KindSkillset {
			names = input.Skillsets
		}
		for position, name := range names {
			validator.MaxLen(entryField(kind, position, "name"), name, maxChildLength)
		}
	}
	return validator.Err()
}

// childRequest is one entry of a desired collection. Id 0 (or omitted) creates.
type childRequest struct {
	ID           int64   `json:"id"`
	FreelancerID int64   `json:"freelancer_id"`
	Name         *string `json:"name"`
}

// reconcileRequest is the desired state of one freelancer.
//
// A null or omitted collection is left untouched; an empty array is an
// explicit "no children".
type reconcileRequest struct {
	ID         int64           `json:"id"`
	Username   *string         `json:"username"`
	Email      *string         `json:"email"`
	Phone      *string         `json:"phone"`
	IsArchived *bool           `json:"is_archived"`
	Hobbies    *[]childRequest `json:"hobbies"`
	Skillsets  *[]childRequest `json:"skillsets"`
}

// validate checks formats only. Blank strings are allowed here because they
// mean "keep the current value".
func (input reconcileRequest) validate(routeID int64) error {
	validator := &validate.Validator{}
	validator.Custom("id", input.ID != 0 && input.ID != routeID, "Does not match the URL")

	if value := strings.TrimSpace(pointer.Val(input.Username)); value != "" {
		validator.MaxLen("username", value, maxUsernameLength)
	}
	if value := strings.TrimSpace(pointer.Val(input.Email)); value != "" {
		validator.Email("email", value).MaxLen("email", value, maxEmailLength)
	}
	if value := strings.TrimSpace(pointer.Val(input.Phone)); value != "" {
		validator.Phone("phone", value)
	}

	collections := input.collections()
	for _, kind := range Kinds {
		for position, entry := range collections[kind] {
			validator.MaxLen(entryField(kind, position, "name"), pointer.Val(entry.Name), maxChildLength)
		}
	}

	return validator.Err()
}

// collections returns the collections present in the payload.
func (input reconcileRequest) collections() map[Kind][]childRequest {
	present := make(map[Kind][]childRequest, len(Kinds))
	if input.Hobbies != nil {
		present[KindHobby] = *input.Hobbies
	}
	if input.Skillsets != nil {
		present[KindSkillset] = *input.Skillsets
	}
	return present
}

// desired converts the payload into the engine's input.
func (input reconcileRequest) desired() Desired {
	desired := Desired{
		Parent: ParentPatch{
			Username:   input.Username,
			Email:      input.Email,
			Phone:      input.Phone,
			IsArchived: input.IsArchived,
		},
		Children: make(map[Kind][]DesiredChild),
	}

	for kind, entries := range input.collections() {
		children := make([]DesiredChild, 0, len(entries))
		for _, entry := range entries {
			children = append(children, DesiredChild{ID: entry.ID, FreelancerID: entry.FreelancerID, Name: entry.Name})
		}
		desired.Children[kind] = children
	}

	return desired
}

type childNameRequest struct {
	Name string `json:"name"`
}

// # Handlers

func (handler *Handler) listFreelancers(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	archived, err := requestutil.OptionalBool(request, "archived")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		Query:    request.URL.Query().Get("q"),
		Archived: archived,
	}

	items, total, err := handler.service.List(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, items, paginationParams.Meta(total))
}

func (handler *Handler) createFreelancer(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entity, err := handler.service.Create(request.Context(), NewFreelancer(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, entity)
}

func (handler *Handler) getFreelancer(writer http.ResponseWriter, request *http.Request) {
	freelancerID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entity, err := handler.service.Get(request.Context(), freelancerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entity)
}

func (handler *Handler) reconcileFreelancer(writer http.ResponseWriter, request *http.Request) {
	freelancerID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	mode, err := ParseMode(request.URL.Query().Get("mode"))
	if err != nil {
		respond.Error(writer, request, apperr.ValidationField("mode", "Must be one of: partial, replace_all"))
		return
	}

	var input reconcileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := input.validate(freelancerID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Reconcile(request.Context(), freelancerID, input.desired(), mode)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !result.Found {
		respond.Error(writer, request, apperr.NotFound("Freelancer"))
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) deleteFreelancer(writer http.ResponseWriter, request *http.Request) {
	freelancerID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), freelancerID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) archiveFreelancer(archived bool) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		freelancerID, err := requestutil.ID(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		if _, err := handler.service.SetArchived(request.Context(), freelancerID, archived); err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.NoContent(writer)
	}
}

func (handler *Handler) updateChild(writer http.ResponseWriter, request *http.Request) {
	freelancerID, kind, childID, err := childRoute(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input childNameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	validator := &validate.Validator{}
	validator.Required("name", input.Name).MaxLen("name", input.Name, maxChildLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	child, err := handler.service.UpdateChild(request.Context(), freelancerID, kind, childID, input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, child)
}

func (handler *Handler) deleteChild(writer http.ResponseWriter, request *http.Request) {
	freelancerID, kind, childID, err := childRoute(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteChild(request.Context(), freelancerID, kind, childID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// childRoute parses /{id}/{kind}/{childID}.
func childRoute(request *http.Request) (int64, Kind, int64, error) {
	freelancerID, err := requestutil.ID(request, "id")
	if err != nil {
		return 0, "", 0, err
	}

	kind, ok := ParseKind(requestutil.Param(request, "kind"))
	if !ok {
		return 0, "", 0, apperr.NotFound("Collection")
	}

	childID, err := requestutil.ID(request, "childID")
	if err != nil {
		return 0, "", 0, err
	}

	return freelancerID, kind, childID, nil
}
