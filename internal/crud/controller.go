package crud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/query"
)

// Model is what a record type must expose so the generic controller can
// address it by identifier and maintain its bookkeeping timestamp.
type Model interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	Touch()
}

// Options customizes one resource's controller without changing the shared
// behavior: a per-request base filter (nested routes), a pre-create hook
// (filling in route/principal-derived fields) and a post-write hook
// (denormalized aggregates).
type Options[T any] struct {
	Scope        func(r *http.Request) []query.Filter
	BeforeCreate func(r *http.Request, model *T) error
	AfterWrite   func(ctx context.Context, model *T)
}

// Controller is the parameterized CRUD set shared by every resource type.
// Each resource supplies a store and options; the five operations behave
// identically across resources.
type Controller[T any, PT interface {
	*T
	Model
}] struct {
	store    Store[T]
	validate *validator.Validate
	opts     Options[T]
}

func NewController[T any, PT interface {
	*T
	Model
}](store Store[T], opts Options[T]) *Controller[T, PT] {
	return &Controller[T, PT]{
		store:    store,
		validate: validator.New(),
		opts:     opts,
	}
}

// GetOne fetches a record by identifier, expanding the store's configured
// relations.
func (c *Controller[T, PT]) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, err)
		return
	}

	doc, err := c.store.FindByID(r.Context(), id)
	if err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	httputil.RespondData(w, map[string]any{"data": doc}, http.StatusOK)
}

// GetAll lists records matching the request's query specification ANDed with
// the resource's scope filter. The results count reflects the returned page.
func (c *Controller[T, PT]) GetAll(w http.ResponseWriter, r *http.Request) {
	spec := query.Parse(r.URL.Query())

	var scope []query.Filter
	if c.opts.Scope != nil {
		scope = c.opts.Scope(r)
	}

	docs, err := c.store.FindAll(r.Context(), spec, scope)
	if err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	httputil.RespondList(w, len(docs), map[string]any{"data": docs})
}

// CreateOne validates the payload against the resource schema and persists
// it, returning the stored record with its generated identifier.
func (c *Controller[T, PT]) CreateOne(w http.ResponseWriter, r *http.Request) {
	doc := PT(new(T))
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	if c.opts.BeforeCreate != nil {
		if err := c.opts.BeforeCreate(r, doc); err != nil {
			httputil.RespondError(w, err)
			return
		}
	}

	if err := c.validate.Struct(doc); err != nil {
		httputil.RespondError(w, validationError(err))
		return
	}

	if err := c.store.Create(r.Context(), doc); err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	if c.opts.AfterWrite != nil {
		c.opts.AfterWrite(r.Context(), doc)
	}

	httputil.RespondData(w, map[string]any{"data": doc}, http.StatusCreated)
}

// UpdateOne applies a partial update: the stored record is fetched, the
// request body merged over it, validators re-run and the result saved.
func (c *Controller[T, PT]) UpdateOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, err)
		return
	}

	found, err := c.store.FindByID(r.Context(), id)
	if err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	doc := PT(found)
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		httputil.RespondError(w, apperror.Validation("invalid request body"))
		return
	}
	// The identifier is not patchable
	doc.SetID(id)

	if err := c.validate.Struct(doc); err != nil {
		httputil.RespondError(w, validationError(err))
		return
	}

	doc.Touch()
	if err := c.store.Update(r.Context(), found); err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	if c.opts.AfterWrite != nil {
		c.opts.AfterWrite(r.Context(), found)
	}

	httputil.RespondData(w, map[string]any{"data": doc}, http.StatusOK)
}

// DeleteOne removes a record, signalling no-content on success.
func (c *Controller[T, PT]) DeleteOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, err)
		return
	}

	// Existence check first so the post-write hook sees the removed record
	doc, err := c.store.FindByID(r.Context(), id)
	if err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	if err := c.store.DeleteByID(r.Context(), id); err != nil {
		c.respondStoreError(w, r, err)
		return
	}

	if c.opts.AfterWrite != nil {
		c.opts.AfterWrite(r.Context(), doc)
	}

	httputil.RespondNoContent(w)
}

func (c *Controller[T, PT]) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondError(w, apperror.NotFound("no document found with that ID"))
	case errors.Is(err, ErrDuplicate):
		httputil.RespondError(w, apperror.Duplicate("duplicate field value, please use another value"))
	default:
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("store operation failed", "error", err.Error())
		httputil.RespondError(w, err)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid ID")
	}
	return id, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperror.Validation("invalid input data: " + verrs[0].Error())
	}
	return apperror.Validation("invalid input data")
}
