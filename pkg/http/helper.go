package http

import (
	"net/http"
	"strconv"

	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractActor builds the acting user's context from headers set by the
// upstream auth layer. Requests without actor headers (the public website)
// behave as unscoped callers and must name a property explicitly where one
// is required.
func ExtractActor(r *http.Request) (model.ActorContext, error) {
	role := r.Header.Get("X-Actor-Role")
	property := model.Property(r.Header.Get("X-Actor-Property"))

	if role == "" {
		return model.AdminActor(), nil
	}
	if role != model.RoleAdmin && role != model.RoleManager {
		return model.ActorContext{}, apperrors.InvalidInput("unknown actor role: " + role)
	}
	if role == model.RoleManager {
		if !property.Valid() {
			return model.ActorContext{}, apperrors.Forbidden("Manager has no property assigned")
		}
		return model.ManagerActor(property), nil
	}
	if property != "" && !property.Valid() {
		return model.ActorContext{}, apperrors.InvalidInput("unknown property: " + property.String())
	}
	return model.ActorContext{Role: role, Property: property}, nil
}

// ExtractProperty reads the optional property filter from the query string.
// "All" means no filter, matching the dashboard's property selector.
func ExtractProperty(r *http.Request) (model.Property, error) {
	raw := r.URL.Query().Get("property")
	if raw == "" || raw == "All" {
		return "", nil
	}
	property := model.Property(raw)
	if !property.Valid() {
		return "", apperrors.InvalidInput("unknown property: " + raw)
	}
	return property, nil
}
